package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/agentarena/escrow-server/pkg/database/postgres"
	"github.com/agentarena/escrow-server/pkg/escrow/data/event"
)

const (
	tableName = "agentarena__core_ledgerevent"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	EventID   string `db:"event_id"`
	EventType int    `db:"event_type"`

	Owner string `db:"owner"`

	Amount          uint64 `db:"amount"`
	PreviousBalance uint64 `db:"previous_balance"`
	NewBalance      uint64 `db:"new_balance"`

	MatchID           sql.NullString `db:"match_id"`
	TransferReference sql.NullString `db:"transfer_reference"`

	DeliveryState int `db:"delivery_state"`

	CreatedAt   time.Time    `db:"created_at"`
	PublishedAt sql.NullTime `db:"published_at"`
}

func toModel(obj *event.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	m := &model{
		EventID:   obj.EventID,
		EventType: int(obj.EventType),

		Owner: obj.Owner,

		Amount:          obj.Amount,
		PreviousBalance: obj.PreviousBalance,
		NewBalance:      obj.NewBalance,

		DeliveryState: int(obj.DeliveryState),

		CreatedAt: obj.CreatedAt,
	}

	if obj.MatchID != nil {
		m.MatchID = sql.NullString{
			String: *obj.MatchID,
			Valid:  true,
		}
	}

	if obj.TransferReference != nil {
		m.TransferReference = sql.NullString{
			String: *obj.TransferReference,
			Valid:  true,
		}
	}

	if obj.PublishedAt != nil {
		m.PublishedAt = sql.NullTime{
			Time:  *obj.PublishedAt,
			Valid: true,
		}
	}

	return m, nil
}

func fromModel(obj *model) *event.Record {
	record := &event.Record{
		Id: uint64(obj.Id.Int64),

		EventID:   obj.EventID,
		EventType: event.Type(obj.EventType),

		Owner: obj.Owner,

		Amount:          obj.Amount,
		PreviousBalance: obj.PreviousBalance,
		NewBalance:      obj.NewBalance,

		DeliveryState: event.DeliveryState(obj.DeliveryState),

		CreatedAt: obj.CreatedAt,
	}

	if obj.MatchID.Valid {
		matchID := obj.MatchID.String
		record.MatchID = &matchID
	}

	if obj.TransferReference.Valid {
		transferReference := obj.TransferReference.String
		record.TransferReference = &transferReference
	}

	if obj.PublishedAt.Valid {
		publishedAt := obj.PublishedAt.Time
		record.PublishedAt = &publishedAt
	}

	return record
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	query := `INSERT INTO ` + tableName + `
		(event_id, event_type, owner, amount, previous_balance, new_balance, match_id, transfer_reference, delivery_state, created_at, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, event_id, event_type, owner, amount, previous_balance, new_balance, match_id, transfer_reference, delivery_state, created_at, published_at`

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(
			ctx,
			query,
			m.EventID,
			m.EventType,
			m.Owner,
			m.Amount,
			m.PreviousBalance,
			m.NewBalance,
			m.MatchID,
			m.TransferReference,
			m.DeliveryState,
			m.CreatedAt,
			m.PublishedAt,
		).StructScan(m)
		if err == nil {
			return nil
		}

		if !pgutil.IsUniqueViolation(err) {
			return err
		}

		// Disambiguate a replayed transfer from a replayed event id
		if m.TransferReference.Valid {
			var exists bool
			existsErr := db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM `+tableName+` WHERE transfer_reference = $1)`, m.TransferReference)
			if existsErr != nil {
				return existsErr
			}
			if exists {
				return event.ErrDuplicateTransferReference
			}
		}
		return event.ErrEventExists
	})
}

func dbGet(ctx context.Context, db *sqlx.DB, eventID string) (*model, error) {
	var res model

	query := `SELECT id, event_id, event_type, owner, amount, previous_balance, new_balance, match_id, transfer_reference, delivery_state, created_at, published_at FROM ` + tableName + `
		WHERE event_id = $1
	`

	err := db.GetContext(ctx, &res, query, eventID)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, event.ErrEventNotFound)
	}
	return &res, nil
}

func dbGetByTransferReference(ctx context.Context, db *sqlx.DB, reference string) (*model, error) {
	var res model

	query := `SELECT id, event_id, event_type, owner, amount, previous_balance, new_balance, match_id, transfer_reference, delivery_state, created_at, published_at FROM ` + tableName + `
		WHERE transfer_reference = $1
	`

	err := db.GetContext(ctx, &res, query, reference)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, event.ErrEventNotFound)
	}
	return &res, nil
}

func dbGetAllByOwner(ctx context.Context, db *sqlx.DB, owner string, limit uint64) ([]*model, error) {
	res := []*model{}

	query := `SELECT id, event_id, event_type, owner, amount, previous_balance, new_balance, match_id, transfer_reference, delivery_state, created_at, published_at FROM ` + tableName + `
		WHERE owner = $1
		ORDER BY id DESC
		LIMIT $2
	`

	err := db.SelectContext(ctx, &res, query, owner, limit)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, event.ErrEventNotFound)
	}

	if len(res) == 0 {
		return nil, event.ErrEventNotFound
	}
	return res, nil
}

func dbGetBatchByDeliveryState(ctx context.Context, db *sqlx.DB, state event.DeliveryState, limit uint64) ([]*model, error) {
	res := []*model{}

	query := `SELECT id, event_id, event_type, owner, amount, previous_balance, new_balance, match_id, transfer_reference, delivery_state, created_at, published_at FROM ` + tableName + `
		WHERE delivery_state = $1
		ORDER BY id ASC
		LIMIT $2
	`

	err := db.SelectContext(ctx, &res, query, int(state), limit)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, event.ErrEventNotFound)
	}

	if len(res) == 0 {
		return nil, event.ErrEventNotFound
	}
	return res, nil
}

func dbMarkPublished(ctx context.Context, db *sqlx.DB, eventID string) error {
	query := `UPDATE ` + tableName + `
		SET delivery_state = $2, published_at = $3
		WHERE event_id = $1 AND delivery_state != $2
	`

	res, err := db.ExecContext(ctx, query, eventID, int(event.DeliveryStatePublished), time.Now())
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected > 0 {
		return nil
	}

	// Marking an already published event is a no-op
	var exists bool
	existsErr := db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM `+tableName+` WHERE event_id = $1)`, eventID)
	if existsErr != nil {
		return existsErr
	}
	if !exists {
		return event.ErrEventNotFound
	}
	return nil
}
