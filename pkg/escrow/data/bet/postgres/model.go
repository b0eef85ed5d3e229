package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/agentarena/escrow-server/pkg/database/postgres"
	"github.com/agentarena/escrow-server/pkg/escrow/data/bet"
)

const (
	tableName = "agentarena__core_bet"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`
	Bump    uint8  `db:"bump"`

	MatchID string `db:"match_id"`
	Bettor  string `db:"bettor"`

	Amount          uint64 `db:"amount"`
	SelectedOutcome uint8  `db:"selected_outcome"`
	Status          int    `db:"status"`

	Payout sql.NullInt64 `db:"payout"`

	CreatedAt time.Time    `db:"created_at"`
	SettledAt sql.NullTime `db:"settled_at"`
}

func toModel(obj *bet.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	m := &model{
		Address: obj.Address,
		Bump:    obj.Bump,

		MatchID: obj.MatchID,
		Bettor:  obj.Bettor,

		Amount:          obj.Amount,
		SelectedOutcome: obj.SelectedOutcome,
		Status:          int(obj.Status),

		CreatedAt: obj.CreatedAt,
	}

	if obj.Payout != nil {
		m.Payout = sql.NullInt64{
			Int64: int64(*obj.Payout),
			Valid: true,
		}
	}

	if obj.SettledAt != nil {
		m.SettledAt = sql.NullTime{
			Time:  *obj.SettledAt,
			Valid: true,
		}
	}

	return m, nil
}

func fromModel(obj *model) *bet.Record {
	record := &bet.Record{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,
		Bump:    obj.Bump,

		MatchID: obj.MatchID,
		Bettor:  obj.Bettor,

		Amount:          obj.Amount,
		SelectedOutcome: obj.SelectedOutcome,
		Status:          bet.Status(obj.Status),

		CreatedAt: obj.CreatedAt,
	}

	if obj.Payout.Valid {
		payout := uint64(obj.Payout.Int64)
		record.Payout = &payout
	}

	if obj.SettledAt.Valid {
		settledAt := obj.SettledAt.Time
		record.SettledAt = &settledAt
	}

	return record
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	query := `INSERT INTO ` + tableName + `
		(address, bump, match_id, bettor, amount, selected_outcome, status, payout, created_at, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, address, bump, match_id, bettor, amount, selected_outcome, status, payout, created_at, settled_at`

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Bump,
			m.MatchID,
			m.Bettor,
			m.Amount,
			m.SelectedOutcome,
			m.Status,
			m.Payout,
			m.CreatedAt,
			m.SettledAt,
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, bet.ErrBetExists)
	})
}

func (m *model) dbUpdate(ctx context.Context, db *sqlx.DB) error {
	query := `UPDATE ` + tableName + `
		SET status = $3, payout = $4, settled_at = $5
		WHERE match_id = $1 AND bettor = $2 AND status = $6
		RETURNING id, address, bump, match_id, bettor, amount, selected_outcome, status, payout, created_at, settled_at`

	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(
			ctx,
			query,
			m.MatchID,
			m.Bettor,
			m.Status,
			m.Payout,
			m.SettledAt,
			int(bet.StatusOpen),
		).StructScan(m)
		if err == nil {
			return nil
		}

		if !pgutil.IsNoRows(err) {
			return err
		}

		// Disambiguate a closed bet from a missing record
		var exists bool
		existsErr := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM `+tableName+` WHERE match_id = $1 AND bettor = $2)`, m.MatchID, m.Bettor)
		if existsErr != nil {
			return existsErr
		}
		if exists {
			return bet.ErrBetNotOpen
		}
		return bet.ErrBetNotFound
	})
}

func dbGet(ctx context.Context, db *sqlx.DB, matchID, bettor string) (*model, error) {
	var res model

	query := `SELECT id, address, bump, match_id, bettor, amount, selected_outcome, status, payout, created_at, settled_at FROM ` + tableName + `
		WHERE match_id = $1 AND bettor = $2
	`

	err := db.GetContext(ctx, &res, query, matchID, bettor)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, bet.ErrBetNotFound)
	}
	return &res, nil
}

func dbGetByAddress(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	var res model

	query := `SELECT id, address, bump, match_id, bettor, amount, selected_outcome, status, payout, created_at, settled_at FROM ` + tableName + `
		WHERE address = $1
	`

	err := db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, bet.ErrBetNotFound)
	}
	return &res, nil
}

func dbGetAllByMatch(ctx context.Context, db *sqlx.DB, matchID string) ([]*model, error) {
	res := []*model{}

	query := `SELECT id, address, bump, match_id, bettor, amount, selected_outcome, status, payout, created_at, settled_at FROM ` + tableName + `
		WHERE match_id = $1
		ORDER BY id ASC
	`

	err := db.SelectContext(ctx, &res, query, matchID)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, bet.ErrBetNotFound)
	}

	if len(res) == 0 {
		return nil, bet.ErrBetNotFound
	}
	return res, nil
}

func dbGetDistinctOpenMatchIDs(ctx context.Context, db *sqlx.DB, limit uint64) ([]string, error) {
	res := []string{}

	query := `SELECT DISTINCT match_id FROM ` + tableName + `
		WHERE status = $1
		LIMIT $2
	`

	err := db.SelectContext(ctx, &res, query, int(bet.StatusOpen), limit)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, bet.ErrBetNotFound
	}
	return res, nil
}

func dbCountByStatus(ctx context.Context, db *sqlx.DB, status bet.Status) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + tableName + `
		WHERE status = $1
	`

	err := db.GetContext(ctx, &res, query, int(status))
	if err != nil {
		return 0, err
	}
	return res, nil
}
