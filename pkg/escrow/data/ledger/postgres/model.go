package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/agentarena/escrow-server/pkg/database/postgres"
	"github.com/agentarena/escrow-server/pkg/escrow/data/ledger"
)

const (
	tableName = "agentarena__core_ledgeraccount"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`
	Bump    uint8  `db:"bump"`
	Owner   string `db:"owner"`

	Balance       uint64 `db:"balance"`
	LockedBalance uint64 `db:"locked_balance"`

	TotalDeposited  uint64 `db:"total_deposited"`
	TotalWithdrawn  uint64 `db:"total_withdrawn"`
	DepositCount    uint64 `db:"deposit_count"`
	WithdrawalCount uint64 `db:"withdrawal_count"`

	LastWithdrawalAt sql.NullTime `db:"last_withdrawal_at"`

	Version uint64 `db:"version"`

	CreatedAt     time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *ledger.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	m := &model{
		Address: obj.Address,
		Bump:    obj.Bump,
		Owner:   obj.Owner,

		Balance:       obj.Balance,
		LockedBalance: obj.LockedBalance,

		TotalDeposited:  obj.TotalDeposited,
		TotalWithdrawn:  obj.TotalWithdrawn,
		DepositCount:    obj.DepositCount,
		WithdrawalCount: obj.WithdrawalCount,

		Version: obj.Version,

		CreatedAt:     obj.CreatedAt,
		LastUpdatedAt: obj.LastUpdatedAt,
	}

	if obj.LastWithdrawalAt != nil {
		m.LastWithdrawalAt = sql.NullTime{
			Time:  *obj.LastWithdrawalAt,
			Valid: true,
		}
	}

	return m, nil
}

func fromModel(obj *model) *ledger.Record {
	record := &ledger.Record{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,
		Bump:    obj.Bump,
		Owner:   obj.Owner,

		Balance:       obj.Balance,
		LockedBalance: obj.LockedBalance,

		TotalDeposited:  obj.TotalDeposited,
		TotalWithdrawn:  obj.TotalWithdrawn,
		DepositCount:    obj.DepositCount,
		WithdrawalCount: obj.WithdrawalCount,

		Version: obj.Version,

		CreatedAt:     obj.CreatedAt,
		LastUpdatedAt: obj.LastUpdatedAt,
	}

	if obj.LastWithdrawalAt.Valid {
		lastWithdrawalAt := obj.LastWithdrawalAt.Time
		record.LastWithdrawalAt = &lastWithdrawalAt
	}

	return record
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	query := `INSERT INTO ` + tableName + `
		(address, bump, owner, balance, locked_balance, total_deposited, total_withdrawn, deposit_count, withdrawal_count, last_withdrawal_at, version, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, address, bump, owner, balance, locked_balance, total_deposited, total_withdrawn, deposit_count, withdrawal_count, last_withdrawal_at, version, created_at, last_updated_at`

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.LastUpdatedAt.IsZero() {
		m.LastUpdatedAt = m.CreatedAt
	}

	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Bump,
			m.Owner,
			m.Balance,
			m.LockedBalance,
			m.TotalDeposited,
			m.TotalWithdrawn,
			m.DepositCount,
			m.WithdrawalCount,
			m.LastWithdrawalAt,
			m.Version,
			m.CreatedAt,
			m.LastUpdatedAt,
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, ledger.ErrLedgerAccountExists)
	})
}

func (m *model) dbUpdate(ctx context.Context, db *sqlx.DB) error {
	query := `UPDATE ` + tableName + `
		SET balance = $3, locked_balance = $4, total_deposited = $5, total_withdrawn = $6, deposit_count = $7, withdrawal_count = $8, last_withdrawal_at = $9, version = version + 1, last_updated_at = $10
		WHERE address = $1 AND version = $2
		RETURNING id, address, bump, owner, balance, locked_balance, total_deposited, total_withdrawn, deposit_count, withdrawal_count, last_withdrawal_at, version, created_at, last_updated_at`

	m.LastUpdatedAt = time.Now()

	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Version,
			m.Balance,
			m.LockedBalance,
			m.TotalDeposited,
			m.TotalWithdrawn,
			m.DepositCount,
			m.WithdrawalCount,
			m.LastWithdrawalAt,
			m.LastUpdatedAt,
		).StructScan(m)
		if err == nil {
			return nil
		}

		if !pgutil.IsNoRows(err) {
			return err
		}

		// Disambiguate a lost CAS race from a missing record
		var exists bool
		existsErr := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM `+tableName+` WHERE address = $1)`, m.Address)
		if existsErr != nil {
			return existsErr
		}
		if exists {
			return ledger.ErrStaleLedgerAccount
		}
		return ledger.ErrLedgerAccountNotFound
	})
}

func dbGetByAddress(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	var res model

	query := `SELECT id, address, bump, owner, balance, locked_balance, total_deposited, total_withdrawn, deposit_count, withdrawal_count, last_withdrawal_at, version, created_at, last_updated_at FROM ` + tableName + `
		WHERE address = $1
	`

	err := db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, ledger.ErrLedgerAccountNotFound)
	}
	return &res, nil
}

func dbGetByOwner(ctx context.Context, db *sqlx.DB, owner string) (*model, error) {
	var res model

	query := `SELECT id, address, bump, owner, balance, locked_balance, total_deposited, total_withdrawn, deposit_count, withdrawal_count, last_withdrawal_at, version, created_at, last_updated_at FROM ` + tableName + `
		WHERE owner = $1
	`

	err := db.GetContext(ctx, &res, query, owner)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, ledger.ErrLedgerAccountNotFound)
	}
	return &res, nil
}

func dbCount(ctx context.Context, db *sqlx.DB) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + tableName

	err := db.GetContext(ctx, &res, query)
	if err != nil {
		return 0, err
	}
	return res, nil
}
