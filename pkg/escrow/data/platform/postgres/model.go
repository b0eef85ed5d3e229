package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/agentarena/escrow-server/pkg/database/postgres"
	"github.com/agentarena/escrow-server/pkg/escrow/data/platform"
)

const (
	tableName = "agentarena__core_platformconfig"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`
	Bump    uint8  `db:"bump"`
	Admin   string `db:"admin"`

	MinimumDeposit uint64 `db:"minimum_deposit"`
	MaximumDeposit uint64 `db:"maximum_deposit"`
	PlatformFeeBps uint16 `db:"platform_fee_bps"`

	CreatedAt time.Time `db:"created_at"`
}

func toModel(obj *platform.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Address: obj.Address,
		Bump:    obj.Bump,
		Admin:   obj.Admin,

		MinimumDeposit: obj.MinimumDeposit,
		MaximumDeposit: obj.MaximumDeposit,
		PlatformFeeBps: obj.PlatformFeeBps,

		CreatedAt: obj.CreatedAt,
	}, nil
}

func fromModel(obj *model) *platform.Record {
	return &platform.Record{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,
		Bump:    obj.Bump,
		Admin:   obj.Admin,

		MinimumDeposit: obj.MinimumDeposit,
		MaximumDeposit: obj.MaximumDeposit,
		PlatformFeeBps: obj.PlatformFeeBps,

		CreatedAt: obj.CreatedAt,
	}
}

func (m *model) dbPut(ctx context.Context, db *sqlx.DB) error {
	query := `INSERT INTO ` + tableName + `
		(address, bump, admin, minimum_deposit, maximum_deposit, platform_fee_bps, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, address, bump, admin, minimum_deposit, maximum_deposit, platform_fee_bps, created_at`

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Bump,
			m.Admin,
			m.MinimumDeposit,
			m.MaximumDeposit,
			m.PlatformFeeBps,
			m.CreatedAt,
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, platform.ErrAlreadyInitialized)
	})
}

func dbGet(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	var res model

	query := `SELECT id, address, bump, admin, minimum_deposit, maximum_deposit, platform_fee_bps, created_at FROM ` + tableName + `
		WHERE address = $1
	`

	err := db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, platform.ErrConfigNotFound)
	}
	return &res, nil
}
