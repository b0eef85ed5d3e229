package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/agentarena/escrow-server/pkg/escrow/data/platform"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres platform.Store
func New(db *sql.DB) platform.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements platform.Store.Put
func (s *store) Put(ctx context.Context, record *platform.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	err = model.dbPut(ctx, s.db)
	if err != nil {
		return err
	}

	fromModel(model).CopyTo(record)

	return nil
}

// Get implements platform.Store.Get
func (s *store) Get(ctx context.Context, address string) (*platform.Record, error) {
	model, err := dbGet(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}
