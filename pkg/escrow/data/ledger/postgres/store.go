package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/agentarena/escrow-server/pkg/escrow/data/ledger"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres ledger.Store
func New(db *sql.DB) ledger.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements ledger.Store.Put
func (s *store) Put(ctx context.Context, record *ledger.Record) error {
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

// Update implements ledger.Store.Update
func (s *store) Update(ctx context.Context, record *ledger.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	err = model.dbUpdate(ctx, s.db)
	if err != nil {
		return err
	}

	fromModel(model).CopyTo(record)

	return nil
}

// GetByAddress implements ledger.Store.GetByAddress
func (s *store) GetByAddress(ctx context.Context, address string) (*ledger.Record, error) {
	model, err := dbGetByAddress(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetByOwner implements ledger.Store.GetByOwner
func (s *store) GetByOwner(ctx context.Context, owner string) (*ledger.Record, error) {
	model, err := dbGetByOwner(ctx, s.db, owner)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// Count implements ledger.Store.Count
func (s *store) Count(ctx context.Context) (uint64, error) {
	return dbCount(ctx, s.db)
}
