package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/agentarena/escrow-server/pkg/escrow/data/bet"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres bet.Store
func New(db *sql.DB) bet.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements bet.Store.Put
func (s *store) Put(ctx context.Context, record *bet.Record) error {
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

// Update implements bet.Store.Update
func (s *store) Update(ctx context.Context, record *bet.Record) error {
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

// Get implements bet.Store.Get
func (s *store) Get(ctx context.Context, matchID, bettor string) (*bet.Record, error) {
	model, err := dbGet(ctx, s.db, matchID, bettor)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetByAddress implements bet.Store.GetByAddress
func (s *store) GetByAddress(ctx context.Context, address string) (*bet.Record, error) {
	model, err := dbGetByAddress(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetAllByMatch implements bet.Store.GetAllByMatch
func (s *store) GetAllByMatch(ctx context.Context, matchID string) ([]*bet.Record, error) {
	models, err := dbGetAllByMatch(ctx, s.db, matchID)
	if err != nil {
		return nil, err
	}

	res := make([]*bet.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}

// GetDistinctOpenMatchIDs implements bet.Store.GetDistinctOpenMatchIDs
func (s *store) GetDistinctOpenMatchIDs(ctx context.Context, limit uint64) ([]string, error) {
	return dbGetDistinctOpenMatchIDs(ctx, s.db, limit)
}

// CountByStatus implements bet.Store.CountByStatus
func (s *store) CountByStatus(ctx context.Context, status bet.Status) (uint64, error) {
	return dbCountByStatus(ctx, s.db, status)
}
