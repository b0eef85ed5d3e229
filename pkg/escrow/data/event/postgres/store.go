package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/agentarena/escrow-server/pkg/escrow/data/event"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres event.Store
func New(db *sql.DB) event.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Put implements event.Store.Put
func (s *store) Put(ctx context.Context, record *event.Record) error {
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

// Get implements event.Store.Get
func (s *store) Get(ctx context.Context, eventID string) (*event.Record, error) {
	model, err := dbGet(ctx, s.db, eventID)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetByTransferReference implements event.Store.GetByTransferReference
func (s *store) GetByTransferReference(ctx context.Context, reference string) (*event.Record, error) {
	model, err := dbGetByTransferReference(ctx, s.db, reference)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// GetAllByOwner implements event.Store.GetAllByOwner
func (s *store) GetAllByOwner(ctx context.Context, owner string, limit uint64) ([]*event.Record, error) {
	models, err := dbGetAllByOwner(ctx, s.db, owner, limit)
	if err != nil {
		return nil, err
	}

	res := make([]*event.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}

// GetBatchByDeliveryState implements event.Store.GetBatchByDeliveryState
func (s *store) GetBatchByDeliveryState(ctx context.Context, state event.DeliveryState, limit uint64) ([]*event.Record, error) {
	models, err := dbGetBatchByDeliveryState(ctx, s.db, state, limit)
	if err != nil {
		return nil, err
	}

	res := make([]*event.Record, len(models))
	for i, model := range models {
		res[i] = fromModel(model)
	}
	return res, nil
}

// MarkPublished implements event.Store.MarkPublished
func (s *store) MarkPublished(ctx context.Context, eventID string) error {
	return dbMarkPublished(ctx, s.db, eventID)
}
