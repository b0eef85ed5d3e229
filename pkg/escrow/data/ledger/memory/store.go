package memory

import (
	"context"
	"sync"
	"time"

	"github.com/agentarena/escrow-server/pkg/escrow/data/ledger"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*ledger.Record
}

// New returns a new in memory ledger.Store
func New() ledger.Store {
	return &store{}
}

// Put implements ledger.Store.Put
func (s *store) Put(_ context.Context, data *ledger.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByAddress(data.Address); item != nil {
		return ledger.ErrLedgerAccountExists
	}
	if item := s.findByOwner(data.Owner); item != nil {
		return ledger.ErrLedgerAccountExists
	}

	s.last++
	data.Id = s.last
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}
	if data.LastUpdatedAt.IsZero() {
		data.LastUpdatedAt = data.CreatedAt
	}

	cloned := data.Clone()
	s.records = append(s.records, &cloned)

	return nil
}

// Update implements ledger.Store.Update
func (s *store) Update(_ context.Context, data *ledger.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByAddress(data.Address)
	if item == nil {
		return ledger.ErrLedgerAccountNotFound
	}

	if item.Version != data.Version {
		return ledger.ErrStaleLedgerAccount
	}

	data.Id = item.Id
	data.Version++
	data.LastUpdatedAt = time.Now()

	cloned := data.Clone()
	cloned.CopyTo(item)

	return nil
}

// GetByAddress implements ledger.Store.GetByAddress
func (s *store) GetByAddress(_ context.Context, address string) (*ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByAddress(address)
	if item == nil {
		return nil, ledger.ErrLedgerAccountNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetByOwner implements ledger.Store.GetByOwner
func (s *store) GetByOwner(_ context.Context, owner string) (*ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByOwner(owner)
	if item == nil {
		return nil, ledger.ErrLedgerAccountNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// Count implements ledger.Store.Count
func (s *store) Count(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return uint64(len(s.records)), nil
}

func (s *store) findByAddress(address string) *ledger.Record {
	for _, item := range s.records {
		if item.Address == address {
			return item
		}
	}
	return nil
}

func (s *store) findByOwner(owner string) *ledger.Record {
	for _, item := range s.records {
		if item.Owner == owner {
			return item
		}
	}
	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = 0
	s.records = nil
}
