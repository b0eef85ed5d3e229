package memory

import (
	"context"
	"sync"
	"time"

	"github.com/agentarena/escrow-server/pkg/escrow/data/platform"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*platform.Record
}

// New returns a new in memory platform.Store
func New() platform.Store {
	return &store{}
}

// Put implements platform.Store.Put
func (s *store) Put(_ context.Context, data *platform.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.find(data.Address); item != nil {
		return platform.ErrAlreadyInitialized
	}

	s.last++
	data.Id = s.last
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}

	cloned := data.Clone()
	s.records = append(s.records, &cloned)

	return nil
}

// Get implements platform.Store.Get
func (s *store) Get(_ context.Context, address string) (*platform.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(address)
	if item == nil {
		return nil, platform.ErrConfigNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

func (s *store) find(address string) *platform.Record {
	for _, item := range s.records {
		if item.Address == address {
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
