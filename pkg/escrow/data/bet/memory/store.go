package memory

import (
	"context"
	"sync"
	"time"

	"github.com/agentarena/escrow-server/pkg/escrow/data/bet"
)

type store struct {
	mu      sync.Mutex
	last    uint64
	records []*bet.Record
}

// New returns a new in memory bet.Store
func New() bet.Store {
	return &store{}
}

// Put implements bet.Store.Put
func (s *store) Put(_ context.Context, data *bet.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.find(data.MatchID, data.Bettor); item != nil {
		return bet.ErrBetExists
	}
	if item := s.findByAddress(data.Address); item != nil {
		return bet.ErrBetExists
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

// Update implements bet.Store.Update
func (s *store) Update(_ context.Context, data *bet.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(data.MatchID, data.Bettor)
	if item == nil {
		return bet.ErrBetNotFound
	}

	if !item.IsOpen() {
		return bet.ErrBetNotOpen
	}

	data.Id = item.Id

	cloned := data.Clone()
	cloned.CopyTo(item)

	return nil
}

// Get implements bet.Store.Get
func (s *store) Get(_ context.Context, matchID, bettor string) (*bet.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.find(matchID, bettor)
	if item == nil {
		return nil, bet.ErrBetNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetByAddress implements bet.Store.GetByAddress
func (s *store) GetByAddress(_ context.Context, address string) (*bet.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByAddress(address)
	if item == nil {
		return nil, bet.ErrBetNotFound
	}

	cloned := item.Clone()
	return &cloned, nil
}

// GetAllByMatch implements bet.Store.GetAllByMatch
func (s *store) GetAllByMatch(_ context.Context, matchID string) ([]*bet.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*bet.Record
	for _, item := range s.records {
		if item.MatchID == matchID {
			cloned := item.Clone()
			res = append(res, &cloned)
		}
	}

	if len(res) == 0 {
		return nil, bet.ErrBetNotFound
	}
	return res, nil
}

// GetDistinctOpenMatchIDs implements bet.Store.GetDistinctOpenMatchIDs
func (s *store) GetDistinctOpenMatchIDs(_ context.Context, limit uint64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	var res []string
	for _, item := range s.records {
		if !item.IsOpen() {
			continue
		}
		if _, ok := seen[item.MatchID]; ok {
			continue
		}

		seen[item.MatchID] = struct{}{}
		res = append(res, item.MatchID)

		if uint64(len(res)) >= limit {
			break
		}
	}

	if len(res) == 0 {
		return nil, bet.ErrBetNotFound
	}
	return res, nil
}

// CountByStatus implements bet.Store.CountByStatus
func (s *store) CountByStatus(_ context.Context, status bet.Status) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res uint64
	for _, item := range s.records {
		if item.Status == status {
			res++
		}
	}
	return res, nil
}

func (s *store) find(matchID, bettor string) *bet.Record {
	for _, item := range s.records {
		if item.MatchID == matchID && item.Bettor == bettor {
			return item
		}
	}
	return nil
}

func (s *store) findByAddress(address string) *bet.Record {
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
