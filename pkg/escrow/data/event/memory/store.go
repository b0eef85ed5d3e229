package memory

import (
	"context"
	"sync"
	"time"

	"github.com/agentarena/escrow-server/pkg/escrow/data/event"
)

type store struct {
	mu      sync.Mutex
	records []*event.Record
	last    uint64
}

// New returns a new in memory event.Store
func New() event.Store {
	return &store{}
}

// Put implements event.Store.Put
func (s *store) Put(_ context.Context, data *event.Record) error {
	if err := data.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.last++

	if item := s.findByEventID(data.EventID); item != nil {
		return event.ErrEventExists
	}

	if data.TransferReference != nil {
		if item := s.findByTransferReference(*data.TransferReference); item != nil {
			return event.ErrDuplicateTransferReference
		}
	}

	data.Id = s.last
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}

	cloned := data.Clone()
	s.records = append(s.records, &cloned)

	return nil
}

// Get implements event.Store.Get
func (s *store) Get(_ context.Context, eventID string) (*event.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByEventID(eventID); item != nil {
		cloned := item.Clone()
		return &cloned, nil
	}

	return nil, event.ErrEventNotFound
}

// GetByTransferReference implements event.Store.GetByTransferReference
func (s *store) GetByTransferReference(_ context.Context, reference string) (*event.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item := s.findByTransferReference(reference); item != nil {
		cloned := item.Clone()
		return &cloned, nil
	}

	return nil, event.ErrEventNotFound
}

// GetAllByOwner implements event.Store.GetAllByOwner
func (s *store) GetAllByOwner(_ context.Context, owner string, limit uint64) ([]*event.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*event.Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Owner != owner {
			continue
		}

		cloned := s.records[i].Clone()
		res = append(res, &cloned)

		if uint64(len(res)) >= limit {
			break
		}
	}

	if len(res) == 0 {
		return nil, event.ErrEventNotFound
	}

	return res, nil
}

// GetBatchByDeliveryState implements event.Store.GetBatchByDeliveryState
func (s *store) GetBatchByDeliveryState(_ context.Context, state event.DeliveryState, limit uint64) ([]*event.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res []*event.Record
	for _, item := range s.records {
		if item.DeliveryState != state {
			continue
		}

		cloned := item.Clone()
		res = append(res, &cloned)

		if uint64(len(res)) >= limit {
			break
		}
	}

	if len(res) == 0 {
		return nil, event.ErrEventNotFound
	}

	return res, nil
}

// MarkPublished implements event.Store.MarkPublished
func (s *store) MarkPublished(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.findByEventID(eventID)
	if item == nil {
		return event.ErrEventNotFound
	}

	if item.DeliveryState == event.DeliveryStatePublished {
		return nil
	}

	publishedAt := time.Now()
	item.DeliveryState = event.DeliveryStatePublished
	item.PublishedAt = &publishedAt

	return nil
}

func (s *store) findByEventID(eventID string) *event.Record {
	for _, item := range s.records {
		if item.EventID == eventID {
			return item
		}
	}

	return nil
}

func (s *store) findByTransferReference(reference string) *event.Record {
	for _, item := range s.records {
		if item.TransferReference != nil && *item.TransferReference == reference {
			return item
		}
	}

	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.last = 0
}
