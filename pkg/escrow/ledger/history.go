package ledger

import (
	"context"

	"github.com/agentarena/escrow-server/pkg/escrow/common"
	"github.com/agentarena/escrow-server/pkg/escrow/data/event"
)

// GetEventHistory reads the most recent ledger events for an owner, newest
// first.
func (s *Service) GetEventHistory(ctx context.Context, owner *common.Key) ([]*event.Record, error) {
	return s.data.GetLedgerEventsByOwner(ctx, owner.ToBase58(), s.conf.eventHistoryPageSize.Get(ctx))
}
