package ledger

import (
	"context"

	"github.com/agentarena/escrow-server/pkg/escrow/common"
	ledgerstore "github.com/agentarena/escrow-server/pkg/escrow/data/ledger"
	"github.com/agentarena/escrow-server/pkg/escrow/derivation"
)

// getOrNewLedgerAccount loads the ledger account at the owner's derived
// address, or returns an unpersisted zero-balance record when absent. The
// caller persists the new record inside its own transaction.
func (s *Service) getOrNewLedgerAccount(ctx context.Context, owner *common.Account) (*ledgerstore.Record, bool, error) {
	derived, err := derivation.DeriveLedgerAddress(s.program.PublicKey().ToBytes(), owner.PublicKey().ToBytes())
	if err != nil {
		return nil, false, err
	}

	address, err := common.NewKeyFromBytes(derived.Address)
	if err != nil {
		return nil, false, err
	}

	record, err := s.data.GetLedgerAccountByAddress(ctx, address.ToBase58())
	if err == nil {
		if record.Owner != owner.PublicKey().ToBase58() {
			return nil, false, ErrOwnershipMismatch
		}
		return record, false, nil
	} else if err != ledgerstore.ErrLedgerAccountNotFound {
		return nil, false, err
	}

	now := s.now()
	return &ledgerstore.Record{
		Address: address.ToBase58(),
		Bump:    derived.Bump,
		Owner:   owner.PublicKey().ToBase58(),

		CreatedAt:     now,
		LastUpdatedAt: now,
	}, true, nil
}

// GetAccount reads the ledger account for an owner. Reads require no
// authorization, balances are public.
func (s *Service) GetAccount(ctx context.Context, owner *common.Key) (*ledgerstore.Record, error) {
	return s.data.GetLedgerAccountByOwner(ctx, owner.ToBase58())
}
