package ledger

import (
	"bytes"
	"context"

	"github.com/sirupsen/logrus"

	"github.com/agentarena/escrow-server/pkg/escrow/common"
	betstore "github.com/agentarena/escrow-server/pkg/escrow/data/bet"
	ledgerstore "github.com/agentarena/escrow-server/pkg/escrow/data/ledger"
	"github.com/agentarena/escrow-server/pkg/escrow/data/platform"
	"github.com/agentarena/escrow-server/pkg/escrow/derivation"
	"github.com/agentarena/escrow-server/pkg/escrow/state"
)

// GetAccountData serves the account state at an address in the program's
// binary layout. The address is resolved against ledger accounts, bet
// escrows and the platform config in turn, and the stored bump is verified
// against the derivation before anything is served.
func (s *Service) GetAccountData(ctx context.Context, address *common.Key) ([]byte, error) {
	log := s.log.WithFields(logrus.Fields{
		"method":  "GetAccountData",
		"address": address.ToBase58(),
	})

	accountRecord, err := s.data.GetLedgerAccountByAddress(ctx, address.ToBase58())
	if err == nil {
		return s.marshalLedgerAccount(accountRecord, address)
	} else if err != ledgerstore.ErrLedgerAccountNotFound {
		log.WithError(err).Warn("failure getting ledger account record")
		return nil, err
	}

	betRecord, err := s.data.GetBetByAddress(ctx, address.ToBase58())
	if err == nil {
		return s.marshalBetAccount(betRecord, address)
	} else if err != betstore.ErrBetNotFound {
		log.WithError(err).Warn("failure getting bet record")
		return nil, err
	}

	platformDerived, err := derivation.DerivePlatformAddress(s.program.PublicKey().ToBytes())
	if err != nil {
		return nil, err
	}

	if bytes.Equal(platformDerived.Address, address.ToBytes()) {
		platformRecord, err := s.getPlatformConfig(ctx)
		if err != nil {
			if err != ErrPlatformNotInitialized {
				log.WithError(err).Warn("failure getting platform config record")
			}
			return nil, err
		}
		return marshalPlatformConfig(platformRecord)
	}

	return nil, ErrUnknownAccount
}

func (s *Service) marshalLedgerAccount(record *ledgerstore.Record, address *common.Key) ([]byte, error) {
	owner, err := common.NewKeyFromString(record.Owner)
	if err != nil {
		return nil, err
	}

	err = derivation.VerifyLedgerAddress(
		s.program.PublicKey().ToBytes(),
		owner.ToBytes(),
		address.ToBytes(),
		record.Bump,
	)
	if err != nil {
		return nil, err
	}

	var lastWithdrawalAt *int64
	if record.LastWithdrawalAt != nil {
		unix := record.LastWithdrawalAt.Unix()
		lastWithdrawalAt = &unix
	}

	marshalled := state.LedgerAccount{
		DataVersion: state.DataVersion1,

		Owner: owner.ToBytes(),
		Bump:  record.Bump,

		Balance:       record.Balance,
		LockedBalance: record.LockedBalance,

		TotalDeposited:  record.TotalDeposited,
		TotalWithdrawn:  record.TotalWithdrawn,
		DepositCount:    record.DepositCount,
		WithdrawalCount: record.WithdrawalCount,

		LastWithdrawalAt: lastWithdrawalAt,
		CreatedAt:        record.CreatedAt.Unix(),
		LastUpdatedAt:    record.LastUpdatedAt.Unix(),
	}
	return marshalled.Marshal(), nil
}

func (s *Service) marshalBetAccount(record *betstore.Record, address *common.Key) ([]byte, error) {
	bettor, err := common.NewKeyFromString(record.Bettor)
	if err != nil {
		return nil, err
	}

	err = derivation.VerifyEscrowAddress(
		s.program.PublicKey().ToBytes(),
		bettor.ToBytes(),
		address.ToBytes(),
		record.MatchID,
		record.Bump,
	)
	if err != nil {
		return nil, err
	}

	var settledAt *int64
	if record.SettledAt != nil {
		unix := record.SettledAt.Unix()
		settledAt = &unix
	}

	marshalled := state.BetAccount{
		DataVersion: state.DataVersion1,

		Bettor: bettor.ToBytes(),
		Bump:   record.Bump,

		MatchID:         record.MatchID,
		Amount:          record.Amount,
		SelectedOutcome: record.SelectedOutcome,
		Status:          toStateBetStatus(record.Status),

		Payout: record.Payout,

		CreatedAt: record.CreatedAt.Unix(),
		SettledAt: settledAt,
	}
	return marshalled.Marshal(), nil
}

func marshalPlatformConfig(record *platform.Record) ([]byte, error) {
	admin, err := common.NewKeyFromString(record.Admin)
	if err != nil {
		return nil, err
	}

	marshalled := state.PlatformConfig{
		DataVersion: state.DataVersion1,

		Admin: admin.ToBytes(),
		Bump:  record.Bump,

		MinimumDeposit: record.MinimumDeposit,
		MaximumDeposit: record.MaximumDeposit,
		PlatformFeeBps: record.PlatformFeeBps,

		CreatedAt: record.CreatedAt.Unix(),
	}
	return marshalled.Marshal(), nil
}

func toStateBetStatus(status betstore.Status) state.BetStatus {
	switch status {
	case betstore.StatusOpen:
		return state.BetStatusOpen
	case betstore.StatusSettled:
		return state.BetStatusSettled
	case betstore.StatusRefunded:
		return state.BetStatusRefunded
	}
	return state.BetStatusUnknown
}
