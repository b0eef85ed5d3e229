package ledger

import (
	"context"
	"database/sql"
	"math/bits"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agentarena/escrow-server/pkg/escrow/common"
	betstore "github.com/agentarena/escrow-server/pkg/escrow/data/bet"
	"github.com/agentarena/escrow-server/pkg/escrow/data/event"
	ledgerstore "github.com/agentarena/escrow-server/pkg/escrow/data/ledger"
	"github.com/agentarena/escrow-server/pkg/escrow/derivation"
	"github.com/agentarena/escrow-server/pkg/pointer"
	"github.com/agentarena/escrow-server/pkg/retry"
)

// PlaceBet pledges amount from the bettor's available balance to an open
// wager on a match. The amount stays in the account's balance but moves into
// the locked category until settlement or refund.
func (s *Service) PlaceBet(ctx context.Context, bettor *common.Account, matchID string, amount uint64, selectedOutcome uint8) error {
	log := s.log.WithFields(logrus.Fields{
		"method": "PlaceBet",
		"bettor": bettor.PublicKey().ToBase58(),
		"match":  matchID,
		"amount": amount,
	})

	if !bettor.CanSign() {
		return ErrUnauthorizedSigner
	}

	if amount == 0 {
		return ErrInvalidAmount
	}

	if selectedOutcome == 0 {
		return ErrInvalidOutcome
	}

	if err := s.allowMutation(bettor); err != nil {
		return err
	}

	derived, err := derivation.DeriveEscrowAddress(s.program.PublicKey().ToBytes(), bettor.PublicKey().ToBytes(), matchID)
	if err != nil {
		return err
	}

	escrowAddress, err := common.NewKeyFromBytes(derived.Address)
	if err != nil {
		return err
	}

	_, err = retry.Retry(
		func() error {
			return s.data.ExecuteInTx(ctx, sql.LevelSerializable, func(ctx context.Context) error {
				accountRecord, err := s.data.GetLedgerAccountByOwner(ctx, bettor.PublicKey().ToBase58())
				if err != nil {
					return err
				}

				available := accountRecord.AvailableBalance()
				if amount > available {
					return newInsufficientAvailableBalanceError(available, amount)
				}

				err = s.data.CreateBet(ctx, &betstore.Record{
					Address: escrowAddress.ToBase58(),
					Bump:    derived.Bump,

					MatchID: matchID,
					Bettor:  accountRecord.Owner,

					Amount:          amount,
					SelectedOutcome: selectedOutcome,
					Status:          betstore.StatusOpen,

					CreatedAt: s.now(),
				})
				if err != nil {
					return err
				}

				previousBalance := accountRecord.Balance

				accountRecord.LockedBalance += amount
				accountRecord.LastUpdatedAt = s.now()

				if err := s.data.UpdateLedgerAccount(ctx, accountRecord); err != nil {
					return err
				}

				return s.data.CreateLedgerEvent(ctx, &event.Record{
					EventID:   uuid.New().String(),
					EventType: event.TypeBetPlaced,
					Owner:     accountRecord.Owner,

					Amount:          amount,
					PreviousBalance: previousBalance,
					NewBalance:      accountRecord.Balance,

					MatchID: &matchID,

					DeliveryState: event.DeliveryStatePending,
					CreatedAt:     s.now(),
				})
			})
		},
		retry.Limit(3),
		retry.RetriableErrors(ledgerstore.ErrStaleLedgerAccount),
	)
	if err != nil && err != betstore.ErrBetExists && err != ledgerstore.ErrLedgerAccountNotFound {
		if _, ok := err.(*InsufficientAvailableBalanceError); !ok {
			log.WithError(err).Warn("failure placing bet")
		}
	}
	return err
}

// SettleMatch resolves every open bet on a match exactly once. Winners are
// credited amount scaled by the reported odds, less the platform fee. Losers
// forfeit their stake. Either way the locked amount is released.
func (s *Service) SettleMatch(ctx context.Context, authority *common.Account, matchID string, winningOutcome uint8, payoutNumerator, payoutDenominator uint64) error {
	log := s.log.WithFields(logrus.Fields{
		"method": "SettleMatch",
		"match":  matchID,
	})

	if winningOutcome == 0 {
		return ErrInvalidOutcome
	}

	if payoutNumerator == 0 || payoutDenominator == 0 {
		return ErrInvalidOdds
	}

	platformRecord, err := s.getPlatformConfig(ctx)
	if err != nil {
		return err
	}

	if err := s.requireAdmin(authority, platformRecord.Admin); err != nil {
		return err
	}

	_, err = retry.Retry(
		func() error {
			return s.data.ExecuteInTx(ctx, sql.LevelSerializable, func(ctx context.Context) error {
				bets, err := s.data.GetAllBetsByMatch(ctx, matchID)
				if err != nil {
					return err
				}

				var anyOpen bool
				for _, betRecord := range bets {
					if !betRecord.IsOpen() {
						continue
					}
					anyOpen = true

					var payout *uint64
					if betRecord.SelectedOutcome == winningOutcome {
						winnings, err := mulDiv(betRecord.Amount, payoutNumerator, payoutDenominator)
						if err != nil {
							return err
						}

						fee, err := mulDiv(winnings, uint64(platformRecord.PlatformFeeBps), 10000)
						if err != nil {
							return err
						}

						payout = pointer.Uint64(winnings - fee)
					}

					err := s.closeBet(ctx, betRecord, betstore.StatusSettled, payout, event.TypeBetSettled)
					if err != nil {
						return err
					}
				}

				if !anyOpen {
					return ErrAlreadySettled
				}
				return nil
			})
		},
		retry.Limit(3),
		retry.RetriableErrors(ledgerstore.ErrStaleLedgerAccount),
	)
	if err != nil && err != ErrAlreadySettled && err != betstore.ErrBetNotFound {
		log.WithError(err).Warn("failure settling match")
	}
	return err
}

// RefundMatch releases every open bet on a cancelled match back to its
// bettor with no fee.
func (s *Service) RefundMatch(ctx context.Context, authority *common.Account, matchID string) error {
	log := s.log.WithFields(logrus.Fields{
		"method": "RefundMatch",
		"match":  matchID,
	})

	platformRecord, err := s.getPlatformConfig(ctx)
	if err != nil {
		return err
	}

	if err := s.requireAdmin(authority, platformRecord.Admin); err != nil {
		return err
	}

	_, err = retry.Retry(
		func() error {
			return s.data.ExecuteInTx(ctx, sql.LevelSerializable, func(ctx context.Context) error {
				bets, err := s.data.GetAllBetsByMatch(ctx, matchID)
				if err != nil {
					return err
				}

				var anyOpen bool
				for _, betRecord := range bets {
					if !betRecord.IsOpen() {
						continue
					}
					anyOpen = true

					err := s.closeBet(ctx, betRecord, betstore.StatusRefunded, nil, event.TypeBetRefunded)
					if err != nil {
						return err
					}
				}

				if !anyOpen {
					return ErrAlreadySettled
				}
				return nil
			})
		},
		retry.Limit(3),
		retry.RetriableErrors(ledgerstore.ErrStaleLedgerAccount),
	)
	if err != nil && err != ErrAlreadySettled && err != betstore.ErrBetNotFound {
		log.WithError(err).Warn("failure refunding match")
	}
	return err
}

// mulDiv computes a * b / c with a 128-bit intermediate product, so scaling
// a full-range amount by odds or fee basis points cannot silently truncate.
// ErrInvalidOdds is returned when the quotient itself exceeds 64 bits.
func mulDiv(a, b, c uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, ErrInvalidOdds
	}

	quo, _ := bits.Div64(hi, lo, c)
	return quo, nil
}

func (s *Service) requireAdmin(authority *common.Account, admin string) error {
	if !authority.CanSign() {
		return ErrUnauthorizedSigner
	}
	if authority.PublicKey().ToBase58() != admin {
		return ErrUnauthorizedSigner
	}
	return nil
}

// closeBet transitions one open bet to a terminal status and applies the
// balance effects to the bettor's account inside the caller's transaction.
// A nil payout on settlement means the bet lost and the stake is forfeited.
func (s *Service) closeBet(ctx context.Context, betRecord *betstore.Record, status betstore.Status, payout *uint64, eventType event.Type) error {
	accountRecord, err := s.data.GetLedgerAccountByOwner(ctx, betRecord.Bettor)
	if err != nil {
		return err
	}

	previousBalance := accountRecord.Balance
	now := s.now()

	accountRecord.LockedBalance -= betRecord.Amount
	switch status {
	case betstore.StatusSettled:
		if payout != nil {
			accountRecord.Balance += *payout
		} else {
			accountRecord.Balance -= betRecord.Amount
		}
	case betstore.StatusRefunded:
	}
	accountRecord.LastUpdatedAt = now

	betRecord.Status = status
	betRecord.SettledAt = &now
	if status == betstore.StatusSettled {
		betRecord.Payout = payout
	}

	if err := s.data.UpdateBet(ctx, betRecord); err != nil {
		return err
	}

	if err := s.data.UpdateLedgerAccount(ctx, accountRecord); err != nil {
		return err
	}

	return s.data.CreateLedgerEvent(ctx, &event.Record{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Owner:     accountRecord.Owner,

		Amount:          betRecord.Amount,
		PreviousBalance: previousBalance,
		NewBalance:      accountRecord.Balance,

		MatchID: &betRecord.MatchID,

		DeliveryState: event.DeliveryStatePending,
		CreatedAt:     now,
	})
}
