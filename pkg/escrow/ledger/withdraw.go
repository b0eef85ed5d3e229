package ledger

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agentarena/escrow-server/pkg/escrow/common"
	"github.com/agentarena/escrow-server/pkg/escrow/data/event"
	ledgerstore "github.com/agentarena/escrow-server/pkg/escrow/data/ledger"
	"github.com/agentarena/escrow-server/pkg/escrow/derivation"
	"github.com/agentarena/escrow-server/pkg/retry"
)

// Withdraw debits an owner's ledger account and releases value to the
// destination address, or back to the owner when destination is nil. Funds
// pledged to open bets are never withdrawable, and successive withdrawals by
// the same account are throttled by WithdrawalCooldown.
func (s *Service) Withdraw(ctx context.Context, owner *common.Account, amount uint64, destination *common.Key) error {
	// The signer check and the record ownership check below are separate.
	// A valid signer can still target a ledger account it doesn't own.
	if !owner.CanSign() {
		return ErrUnauthorizedSigner
	}

	if amount == 0 {
		return ErrInvalidAmount
	}

	if destination == nil {
		destination = owner.PublicKey()
	}

	log := s.log.WithFields(logrus.Fields{
		"method":      "Withdraw",
		"owner":       owner.PublicKey().ToBase58(),
		"amount":      amount,
		"destination": destination.ToBase58(),
	})

	if err := s.allowMutation(owner); err != nil {
		return err
	}

	derived, err := derivation.DeriveLedgerAddress(s.program.PublicKey().ToBytes(), owner.PublicKey().ToBytes())
	if err != nil {
		return err
	}

	address, err := common.NewKeyFromBytes(derived.Address)
	if err != nil {
		return err
	}

	transferReference := uuid.New().String()

	_, err = retry.Retry(
		func() error {
			return s.data.ExecuteInTx(ctx, sql.LevelSerializable, func(ctx context.Context) error {
				accountRecord, err := s.data.GetLedgerAccountByAddress(ctx, address.ToBase58())
				if err != nil {
					return err
				}

				if accountRecord.Owner != owner.PublicKey().ToBase58() {
					return ErrOwnershipMismatch
				}

				available := accountRecord.AvailableBalance()
				if amount > available {
					return newInsufficientAvailableBalanceError(available, amount)
				}

				now := s.now()
				if accountRecord.LastWithdrawalAt != nil {
					if elapsed := now.Sub(*accountRecord.LastWithdrawalAt); elapsed < WithdrawalCooldown {
						return newCooldownActiveError(WithdrawalCooldown - elapsed)
					}
				}

				previousBalance := accountRecord.Balance

				accountRecord.Balance -= amount
				accountRecord.TotalWithdrawn += amount
				accountRecord.WithdrawalCount++
				accountRecord.LastWithdrawalAt = &now
				accountRecord.LastUpdatedAt = now

				if err := s.data.UpdateLedgerAccount(ctx, accountRecord); err != nil {
					return err
				}

				return s.data.CreateLedgerEvent(ctx, &event.Record{
					EventID:   uuid.New().String(),
					EventType: event.TypeWithdrawal,
					Owner:     accountRecord.Owner,

					Amount:          amount,
					PreviousBalance: previousBalance,
					NewBalance:      accountRecord.Balance,

					TransferReference: &transferReference,

					DeliveryState: event.DeliveryStatePending,
					CreatedAt:     s.now(),
				})
			})
		},
		retry.Limit(3),
		retry.RetriableErrors(ledgerstore.ErrStaleLedgerAccount),
	)
	if err != nil {
		switch err.(type) {
		case *InsufficientAvailableBalanceError, *CooldownActiveError:
		default:
			if err != ledgerstore.ErrLedgerAccountNotFound && err != ErrOwnershipMismatch {
				log.WithError(err).Warn("failure applying withdrawal")
			}
		}
	}

	return err
}
