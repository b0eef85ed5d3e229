package ledger

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agentarena/escrow-server/pkg/escrow/common"
	"github.com/agentarena/escrow-server/pkg/escrow/data/event"
	ledgerstore "github.com/agentarena/escrow-server/pkg/escrow/data/ledger"
	"github.com/agentarena/escrow-server/pkg/retry"
)

// Deposit credits an owner's ledger account with value moved in by the
// funding transfer identified by transferReference. The ledger account is
// created on first deposit. Resubmitting an applied transfer surfaces as
// ErrAlreadyProcessed, never a double credit.
func (s *Service) Deposit(ctx context.Context, owner *common.Account, amount uint64, transferReference string) error {
	log := s.log.WithFields(logrus.Fields{
		"method": "Deposit",
		"owner":  owner.PublicKey().ToBase58(),
		"amount": amount,
	})

	if !owner.CanSign() {
		return ErrUnauthorizedSigner
	}

	if len(transferReference) == 0 {
		return ErrInvalidTransferReference
	}

	if err := s.allowMutation(owner); err != nil {
		return err
	}

	platformRecord, err := s.getPlatformConfig(ctx)
	if err != nil {
		return err
	}

	if amount < platformRecord.MinimumDeposit {
		return ErrDepositBelowMinimum
	}
	if amount > platformRecord.MaximumDeposit {
		return ErrDepositAboveMaximum
	}

	_, err = retry.Retry(
		func() error {
			return s.data.ExecuteInTx(ctx, sql.LevelSerializable, func(ctx context.Context) error {
				_, err := s.data.GetLedgerEventByTransferReference(ctx, transferReference)
				if err == nil {
					return ErrAlreadyProcessed
				} else if err != event.ErrEventNotFound {
					return err
				}

				accountRecord, isNew, err := s.getOrNewLedgerAccount(ctx, owner)
				if err != nil {
					return err
				}

				previousBalance := accountRecord.Balance

				accountRecord.Balance += amount
				accountRecord.TotalDeposited += amount
				accountRecord.DepositCount++
				accountRecord.LastUpdatedAt = s.now()

				if isNew {
					if err := s.data.CreateLedgerAccount(ctx, accountRecord); err != nil {
						return err
					}

					err = s.data.CreateLedgerEvent(ctx, &event.Record{
						EventID:       uuid.New().String(),
						EventType:     event.TypeAccountCreated,
						Owner:         accountRecord.Owner,
						DeliveryState: event.DeliveryStatePending,
						CreatedAt:     s.now(),
					})
					if err != nil {
						return err
					}
				} else {
					if err := s.data.UpdateLedgerAccount(ctx, accountRecord); err != nil {
						return err
					}
				}

				err = s.data.CreateLedgerEvent(ctx, &event.Record{
					EventID:   uuid.New().String(),
					EventType: event.TypeDeposit,
					Owner:     accountRecord.Owner,

					Amount:          amount,
					PreviousBalance: previousBalance,
					NewBalance:      accountRecord.Balance,

					TransferReference: &transferReference,

					DeliveryState: event.DeliveryStatePending,
					CreatedAt:     s.now(),
				})
				if err == event.ErrDuplicateTransferReference {
					return ErrAlreadyProcessed
				}
				return err
			})
		},
		retry.Limit(3),
		retry.RetriableErrors(ledgerstore.ErrStaleLedgerAccount, ledgerstore.ErrLedgerAccountExists),
	)
	if err != nil && err != ErrAlreadyProcessed {
		log.WithError(err).Warn("failure applying deposit")
	}
	return err
}
