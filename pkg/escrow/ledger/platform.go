package ledger

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agentarena/escrow-server/pkg/escrow/common"
	"github.com/agentarena/escrow-server/pkg/escrow/data/event"
	"github.com/agentarena/escrow-server/pkg/escrow/data/platform"
	"github.com/agentarena/escrow-server/pkg/escrow/derivation"
)

// InitializePlatform creates the platform configuration singleton. It is a
// one-time operation. Reinitialization is rejected, never merged.
func (s *Service) InitializePlatform(ctx context.Context, admin *common.Account, minimumDeposit, maximumDeposit uint64, platformFeeBps uint16) error {
	log := s.log.WithFields(logrus.Fields{
		"method": "InitializePlatform",
		"admin":  admin.PublicKey().ToBase58(),
	})

	if !admin.CanSign() {
		return ErrUnauthorizedSigner
	}

	if minimumDeposit == 0 || minimumDeposit >= maximumDeposit {
		return ErrInvalidDepositLimits
	}

	if platformFeeBps > platform.MaxPlatformFeeBps {
		return ErrInvalidPlatformFee
	}

	derived, err := derivation.DerivePlatformAddress(s.program.PublicKey().ToBytes())
	if err != nil {
		log.WithError(err).Warn("failure deriving platform config address")
		return err
	}

	address, err := common.NewKeyFromBytes(derived.Address)
	if err != nil {
		return err
	}

	err = s.data.ExecuteInTx(ctx, sql.LevelSerializable, func(ctx context.Context) error {
		err := s.data.InitializePlatformConfig(ctx, &platform.Record{
			Address: address.ToBase58(),
			Bump:    derived.Bump,
			Admin:   admin.PublicKey().ToBase58(),

			MinimumDeposit: minimumDeposit,
			MaximumDeposit: maximumDeposit,
			PlatformFeeBps: platformFeeBps,

			CreatedAt: s.now(),
		})
		if err != nil {
			return err
		}

		return s.data.CreateLedgerEvent(ctx, &event.Record{
			EventID:       uuid.New().String(),
			EventType:     event.TypePlatformInitialized,
			Owner:         admin.PublicKey().ToBase58(),
			DeliveryState: event.DeliveryStatePending,
			CreatedAt:     s.now(),
		})
	})
	if err != nil && err != platform.ErrAlreadyInitialized {
		log.WithError(err).Warn("failure initializing platform config")
	}
	return err
}

// getPlatformConfig loads the singleton at its derived address
func (s *Service) getPlatformConfig(ctx context.Context) (*platform.Record, error) {
	derived, err := derivation.DerivePlatformAddress(s.program.PublicKey().ToBytes())
	if err != nil {
		return nil, err
	}

	address, err := common.NewKeyFromBytes(derived.Address)
	if err != nil {
		return nil, err
	}

	record, err := s.data.GetPlatformConfig(ctx, address.ToBase58())
	if err == platform.ErrConfigNotFound {
		return nil, ErrPlatformNotInitialized
	} else if err != nil {
		return nil, err
	}
	return record, nil
}
