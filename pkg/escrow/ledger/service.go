package ledger

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	xrate "golang.org/x/time/rate"

	"github.com/agentarena/escrow-server/pkg/escrow/common"
	escrow_data "github.com/agentarena/escrow-server/pkg/escrow/data"
	"github.com/agentarena/escrow-server/pkg/rate"
)

const (
	// WithdrawalCooldown is the flat per-account timer reset on every
	// successful withdrawal. It is an anti-drain throttle, not a liquidity
	// mechanism.
	WithdrawalCooldown = 24 * time.Hour
)

// Service executes ledger mutations. Every mutation runs as one atomic
// serializable unit: read state, validate against that exact state, write the
// new state plus its event in the same transaction.
type Service struct {
	log     *logrus.Entry
	conf    *conf
	data    escrow_data.DatabaseData
	limiter rate.Limiter

	// program anchors all address derivation. It never signs anything.
	program *common.Account

	now func() time.Time
}

func New(data escrow_data.DatabaseData, program *common.Account, configProvider ConfigProvider) *Service {
	conf := configProvider()

	return &Service{
		log:     logrus.StandardLogger().WithField("type", "escrow/ledger/service"),
		conf:    conf,
		data:    data,
		limiter: rate.NewLocalRateLimiter(xrate.Limit(conf.mutationsPerSecondPerOwner.Get(context.Background()))),
		program: program,

		now: time.Now,
	}
}

func (s *Service) allowMutation(owner *common.Account) error {
	allowed, err := s.limiter.Allow(owner.PublicKey().ToBase58())
	if err != nil {
		s.log.WithError(err).Warn("failure checking rate limit, allowing mutation")
		return nil
	}

	if !allowed {
		return ErrRateLimited
	}
	return nil
}
