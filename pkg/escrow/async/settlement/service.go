package async_settlement

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agentarena/escrow-server/pkg/escrow/async"
	"github.com/agentarena/escrow-server/pkg/escrow/common"
	escrow_data "github.com/agentarena/escrow-server/pkg/escrow/data"
	"github.com/agentarena/escrow-server/pkg/escrow/ledger"
)

// Resolution is a match outcome reported by an oracle. Odds are a rational
// applied to each winning stake at settlement time.
type Resolution struct {
	Cancelled bool

	WinningOutcome    uint8
	PayoutNumerator   uint64
	PayoutDenominator uint64
}

// SettlementOracle reports match outcomes. The trust model is minimal: some
// authorized party reports the outcome once. ok is false while a match is
// still undecided.
type SettlementOracle interface {
	ResolveMatch(ctx context.Context, matchID string) (resolution *Resolution, ok bool, err error)
}

type service struct {
	log  *logrus.Entry
	conf *conf
	data escrow_data.DatabaseData
	core *ledger.Service

	// authority settles on behalf of the platform admin and must hold its
	// private key
	authority *common.Account

	oracle SettlementOracle
}

func New(data escrow_data.DatabaseData, core *ledger.Service, authority *common.Account, oracle SettlementOracle, configProvider ConfigProvider) async.Service {
	return &service{
		log:       logrus.StandardLogger().WithField("service", "settlement"),
		conf:      configProvider(),
		data:      data,
		core:      core,
		authority: authority,
		oracle:    oracle,
	}
}

func (p *service) Start(ctx context.Context, interval time.Duration) error {
	go func() {
		err := p.settlementWorker(ctx, interval)
		if err != nil && err != context.Canceled {
			p.log.WithError(err).Warn("settlement processing loop terminated unexpectedly")
		}
	}()

	go func() {
		err := p.metricsGaugeWorker(ctx)
		if err != nil && err != context.Canceled {
			p.log.WithError(err).Warn("settlement metrics gauge loop terminated unexpectedly")
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	}
}
