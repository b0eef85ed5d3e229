package async_settlement

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	betstore "github.com/agentarena/escrow-server/pkg/escrow/data/bet"
	"github.com/agentarena/escrow-server/pkg/escrow/ledger"
	"github.com/agentarena/escrow-server/pkg/metrics"
	"github.com/agentarena/escrow-server/pkg/retry"
)

func (p *service) settlementWorker(serviceCtx context.Context, interval time.Duration) error {
	delay := interval

	err := retry.Loop(
		func() (err error) {
			time.Sleep(delay)

			nr := serviceCtx.Value(metrics.NewRelicContextKey).(*newrelic.Application)
			m := nr.StartTransaction("async__settlement_service__handle_open_matches")
			defer m.End()
			tracedCtx := newrelic.NewContext(serviceCtx, m)

			matchIDs, err := p.data.GetDistinctOpenMatchIDs(tracedCtx, p.conf.matchBatchSize.Get(tracedCtx))
			if err == betstore.ErrBetNotFound {
				return nil
			} else if err != nil {
				m.NoticeError(err)
				return err
			}

			for _, matchID := range matchIDs {
				err := p.maybeSettleMatch(tracedCtx, matchID)
				if err != nil {
					m.NoticeError(err)
				}
			}

			return nil
		},
		retry.NonRetriableErrors(context.Canceled),
	)

	return err
}

// maybeSettleMatch asks the oracle for an outcome and applies it. Matches the
// oracle hasn't decided yet are skipped and polled again later.
func (p *service) maybeSettleMatch(ctx context.Context, matchID string) error {
	log := p.log.WithFields(logrus.Fields{
		"method": "maybeSettleMatch",
		"match":  matchID,
	})

	resolution, ok, err := p.oracle.ResolveMatch(ctx, matchID)
	if err != nil {
		log.WithError(err).Warn("failure resolving match outcome")
		return err
	}

	if !ok {
		log.Trace("match is still undecided")
		return nil
	}

	if resolution.Cancelled {
		err = p.core.RefundMatch(ctx, p.authority, matchID)
	} else {
		err = p.core.SettleMatch(ctx, p.authority, matchID, resolution.WinningOutcome, resolution.PayoutNumerator, resolution.PayoutDenominator)
	}

	// Another keeper won the race to settle this match
	if err == ledger.ErrAlreadySettled {
		return nil
	}

	if err != nil {
		log.WithError(err).Warn("failure applying match resolution")
	}
	return err
}
