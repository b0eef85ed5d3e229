package async_settlement

import (
	"context"
	"time"

	betstore "github.com/agentarena/escrow-server/pkg/escrow/data/bet"
	"github.com/agentarena/escrow-server/pkg/metrics"
)

const (
	openBetsEventName = "OpenBetsPollingCheck"
)

func (p *service) metricsGaugeWorker(ctx context.Context) error {
	delay := time.Second

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			start := time.Now()

			p.recordOpenBetsPollingEvent(ctx)

			delay = time.Second - time.Since(start)
		}
	}
}

func (p *service) recordOpenBetsPollingEvent(ctx context.Context) {
	openCount, err := p.data.GetBetCountByStatus(ctx, betstore.StatusOpen)
	if err != nil {
		return
	}

	accountCount, err := p.data.GetLedgerAccountCount(ctx)
	if err != nil {
		return
	}

	metrics.RecordEvent(ctx, openBetsEventName, map[string]interface{}{
		"open_bets":       openCount,
		"ledger_accounts": accountCount,
	})
}
