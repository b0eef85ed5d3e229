package async_event

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"github.com/agentarena/escrow-server/pkg/escrow/data/event"
	"github.com/agentarena/escrow-server/pkg/metrics"
	"github.com/agentarena/escrow-server/pkg/retry"
)

func (p *service) publishWorker(serviceCtx context.Context, interval time.Duration) error {
	delay := interval

	err := retry.Loop(
		func() (err error) {
			time.Sleep(delay)

			nr := serviceCtx.Value(metrics.NewRelicContextKey).(*newrelic.Application)
			m := nr.StartTransaction("async__event_publisher_service__publish_pending")
			defer m.End()
			tracedCtx := newrelic.NewContext(serviceCtx, m)

			count, err := p.publishPendingBatch(tracedCtx)
			if err != nil {
				m.NoticeError(err)
				return err
			}

			if count > 0 {
				metrics.RecordCount(tracedCtx, "event_publisher__published", count)
			}

			return nil
		},
		retry.NonRetriableErrors(context.Canceled),
	)

	return err
}

// publishPendingBatch drains one batch of pending events in insertion order.
// A failed publish stops the batch so ordering per owner is preserved.
func (p *service) publishPendingBatch(ctx context.Context) (uint64, error) {
	records, err := p.data.GetLedgerEventBatchByDeliveryState(ctx, event.DeliveryStatePending, p.conf.batchSize.Get(ctx))
	if err == event.ErrEventNotFound {
		return 0, nil
	} else if err != nil {
		return 0, err
	}

	var published uint64
	for _, record := range records {
		log := p.log.WithFields(logrus.Fields{
			"method":     "publishPendingBatch",
			"event":      record.EventID,
			"event_type": record.EventType.String(),
		})

		if err := p.publisher.Publish(ctx, record); err != nil {
			log.WithError(err).Warn("failure publishing event")
			return published, nil
		}

		if err := p.data.MarkLedgerEventPublished(ctx, record.EventID); err != nil {
			log.WithError(err).Warn("failure marking event as published")
			return published, err
		}

		published++
	}

	return published, nil
}
