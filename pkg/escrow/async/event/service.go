package async_event

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agentarena/escrow-server/pkg/escrow/async"
	escrow_data "github.com/agentarena/escrow-server/pkg/escrow/data"
	"github.com/agentarena/escrow-server/pkg/escrow/data/event"
)

// Publisher delivers a ledger event to an external consumer. A non-nil error
// leaves the event pending, and it will be retried on a later poll.
type Publisher interface {
	Publish(ctx context.Context, record *event.Record) error
}

type service struct {
	log       *logrus.Entry
	conf      *conf
	data      escrow_data.DatabaseData
	publisher Publisher
}

func New(data escrow_data.DatabaseData, publisher Publisher, configProvider ConfigProvider) async.Service {
	return &service{
		log:       logrus.StandardLogger().WithField("service", "event_publisher"),
		conf:      configProvider(),
		data:      data,
		publisher: publisher,
	}
}

func (p *service) Start(ctx context.Context, interval time.Duration) error {
	go func() {
		err := p.publishWorker(ctx, interval)
		if err != nil && err != context.Canceled {
			p.log.WithError(err).Warn("event publishing loop terminated unexpectedly")
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	}
}
