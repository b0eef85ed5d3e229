package async_event

import (
	"github.com/agentarena/escrow-server/pkg/config"
	"github.com/agentarena/escrow-server/pkg/config/env"
)

const (
	envConfigPrefix = "EVENT_PUBLISHER_SERVICE_"

	BatchSizeConfigEnvName = envConfigPrefix + "BATCH_SIZE"
	defaultBatchSize       = 100
)

type conf struct {
	batchSize config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			batchSize: env.NewUint64Config(BatchSizeConfigEnvName, defaultBatchSize),
		}
	}
}
