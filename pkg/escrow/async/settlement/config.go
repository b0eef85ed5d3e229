package async_settlement

import (
	"github.com/agentarena/escrow-server/pkg/config"
	"github.com/agentarena/escrow-server/pkg/config/env"
)

const (
	envConfigPrefix = "SETTLEMENT_SERVICE_"

	MatchBatchSizeConfigEnvName = envConfigPrefix + "MATCH_BATCH_SIZE"
	defaultMatchBatchSize       = 10
)

type conf struct {
	matchBatchSize config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			matchBatchSize: env.NewUint64Config(MatchBatchSizeConfigEnvName, defaultMatchBatchSize),
		}
	}
}
