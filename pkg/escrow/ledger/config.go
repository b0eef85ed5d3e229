package ledger

import (
	"github.com/agentarena/escrow-server/pkg/config"
	"github.com/agentarena/escrow-server/pkg/config/env"
	"github.com/agentarena/escrow-server/pkg/config/memory"
	"github.com/agentarena/escrow-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "LEDGER_CORE_"

	MutationsPerSecondPerOwnerConfigEnvName = envConfigPrefix + "MUTATIONS_PER_SECOND_PER_OWNER"
	defaultMutationsPerSecondPerOwner       = 5.0

	EventHistoryPageSizeConfigEnvName = envConfigPrefix + "EVENT_HISTORY_PAGE_SIZE"
	defaultEventHistoryPageSize       = 100
)

type conf struct {
	mutationsPerSecondPerOwner config.Float64
	eventHistoryPageSize       config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			mutationsPerSecondPerOwner: env.NewFloat64Config(MutationsPerSecondPerOwnerConfigEnvName, defaultMutationsPerSecondPerOwner),
			eventHistoryPageSize:       env.NewUint64Config(EventHistoryPageSizeConfigEnvName, defaultEventHistoryPageSize),
		}
	}
}

type testOverrides struct {
	mutationsPerSecondPerOwner float64
	eventHistoryPageSize       uint64
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	if overrides.mutationsPerSecondPerOwner == 0 {
		overrides.mutationsPerSecondPerOwner = defaultMutationsPerSecondPerOwner
	}
	if overrides.eventHistoryPageSize == 0 {
		overrides.eventHistoryPageSize = defaultEventHistoryPageSize
	}

	return func() *conf {
		return &conf{
			mutationsPerSecondPerOwner: wrapper.NewFloat64Config(memory.NewConfig(overrides.mutationsPerSecondPerOwner), defaultMutationsPerSecondPerOwner),
			eventHistoryPageSize:       wrapper.NewUint64Config(memory.NewConfig(overrides.eventHistoryPageSize), defaultEventHistoryPageSize),
		}
	}
}
