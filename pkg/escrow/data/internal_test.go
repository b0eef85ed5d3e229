package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentarena/escrow-server/pkg/cache"

	bet_memory_client "github.com/agentarena/escrow-server/pkg/escrow/data/bet/memory"
	event_memory_client "github.com/agentarena/escrow-server/pkg/escrow/data/event/memory"
	ledger_memory_client "github.com/agentarena/escrow-server/pkg/escrow/data/ledger/memory"
	platform_memory_client "github.com/agentarena/escrow-server/pkg/escrow/data/platform/memory"

	"github.com/agentarena/escrow-server/pkg/escrow/data/platform"
)

func newCachedTestProvider() *DatabaseProvider {
	return &DatabaseProvider{
		ledgerAccounts: ledger_memory_client.New(),
		platformConfig: platform_memory_client.New(),
		bets:           bet_memory_client.New(),
		events:         event_memory_client.New(),

		platformConfigCache: cache.NewCache(maxPlatformConfigCacheBudget),
	}
}

func TestPlatformConfigCache_FilledOnReadNotWrite(t *testing.T) {
	ctx := context.Background()
	provider := newCachedTestProvider()

	record := &platform.Record{
		Address: "platform_address",
		Bump:    255,
		Admin:   "admin_address",

		MinimumDeposit: 100,
		MaximumDeposit: 1000,
		PlatformFeeBps: 250,

		CreatedAt: time.Now(),
	}
	require.NoError(t, provider.InitializePlatformConfig(ctx, record))

	// Initialization never seeds the cache. Cached values come only from
	// committed reads, so a rolled back transaction cannot leave one behind.
	_, ok := provider.platformConfigCache.Retrieve(record.Address)
	assert.False(t, ok)

	actual, err := provider.GetPlatformConfig(ctx, record.Address)
	require.NoError(t, err)
	assert.Equal(t, record.Admin, actual.Admin)

	cached, ok := provider.platformConfigCache.Retrieve(record.Address)
	require.True(t, ok)
	cacheEntry := cached.(*platformConfigCacheEntry)
	assert.Equal(t, record.Admin, cacheEntry.record.Admin)
	assert.Equal(t, record.PlatformFeeBps, cacheEntry.record.PlatformFeeBps)
}

func TestPlatformConfigCache_ServesCachedValueWithinTTL(t *testing.T) {
	ctx := context.Background()
	provider := newCachedTestProvider()

	record := &platform.Record{
		Address: "platform_address",
		Bump:    255,
		Admin:   "admin_address",

		MinimumDeposit: 100,
		MaximumDeposit: 1000,
		PlatformFeeBps: 250,

		CreatedAt: time.Now(),
	}
	require.NoError(t, provider.InitializePlatformConfig(ctx, record))

	_, err := provider.GetPlatformConfig(ctx, record.Address)
	require.NoError(t, err)

	// Poison the cached entry to prove subsequent reads are served from it
	cached, ok := provider.platformConfigCache.Retrieve(record.Address)
	require.True(t, ok)
	cacheEntry := cached.(*platformConfigCacheEntry)
	cacheEntry.record.PlatformFeeBps = 999

	actual, err := provider.GetPlatformConfig(ctx, record.Address)
	require.NoError(t, err)
	assert.EqualValues(t, 999, actual.PlatformFeeBps)

	// Once stale, the next read refreshes from the store
	cacheEntry.lastUpdatedAt = time.Now().Add(-2 * platformConfigCacheTTL)

	actual, err = provider.GetPlatformConfig(ctx, record.Address)
	require.NoError(t, err)
	assert.EqualValues(t, 250, actual.PlatformFeeBps)
}
