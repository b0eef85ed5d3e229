package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentarena/escrow-server/pkg/escrow/data/platform"
)

func RunTests(t *testing.T, s platform.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s platform.Store){
		testRoundTrip,
		testReinitializationRejected,
		testValidation,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s platform.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		start := time.Now()

		record := &platform.Record{
			Address: "platform1",
			Bump:    254,
			Admin:   "admin1",

			MinimumDeposit: 100_000_000,
			MaximumDeposit: 100_000_000_000,
			PlatformFeeBps: 250,
		}
		cloned := record.Clone()

		_, err := s.Get(ctx, record.Address)
		assert.Equal(t, platform.ErrConfigNotFound, err)

		require.NoError(t, s.Put(ctx, record))
		assert.True(t, record.Id > 0)
		assert.True(t, record.CreatedAt.After(start))

		actual, err := s.Get(ctx, cloned.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)
	})
}

func testReinitializationRejected(t *testing.T, s platform.Store) {
	t.Run("testReinitializationRejected", func(t *testing.T) {
		ctx := context.Background()

		record := &platform.Record{
			Address: "platform1",
			Bump:    254,
			Admin:   "admin1",

			MinimumDeposit: 100_000_000,
			MaximumDeposit: 100_000_000_000,
			PlatformFeeBps: 250,
		}
		require.NoError(t, s.Put(ctx, record))

		overwrite := &platform.Record{
			Address: "platform1",
			Bump:    254,
			Admin:   "admin2",

			MinimumDeposit: 1,
			MaximumDeposit: 2,
			PlatformFeeBps: 1000,
		}
		assert.Equal(t, platform.ErrAlreadyInitialized, s.Put(ctx, overwrite))

		actual, err := s.Get(ctx, record.Address)
		require.NoError(t, err)
		assert.Equal(t, "admin1", actual.Admin)
		assert.EqualValues(t, 100_000_000, actual.MinimumDeposit)
	})
}

func testValidation(t *testing.T, s platform.Store) {
	t.Run("testValidation", func(t *testing.T) {
		ctx := context.Background()

		invalid := []*platform.Record{
			{Address: "platform1", Admin: "admin1", MinimumDeposit: 0, MaximumDeposit: 100, PlatformFeeBps: 250},
			{Address: "platform1", Admin: "admin1", MinimumDeposit: 100, MaximumDeposit: 100, PlatformFeeBps: 250},
			{Address: "platform1", Admin: "admin1", MinimumDeposit: 200, MaximumDeposit: 100, PlatformFeeBps: 250},
			{Address: "platform1", Admin: "admin1", MinimumDeposit: 100, MaximumDeposit: 200, PlatformFeeBps: 1001},
		}
		for _, record := range invalid {
			assert.Error(t, s.Put(ctx, record))
		}

		_, err := s.Get(ctx, "platform1")
		assert.Equal(t, platform.ErrConfigNotFound, err)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *platform.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Bump, obj2.Bump)
	assert.Equal(t, obj1.Admin, obj2.Admin)
	assert.Equal(t, obj1.MinimumDeposit, obj2.MinimumDeposit)
	assert.Equal(t, obj1.MaximumDeposit, obj2.MaximumDeposit)
	assert.Equal(t, obj1.PlatformFeeBps, obj2.PlatformFeeBps)
}
