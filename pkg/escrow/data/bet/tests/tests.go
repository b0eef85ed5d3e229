package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentarena/escrow-server/pkg/escrow/data/bet"
)

func RunTests(t *testing.T, s bet.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s bet.Store){
		testRoundTrip,
		testUpdateTransitions,
		testGetAllByMatch,
		testGetDistinctOpenMatchIDs,
		testCountByStatus,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s bet.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		start := time.Now()

		record := &bet.Record{
			Address: "escrow1",
			Bump:    253,

			MatchID: "match1",
			Bettor:  "bettor1",

			Amount:          250_000_000,
			SelectedOutcome: 1,
			Status:          bet.StatusOpen,
		}
		cloned := record.Clone()

		_, err := s.Get(ctx, record.MatchID, record.Bettor)
		assert.Equal(t, bet.ErrBetNotFound, err)

		_, err = s.GetByAddress(ctx, record.Address)
		assert.Equal(t, bet.ErrBetNotFound, err)

		require.NoError(t, s.Put(ctx, record))
		assert.True(t, record.Id > 0)
		assert.True(t, record.CreatedAt.After(start))

		actual, err := s.Get(ctx, cloned.MatchID, cloned.Bettor)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)

		actual, err = s.GetByAddress(ctx, cloned.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)

		duplicate := cloned.Clone()
		assert.Equal(t, bet.ErrBetExists, s.Put(ctx, &duplicate))
	})
}

func testUpdateTransitions(t *testing.T, s bet.Store) {
	t.Run("testUpdateTransitions", func(t *testing.T) {
		ctx := context.Background()

		record := &bet.Record{
			Address: "escrow1",
			Bump:    253,

			MatchID: "match1",
			Bettor:  "bettor1",

			Amount:          250_000_000,
			SelectedOutcome: 1,
			Status:          bet.StatusOpen,
		}
		require.NoError(t, s.Put(ctx, record))

		payout := uint64(475_000_000)
		settledAt := time.Now()

		settled := record.Clone()
		settled.Status = bet.StatusSettled
		settled.Payout = &payout
		settled.SettledAt = &settledAt
		require.NoError(t, s.Update(ctx, &settled))

		actual, err := s.Get(ctx, record.MatchID, record.Bettor)
		require.NoError(t, err)
		assert.Equal(t, bet.StatusSettled, actual.Status)
		require.NotNil(t, actual.Payout)
		assert.Equal(t, payout, *actual.Payout)
		require.NotNil(t, actual.SettledAt)

		// A second settlement attempt must not double-apply
		again := settled.Clone()
		assert.Equal(t, bet.ErrBetNotOpen, s.Update(ctx, &again))

		refunded := record.Clone()
		refunded.Status = bet.StatusRefunded
		refunded.SettledAt = &settledAt
		assert.Equal(t, bet.ErrBetNotOpen, s.Update(ctx, &refunded))

		missing := record.Clone()
		missing.MatchID = "match2"
		missing.Status = bet.StatusSettled
		missing.SettledAt = &settledAt
		assert.Equal(t, bet.ErrBetNotFound, s.Update(ctx, &missing))
	})
}

func testGetAllByMatch(t *testing.T, s bet.Store) {
	t.Run("testGetAllByMatch", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByMatch(ctx, "match1")
		assert.Equal(t, bet.ErrBetNotFound, err)

		for i := 0; i < 3; i++ {
			require.NoError(t, s.Put(ctx, &bet.Record{
				Address: fmt.Sprintf("escrow%d", i),
				Bump:    253,

				MatchID: "match1",
				Bettor:  fmt.Sprintf("bettor%d", i),

				Amount:          100_000_000,
				SelectedOutcome: uint8(1 + i%2),
				Status:          bet.StatusOpen,
			}))
		}
		require.NoError(t, s.Put(ctx, &bet.Record{
			Address: "escrow-other",
			Bump:    253,

			MatchID: "match2",
			Bettor:  "bettor0",

			Amount:          100_000_000,
			SelectedOutcome: 1,
			Status:          bet.StatusOpen,
		}))

		records, err := s.GetAllByMatch(ctx, "match1")
		require.NoError(t, err)
		assert.Len(t, records, 3)
		for _, record := range records {
			assert.Equal(t, "match1", record.MatchID)
		}
	})
}

func testGetDistinctOpenMatchIDs(t *testing.T, s bet.Store) {
	t.Run("testGetDistinctOpenMatchIDs", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetDistinctOpenMatchIDs(ctx, 10)
		assert.Equal(t, bet.ErrBetNotFound, err)

		settledAt := time.Now()
		payout := uint64(1)

		records := []*bet.Record{
			{Address: "escrow1", Bump: 253, MatchID: "match1", Bettor: "bettor1", Amount: 1, SelectedOutcome: 1, Status: bet.StatusOpen},
			{Address: "escrow2", Bump: 253, MatchID: "match1", Bettor: "bettor2", Amount: 1, SelectedOutcome: 2, Status: bet.StatusOpen},
			{Address: "escrow3", Bump: 253, MatchID: "match2", Bettor: "bettor1", Amount: 1, SelectedOutcome: 1, Status: bet.StatusOpen},
			{Address: "escrow4", Bump: 253, MatchID: "match3", Bettor: "bettor1", Amount: 1, SelectedOutcome: 1, Status: bet.StatusOpen},
		}
		for _, record := range records {
			require.NoError(t, s.Put(ctx, record))
		}

		settled := records[3].Clone()
		settled.Status = bet.StatusSettled
		settled.Payout = &payout
		settled.SettledAt = &settledAt
		require.NoError(t, s.Update(ctx, &settled))

		matchIDs, err := s.GetDistinctOpenMatchIDs(ctx, 10)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"match1", "match2"}, matchIDs)

		matchIDs, err = s.GetDistinctOpenMatchIDs(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, matchIDs, 1)
	})
}

func testCountByStatus(t *testing.T, s bet.Store) {
	t.Run("testCountByStatus", func(t *testing.T) {
		ctx := context.Background()

		count, err := s.CountByStatus(ctx, bet.StatusOpen)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		for i := 0; i < 3; i++ {
			require.NoError(t, s.Put(ctx, &bet.Record{
				Address: fmt.Sprintf("escrow%d", i),
				Bump:    253,

				MatchID: "match1",
				Bettor:  fmt.Sprintf("bettor%d", i),

				Amount:          1,
				SelectedOutcome: 1,
				Status:          bet.StatusOpen,
			}))
		}

		settledAt := time.Now()
		payout := uint64(1)

		settled, err := s.Get(ctx, "match1", "bettor0")
		require.NoError(t, err)
		settled.Status = bet.StatusSettled
		settled.Payout = &payout
		settled.SettledAt = &settledAt
		require.NoError(t, s.Update(ctx, settled))

		count, err = s.CountByStatus(ctx, bet.StatusOpen)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		count, err = s.CountByStatus(ctx, bet.StatusSettled)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		count, err = s.CountByStatus(ctx, bet.StatusRefunded)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *bet.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Bump, obj2.Bump)
	assert.Equal(t, obj1.MatchID, obj2.MatchID)
	assert.Equal(t, obj1.Bettor, obj2.Bettor)
	assert.Equal(t, obj1.Amount, obj2.Amount)
	assert.Equal(t, obj1.SelectedOutcome, obj2.SelectedOutcome)
	assert.Equal(t, obj1.Status, obj2.Status)
}
