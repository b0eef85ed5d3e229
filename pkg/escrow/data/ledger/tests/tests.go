package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentarena/escrow-server/pkg/escrow/data/ledger"
)

func RunTests(t *testing.T, s ledger.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s ledger.Store){
		testRoundTrip,
		testPutConflicts,
		testUpdate,
		testCount,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s ledger.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		start := time.Now()

		record := &ledger.Record{
			Address: "address1",
			Bump:    255,
			Owner:   "owner1",
		}
		cloned := record.Clone()

		_, err := s.GetByAddress(ctx, record.Address)
		assert.Equal(t, ledger.ErrLedgerAccountNotFound, err)

		_, err = s.GetByOwner(ctx, record.Owner)
		assert.Equal(t, ledger.ErrLedgerAccountNotFound, err)

		require.NoError(t, s.Put(ctx, record))
		assert.True(t, record.Id > 0)
		assert.True(t, record.CreatedAt.After(start))

		actual, err := s.GetByAddress(ctx, cloned.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)
		assert.EqualValues(t, 0, actual.Version)

		actual, err = s.GetByOwner(ctx, cloned.Owner)
		require.NoError(t, err)
		assertEquivalentRecords(t, &cloned, actual)
	})
}

func testPutConflicts(t *testing.T, s ledger.Store) {
	t.Run("testPutConflicts", func(t *testing.T) {
		ctx := context.Background()

		record := &ledger.Record{
			Address: "address1",
			Bump:    255,
			Owner:   "owner1",
		}
		require.NoError(t, s.Put(ctx, record))

		sameAddress := &ledger.Record{
			Address: "address1",
			Bump:    255,
			Owner:   "owner2",
		}
		assert.Equal(t, ledger.ErrLedgerAccountExists, s.Put(ctx, sameAddress))

		sameOwner := &ledger.Record{
			Address: "address2",
			Bump:    255,
			Owner:   "owner1",
		}
		assert.Equal(t, ledger.ErrLedgerAccountExists, s.Put(ctx, sameOwner))
	})
}

func testUpdate(t *testing.T, s ledger.Store) {
	t.Run("testUpdate", func(t *testing.T) {
		ctx := context.Background()

		record := &ledger.Record{
			Address: "address1",
			Bump:    255,
			Owner:   "owner1",
		}

		assert.Equal(t, ledger.ErrLedgerAccountNotFound, s.Update(ctx, record))

		require.NoError(t, s.Put(ctx, record))

		stale := record.Clone()

		record.Balance = 1_000_000_000
		record.TotalDeposited = 1_000_000_000
		record.DepositCount = 1
		require.NoError(t, s.Update(ctx, record))
		assert.EqualValues(t, 1, record.Version)

		actual, err := s.GetByAddress(ctx, record.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, record, actual)
		assert.True(t, actual.LastUpdatedAt.After(actual.CreatedAt) || actual.LastUpdatedAt.Equal(actual.CreatedAt))

		// A writer holding the old version must lose the race
		stale.Balance = 500_000_000
		assert.Equal(t, ledger.ErrStaleLedgerAccount, s.Update(ctx, &stale))

		actual, err = s.GetByAddress(ctx, record.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 1_000_000_000, actual.Balance)

		now := time.Now()
		record.Balance = 500_000_000
		record.TotalWithdrawn = 500_000_000
		record.WithdrawalCount = 1
		record.LastWithdrawalAt = &now
		require.NoError(t, s.Update(ctx, record))
		assert.EqualValues(t, 2, record.Version)

		actual, err = s.GetByAddress(ctx, record.Address)
		require.NoError(t, err)
		require.NotNil(t, actual.LastWithdrawalAt)
		assertEquivalentRecords(t, record, actual)
	})
}

func testCount(t *testing.T, s ledger.Store) {
	t.Run("testCount", func(t *testing.T) {
		ctx := context.Background()

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		for i, address := range []string{"address1", "address2", "address3"} {
			require.NoError(t, s.Put(ctx, &ledger.Record{
				Address: address,
				Bump:    255,
				Owner:   "owner" + address,
			}))

			count, err = s.Count(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, i+1, count)
		}
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *ledger.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Bump, obj2.Bump)
	assert.Equal(t, obj1.Owner, obj2.Owner)
	assert.Equal(t, obj1.Balance, obj2.Balance)
	assert.Equal(t, obj1.LockedBalance, obj2.LockedBalance)
	assert.Equal(t, obj1.TotalDeposited, obj2.TotalDeposited)
	assert.Equal(t, obj1.TotalWithdrawn, obj2.TotalWithdrawn)
	assert.Equal(t, obj1.DepositCount, obj2.DepositCount)
	assert.Equal(t, obj1.WithdrawalCount, obj2.WithdrawalCount)
	assert.Equal(t, obj1.Version, obj2.Version)

	if obj1.LastWithdrawalAt == nil {
		assert.Nil(t, obj2.LastWithdrawalAt)
	} else {
		require.NotNil(t, obj2.LastWithdrawalAt)
		assert.Equal(t, obj1.LastWithdrawalAt.Unix(), obj2.LastWithdrawalAt.Unix())
	}
}
