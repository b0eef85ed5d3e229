package tests

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentarena/escrow-server/pkg/escrow/data/event"
	"github.com/agentarena/escrow-server/pkg/pointer"
)

func RunTests(t *testing.T, s event.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s event.Store){
		testRoundTrip,
		testTransferReferenceDedupe,
		testGetAllByOwner,
		testDeliveryLifecycle,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s event.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.Get(ctx, "event-id")
		assert.Equal(t, event.ErrEventNotFound, err)

		expected := &event.Record{
			EventID:         "event-id",
			EventType:       event.TypeDeposit,
			Owner:           "owner",
			Amount:          1_000_000_000,
			PreviousBalance: 0,
			NewBalance:      1_000_000_000,
			DeliveryState:   event.DeliveryStatePending,
		}
		cloned := expected.Clone()

		require.NoError(t, s.Put(ctx, expected))
		assert.Equal(t, event.ErrEventExists, s.Put(ctx, expected))

		actual, err := s.Get(ctx, "event-id")
		require.NoError(t, err)
		assert.Equal(t, cloned.EventID, actual.EventID)
		assert.Equal(t, cloned.EventType, actual.EventType)
		assert.Equal(t, cloned.Owner, actual.Owner)
		assert.Equal(t, cloned.Amount, actual.Amount)
		assert.Equal(t, cloned.PreviousBalance, actual.PreviousBalance)
		assert.Equal(t, cloned.NewBalance, actual.NewBalance)
		assert.Nil(t, actual.TransferReference)
		assert.Equal(t, event.DeliveryStatePending, actual.DeliveryState)
		assert.EqualValues(t, 1, actual.Id)
		assert.False(t, actual.CreatedAt.IsZero())
	})
}

func testTransferReferenceDedupe(t *testing.T, s event.Store) {
	t.Run("testTransferReferenceDedupe", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetByTransferReference(ctx, "signature1")
		assert.Equal(t, event.ErrEventNotFound, err)

		require.NoError(t, s.Put(ctx, &event.Record{
			EventID:           "event1",
			EventType:         event.TypeDeposit,
			Owner:             "owner",
			Amount:            100,
			NewBalance:        100,
			TransferReference: pointer.String("signature1"),
			DeliveryState:     event.DeliveryStatePending,
		}))

		err = s.Put(ctx, &event.Record{
			EventID:           "event2",
			EventType:         event.TypeDeposit,
			Owner:             "owner",
			Amount:            100,
			PreviousBalance:   100,
			NewBalance:        200,
			TransferReference: pointer.String("signature1"),
			DeliveryState:     event.DeliveryStatePending,
		})
		assert.Equal(t, event.ErrDuplicateTransferReference, err)

		actual, err := s.GetByTransferReference(ctx, "signature1")
		require.NoError(t, err)
		assert.Equal(t, "event1", actual.EventID)

		_, err = s.Get(ctx, "event2")
		assert.Equal(t, event.ErrEventNotFound, err)
	})
}

func testGetAllByOwner(t *testing.T, s event.Store) {
	t.Run("testGetAllByOwner", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByOwner(ctx, "owner1", 10)
		assert.Equal(t, event.ErrEventNotFound, err)

		for i := 0; i < 5; i++ {
			owner := "owner1"
			if i%2 == 1 {
				owner = "owner2"
			}

			require.NoError(t, s.Put(ctx, &event.Record{
				EventID:       fmt.Sprintf("event%d", i),
				EventType:     event.TypeDeposit,
				Owner:         owner,
				Amount:        uint64(i + 1),
				NewBalance:    uint64(i + 1),
				DeliveryState: event.DeliveryStatePending,
			}))
		}

		actual, err := s.GetAllByOwner(ctx, "owner1", 10)
		require.NoError(t, err)
		require.Len(t, actual, 3)
		assert.Equal(t, "event4", actual[0].EventID)
		assert.Equal(t, "event2", actual[1].EventID)
		assert.Equal(t, "event0", actual[2].EventID)

		actual, err = s.GetAllByOwner(ctx, "owner1", 2)
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "event4", actual[0].EventID)
		assert.Equal(t, "event2", actual[1].EventID)
	})
}

func testDeliveryLifecycle(t *testing.T, s event.Store) {
	t.Run("testDeliveryLifecycle", func(t *testing.T) {
		ctx := context.Background()

		assert.Equal(t, event.ErrEventNotFound, s.MarkPublished(ctx, "event0"))

		for i := 0; i < 3; i++ {
			require.NoError(t, s.Put(ctx, &event.Record{
				EventID:       fmt.Sprintf("event%d", i),
				EventType:     event.TypeWithdrawal,
				Owner:         "owner",
				Amount:        100,
				NewBalance:    0,
				DeliveryState: event.DeliveryStatePending,
			}))
		}

		pending, err := s.GetBatchByDeliveryState(ctx, event.DeliveryStatePending, 2)
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, "event0", pending[0].EventID)
		assert.Equal(t, "event1", pending[1].EventID)

		require.NoError(t, s.MarkPublished(ctx, "event0"))
		require.NoError(t, s.MarkPublished(ctx, "event0"))

		actual, err := s.Get(ctx, "event0")
		require.NoError(t, err)
		assert.Equal(t, event.DeliveryStatePublished, actual.DeliveryState)
		require.NotNil(t, actual.PublishedAt)

		pending, err = s.GetBatchByDeliveryState(ctx, event.DeliveryStatePending, 10)
		require.NoError(t, err)
		require.Len(t, pending, 2)

		published, err := s.GetBatchByDeliveryState(ctx, event.DeliveryStatePublished, 10)
		require.NoError(t, err)
		require.Len(t, published, 1)
		assert.Equal(t, "event0", published[0].EventID)
	})
}
