package live

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
)

func receiveEvent(t *testing.T, sub *Subscription) StatusChangeEvent {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "event channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return StatusChangeEvent{}
	}
}

func TestInProcessChannelAdapter_DeliversToMatchingSubscription(t *testing.T) {
	adapter := NewInProcessChannelAdapter(nil)
	bookingID := uuid.New()
	otherID := uuid.New()

	sub, err := adapter.Subscribe(context.Background(), bookingID)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	other, err := adapter.Subscribe(context.Background(), otherID)
	require.NoError(t, err)
	defer other.Unsubscribe()

	adapter.Publish(StatusChangeEvent{BookingID: bookingID, NewStatus: domain.StatusConfirmed, OccurredAt: time.Now()})

	ev := receiveEvent(t, sub)
	assert.Equal(t, domain.StatusConfirmed, ev.NewStatus)

	select {
	case ev := <-other.Events():
		t.Fatalf("unrelated subscription received event: %+v", ev)
	default:
	}
}

func TestInProcessChannelAdapter_SuppressesConsecutiveDuplicates(t *testing.T) {
	adapter := NewInProcessChannelAdapter(nil)
	bookingID := uuid.New()

	sub, err := adapter.Subscribe(context.Background(), bookingID)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	adapter.Publish(StatusChangeEvent{BookingID: bookingID, NewStatus: domain.StatusConfirmed})
	adapter.Publish(StatusChangeEvent{BookingID: bookingID, NewStatus: domain.StatusConfirmed})
	adapter.Publish(StatusChangeEvent{BookingID: bookingID, NewStatus: domain.StatusProviderAssigned})

	first := receiveEvent(t, sub)
	second := receiveEvent(t, sub)

	assert.Equal(t, domain.StatusConfirmed, first.NewStatus)
	assert.Equal(t, domain.StatusProviderAssigned, second.NewStatus)

	select {
	case ev := <-sub.Events():
		t.Fatalf("duplicate was delivered: %+v", ev)
	default:
	}
}

func TestInProcessChannelAdapter_UnsubscribeStopsDelivery(t *testing.T) {
	adapter := NewInProcessChannelAdapter(nil)
	bookingID := uuid.New()

	sub, err := adapter.Subscribe(context.Background(), bookingID)
	require.NoError(t, err)
	require.Equal(t, 1, adapter.OpenSubscriptions(bookingID))

	sub.Unsubscribe()
	assert.Equal(t, 0, adapter.OpenSubscriptions(bookingID))

	// Late arrival after teardown must go nowhere.
	adapter.Publish(StatusChangeEvent{BookingID: bookingID, NewStatus: domain.StatusConfirmed})

	_, ok := <-sub.Events()
	assert.False(t, ok, "event channel should be closed")
}

func TestInProcessChannelAdapter_UnsubscribeIsIdempotent(t *testing.T) {
	adapter := NewInProcessChannelAdapter(nil)

	sub, err := adapter.Subscribe(context.Background(), uuid.New())
	require.NoError(t, err)

	sub.Unsubscribe()
	assert.NotPanics(t, func() { sub.Unsubscribe() })
}

func TestSubscription_StaleLatestWins(t *testing.T) {
	sub := newSubscription(uuid.New())

	sub.setStale(true)
	sub.setStale(false)

	select {
	case stale := <-sub.Stale():
		assert.False(t, stale)
	default:
		t.Fatal("expected a stale value")
	}
}
