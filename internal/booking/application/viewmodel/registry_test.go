package viewmodel_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/servana/internal/booking/application/viewmodel"
	"github.com/felixgeelhaar/servana/internal/booking/domain"
	"github.com/felixgeelhaar/servana/internal/booking/infrastructure/live"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if b := args.Get(0); b != nil {
		return b.(*domain.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

type funcFetcher func(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)

func (f funcFetcher) FetchBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	return f(ctx, bookingID)
}

func newTestRegistry(t *testing.T, booking *domain.Booking) (*viewmodel.Registry, *live.InProcessChannelAdapter) {
	t.Helper()
	fetcher := new(mockFetcher)
	fetcher.On("FetchBooking", mock.Anything, booking.ID()).Return(booking, nil)
	adapter := live.NewInProcessChannelAdapter(discardLogger())
	return viewmodel.NewRegistry(fetcher, adapter, discardLogger(), nil), adapter
}

func TestRegistry_Acquire(t *testing.T) {
	t.Run("hydrates on first acquire and shares afterwards", func(t *testing.T) {
		booking := newTestBooking(t)
		fetcher := new(mockFetcher)
		fetcher.On("FetchBooking", mock.Anything, booking.ID()).Return(booking, nil).Once()
		adapter := live.NewInProcessChannelAdapter(discardLogger())
		registry := viewmodel.NewRegistry(fetcher, adapter, discardLogger(), nil)

		first, err := registry.Acquire(context.Background(), booking.ID())
		require.NoError(t, err)
		second, err := registry.Acquire(context.Background(), booking.ID())
		require.NoError(t, err)

		assert.Same(t, first.ViewModel(), second.ViewModel())
		assert.Equal(t, 1, adapter.OpenSubscriptions(booking.ID()))
		fetcher.AssertExpectations(t)

		second.Release()
		assert.True(t, registry.Open(booking.ID()), "still referenced by first handle")
		first.Release()
		assert.False(t, registry.Open(booking.ID()))
		assert.Equal(t, 0, adapter.OpenSubscriptions(booking.ID()))
	})

	t.Run("fetch failure leaves no entry behind", func(t *testing.T) {
		bookingID := uuid.New()
		fetcher := new(mockFetcher)
		fetcher.On("FetchBooking", mock.Anything, bookingID).
			Return(nil, errors.New("gateway timeout")).Once()
		adapter := live.NewInProcessChannelAdapter(discardLogger())
		registry := viewmodel.NewRegistry(fetcher, adapter, discardLogger(), nil)

		_, err := registry.Acquire(context.Background(), bookingID)
		require.Error(t, err)
		assert.False(t, registry.Open(bookingID))
		assert.Equal(t, 0, adapter.OpenSubscriptions(bookingID))
	})

	t.Run("slow hydrate does not block other bookings", func(t *testing.T) {
		slow := newTestBooking(t)
		fast := newTestBooking(t)
		started := make(chan struct{})
		unblock := make(chan struct{})
		fetcher := funcFetcher(func(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
			if id == slow.ID() {
				close(started)
				<-unblock
				return slow, nil
			}
			return fast, nil
		})
		adapter := live.NewInProcessChannelAdapter(discardLogger())
		registry := viewmodel.NewRegistry(fetcher, adapter, discardLogger(), nil)

		type result struct {
			handle *viewmodel.Handle
			err    error
		}
		slowDone := make(chan result, 1)
		go func() {
			h, err := registry.Acquire(context.Background(), slow.ID())
			slowDone <- result{h, err}
		}()
		<-started

		// Other ids stay serviceable while the first hydrate is in flight.
		fastHandle, err := registry.Acquire(context.Background(), fast.ID())
		require.NoError(t, err)
		defer fastHandle.Release()

		// Dispatch for the still-hydrating id drops instead of stalling.
		registry.Dispatch(statusEvent(slow, domain.StatusConfirmed))

		close(unblock)
		res := <-slowDone
		require.NoError(t, res.err)
		res.handle.Release()
	})

	t.Run("concurrent acquires of one id share a single fetch", func(t *testing.T) {
		booking := newTestBooking(t)
		var calls atomic.Int32
		started := make(chan struct{})
		unblock := make(chan struct{})
		fetcher := funcFetcher(func(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
			calls.Add(1)
			close(started)
			<-unblock
			return booking, nil
		})
		adapter := live.NewInProcessChannelAdapter(discardLogger())
		registry := viewmodel.NewRegistry(fetcher, adapter, discardLogger(), nil)

		type result struct {
			handle *viewmodel.Handle
			err    error
		}
		results := make(chan result, 2)
		go func() {
			h, err := registry.Acquire(context.Background(), booking.ID())
			results <- result{h, err}
		}()
		<-started
		go func() {
			h, err := registry.Acquire(context.Background(), booking.ID())
			results <- result{h, err}
		}()
		close(unblock)

		first := <-results
		second := <-results
		require.NoError(t, first.err)
		require.NoError(t, second.err)
		assert.Same(t, first.handle.ViewModel(), second.handle.ViewModel())
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, 1, adapter.OpenSubscriptions(booking.ID()))

		first.handle.Release()
		second.handle.Release()
	})
}

func TestRegistry_LiveUpdates(t *testing.T) {
	t.Run("published events reach every observer", func(t *testing.T) {
		booking := newTestBooking(t)
		registry, adapter := newTestRegistry(t, booking)

		handle, err := registry.Acquire(context.Background(), booking.ID())
		require.NoError(t, err)
		defer handle.Release()

		var mu sync.Mutex
		var statuses []domain.Status
		cancel := handle.ViewModel().Observe(func(s viewmodel.Snapshot) {
			mu.Lock()
			statuses = append(statuses, s.Booking.Status())
			mu.Unlock()
		})
		defer cancel()

		adapter.Publish(statusEvent(booking, domain.StatusConfirmed))
		adapter.Publish(statusEvent(booking, domain.StatusProviderAssigned))

		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(statuses) == 3
		}, time.Second, 5*time.Millisecond)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []domain.Status{
			domain.StatusPending,
			domain.StatusConfirmed,
			domain.StatusProviderAssigned,
		}, statuses)
	})

	t.Run("no notification after release even for in-flight events", func(t *testing.T) {
		booking := newTestBooking(t)
		registry, adapter := newTestRegistry(t, booking)

		handle, err := registry.Acquire(context.Background(), booking.ID())
		require.NoError(t, err)

		notified := make(chan struct{}, 16)
		handle.ViewModel().Observe(func(viewmodel.Snapshot) {
			notified <- struct{}{}
		})
		<-notified // registration snapshot

		handle.Release()
		adapter.Publish(statusEvent(booking, domain.StatusConfirmed))

		select {
		case <-notified:
			t.Fatal("observer notified after release")
		case <-time.After(50 * time.Millisecond):
		}
	})
}

func TestRegistry_Dispatch(t *testing.T) {
	booking := newTestBooking(t)
	registry, _ := newTestRegistry(t, booking)

	// No entry yet: dispatch is a silent drop.
	registry.Dispatch(statusEvent(booking, domain.StatusConfirmed))

	handle, err := registry.Acquire(context.Background(), booking.ID())
	require.NoError(t, err)
	defer handle.Release()

	registry.Dispatch(statusEvent(booking, domain.StatusConfirmed))
	assert.Equal(t, domain.StatusConfirmed, handle.ViewModel().Snapshot().Booking.Status())
}

func TestRegistry_Refresh(t *testing.T) {
	booking := newTestBooking(t)
	refreshed := viewmodel.New(booking, discardLogger(), nil).Snapshot().Booking
	require.NoError(t, refreshed.RecordStatus(domain.StatusConfirmed, time.Now()))

	fetcher := new(mockFetcher)
	fetcher.On("FetchBooking", mock.Anything, booking.ID()).Return(booking, nil).Once()
	fetcher.On("FetchBooking", mock.Anything, booking.ID()).Return(refreshed, nil).Once()
	adapter := live.NewInProcessChannelAdapter(discardLogger())
	registry := viewmodel.NewRegistry(fetcher, adapter, discardLogger(), nil)

	require.ErrorIs(t, registry.Refresh(context.Background(), booking.ID()), domain.ErrBookingNotFound)

	handle, err := registry.Acquire(context.Background(), booking.ID())
	require.NoError(t, err)
	defer handle.Release()

	require.NoError(t, registry.Refresh(context.Background(), booking.ID()))
	assert.Equal(t, domain.StatusConfirmed, handle.ViewModel().Snapshot().Booking.Status())
	fetcher.AssertExpectations(t)
}
