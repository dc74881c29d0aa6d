package viewmodel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
	"github.com/felixgeelhaar/servana/internal/booking/infrastructure/live"
	"github.com/felixgeelhaar/servana/pkg/observability"
)

// Fetcher hydrates a booking from the backing service. Satisfied by the
// remote service client and by repository-backed local mode.
type Fetcher interface {
	FetchBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)
}

// Registry owns at most one view model per booking id and reference-counts
// the screens observing it. The first acquire hydrates the booking and opens
// the live subscription; the last release closes the view model and tears
// the subscription down.
type Registry struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry

	fetcher Fetcher
	adapter live.ChannelAdapter
	logger  *slog.Logger
	metrics observability.Metrics
}

type entry struct {
	// vm and sub are nil until ready closes; written under the registry
	// mutex so Dispatch can observe a still-hydrating entry.
	vm   *ViewModel
	sub  *live.Subscription
	refs int
	pump sync.WaitGroup

	ready chan struct{}
	err   error
}

// NewRegistry creates an empty registry.
func NewRegistry(fetcher Fetcher, adapter live.ChannelAdapter, logger *slog.Logger, metrics observability.Metrics) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &Registry{
		entries: make(map[uuid.UUID]*entry),
		fetcher: fetcher,
		adapter: adapter,
		logger:  logger,
		metrics: metrics,
	}
}

// Handle is one screen's reference to a booking view model. Release must be
// called exactly once when the screen stops observing.
type Handle struct {
	registry *Registry
	id       uuid.UUID
	vm       *ViewModel
	once     sync.Once
}

// ViewModel returns the shared view model behind this handle.
func (h *Handle) ViewModel() *ViewModel { return h.vm }

// Release drops this reference. When it is the last one, the view model is
// closed before the subscription is torn down, so events still buffered in
// flight can never reach an observer.
func (h *Handle) Release() {
	h.once.Do(func() { h.registry.release(h.id) })
}

// Acquire returns a handle on the view model for the given booking,
// hydrating it and opening a live subscription on first use. Concurrent
// acquires for the same id share one view model and one subscription.
//
// A fetch failure leaves no entry behind; the caller retries.
func (r *Registry) Acquire(ctx context.Context, bookingID uuid.UUID) (*Handle, error) {
	r.mu.Lock()
	if e, ok := r.entries[bookingID]; ok {
		e.refs++
		r.mu.Unlock()

		<-e.ready
		if e.err != nil {
			// The hydrating caller already removed the entry.
			return nil, e.err
		}
		return &Handle{registry: r, id: bookingID, vm: e.vm}, nil
	}

	// Reserve the slot, then hydrate without the registry lock: a slow
	// backend for one booking must not stall dispatch, release, or
	// acquires of other bookings. Concurrent acquires of the same id wait
	// on ready and share this fetch.
	e := &entry{refs: 1, ready: make(chan struct{})}
	r.entries[bookingID] = e
	r.mu.Unlock()

	booking, err := r.fetcher.FetchBooking(ctx, bookingID)
	if err != nil {
		return nil, r.abortAcquire(e, bookingID, fmt.Errorf("hydrating booking %s: %w", bookingID, err))
	}

	vm := New(booking, r.logger, r.metrics)

	sub, err := r.adapter.Subscribe(ctx, bookingID)
	if err != nil {
		vm.Close()
		return nil, r.abortAcquire(e, bookingID, fmt.Errorf("subscribing to booking %s: %w", bookingID, err))
	}

	e.pump.Add(2)
	go func() {
		defer e.pump.Done()
		for ev := range sub.Events() {
			vm.ApplyEvent(ev)
		}
	}()
	go func() {
		defer e.pump.Done()
		for stale := range sub.Stale() {
			vm.SetStale(stale)
		}
	}()

	r.mu.Lock()
	e.vm = vm
	e.sub = sub
	open := len(r.entries)
	r.mu.Unlock()
	close(e.ready)

	r.metrics.Gauge(observability.MetricLiveSubscriptions, float64(open))
	r.logger.Debug("view model opened", "booking_id", bookingID)

	return &Handle{registry: r, id: bookingID, vm: vm}, nil
}

// abortAcquire removes a reserved entry whose hydration failed and wakes any
// waiters with the error.
func (r *Registry) abortAcquire(e *entry, bookingID uuid.UUID, err error) error {
	e.err = err
	r.mu.Lock()
	delete(r.entries, bookingID)
	r.mu.Unlock()
	close(e.ready)
	return err
}

// Dispatch routes a status change arriving outside the live channel (for
// example from the message bus consumer) to the matching view model. Events
// for bookings no screen is observing are dropped.
func (r *Registry) Dispatch(ev live.StatusChangeEvent) {
	r.mu.Lock()
	e, ok := r.entries[ev.BookingID]
	var vm *ViewModel
	if ok {
		vm = e.vm
	}
	r.mu.Unlock()
	if vm == nil {
		// Absent, or still hydrating; the fetch will include this change.
		return
	}
	vm.ApplyEvent(ev)
}

// Refresh re-fetches the booking and replaces the view model state. Fallback
// path for when the live channel is stale.
func (r *Registry) Refresh(ctx context.Context, bookingID uuid.UUID) error {
	r.mu.Lock()
	e, ok := r.entries[bookingID]
	r.mu.Unlock()
	if !ok {
		return domain.ErrBookingNotFound
	}
	<-e.ready
	if e.err != nil {
		return domain.ErrBookingNotFound
	}

	booking, err := r.fetcher.FetchBooking(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("refreshing booking %s: %w", bookingID, err)
	}
	e.vm.Reload(booking)
	return nil
}

// Open reports whether a view model is currently held for the booking.
func (r *Registry) Open(bookingID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[bookingID]
	return ok
}

func (r *Registry) release(bookingID uuid.UUID) {
	r.mu.Lock()
	e, ok := r.entries[bookingID]
	if !ok {
		r.mu.Unlock()
		return
	}
	e.refs--
	if e.refs > 0 {
		r.mu.Unlock()
		return
	}
	delete(r.entries, bookingID)
	open := len(r.entries)
	r.mu.Unlock()

	// Close before unsubscribing: buffered events drained by the pump after
	// this point hit a closed view model and go nowhere.
	e.vm.Close()
	e.sub.Unsubscribe()
	e.pump.Wait()

	r.metrics.Gauge(observability.MetricLiveSubscriptions, float64(open))
	r.logger.Debug("view model closed", "booking_id", bookingID)
}
