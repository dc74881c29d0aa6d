// Package viewmodel holds the per-booking aggregate view consumed by every
// screen: current status, derived timeline, and UI flags, kept consistent
// across observers while live updates arrive asynchronously.
package viewmodel

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
	"github.com/felixgeelhaar/servana/internal/booking/infrastructure/live"
	sharedDomain "github.com/felixgeelhaar/servana/internal/shared/domain"
	"github.com/felixgeelhaar/servana/pkg/observability"
)

// Snapshot is an immutable view of one booking at a point in time. The
// embedded booking is a private copy; mutating it cannot affect the view
// model or other observers.
type Snapshot struct {
	Booking         *domain.Booking
	Timeline        domain.Timeline
	IsCancellable   bool
	IsReschedulable bool
	IsReviewable    bool
	Stale           bool
}

// Observer receives every accepted snapshot update for a booking.
type Observer func(Snapshot)

// ViewModel is the single owner of one booking's client-side state. All
// screens read through it and never mutate booking state directly. Event
// application is serialized; observers of the same booking id always see
// identical state in the same tick.
type ViewModel struct {
	mu        sync.Mutex
	booking   *domain.Booking
	stale     bool
	closed    bool
	observers map[int]Observer
	nextID    int
	logger    *slog.Logger
	metrics   observability.Metrics
}

// New creates a view model around a hydrated booking.
func New(booking *domain.Booking, logger *slog.Logger, metrics observability.Metrics) *ViewModel {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ViewModel{
		booking:   booking,
		observers: make(map[int]Observer),
		logger:    logger,
		metrics:   metrics,
	}
}

// BookingID returns the id of the booking this view model owns.
func (vm *ViewModel) BookingID() uuid.UUID {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.booking.ID()
}

// Snapshot returns the current immutable view.
func (vm *ViewModel) Snapshot() Snapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.snapshotLocked()
}

// Observe registers an observer. The current snapshot is delivered
// immediately, then every accepted update until the returned cancel
// function is called. After cancel returns, no further notifications
// are delivered to this observer.
func (vm *ViewModel) Observe(fn Observer) func() {
	vm.mu.Lock()
	id := vm.nextID
	vm.nextID++
	vm.observers[id] = fn
	snapshot := vm.snapshotLocked()
	fn(snapshot)
	vm.mu.Unlock()

	return func() {
		vm.mu.Lock()
		defer vm.mu.Unlock()
		delete(vm.observers, id)
	}
}

// ObserverCount reports how many observers are registered.
func (vm *ViewModel) ObserverCount() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return len(vm.observers)
}

// ApplyEvent merges one live status change into the booking state.
//
// Repeats of the current status are idempotent no-ops. Invalid transitions
// (out-of-order or stale deliveries under network reordering) are discarded
// and logged for diagnostics, never surfaced: the status model's validation
// gives us logical ordering without a reconciliation protocol. Only accepted
// transitions notify observers.
func (vm *ViewModel) ApplyEvent(ev live.StatusChangeEvent) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.closed {
		return
	}
	if ev.BookingID != vm.booking.ID() {
		vm.logger.Debug("discarding event for foreign booking",
			"booking_id", vm.booking.ID(),
			"event_booking_id", ev.BookingID,
		)
		return
	}

	err := vm.booking.RecordStatus(ev.NewStatus, ev.OccurredAt)
	switch {
	case err == nil:
		vm.booking.ClearDomainEvents()
		vm.metrics.Counter(observability.MetricStatusTransitions, 1,
			observability.T("status", ev.NewStatus.String()))
		vm.notifyLocked()
	case err == domain.ErrDuplicateStatus:
		vm.metrics.Counter(observability.MetricEventsDuplicate, 1)
		vm.logger.Debug("ignoring duplicate status event",
			"booking_id", vm.booking.ID(),
			"status", ev.NewStatus,
		)
	default:
		vm.metrics.Counter(observability.MetricEventsDiscarded, 1)
		vm.logger.Debug("discarding out-of-order status event",
			"booking_id", vm.booking.ID(),
			"current_status", vm.booking.Status(),
			"event_status", ev.NewStatus,
			"error", err,
		)
	}
}

// SetStale flags the snapshot while the live channel reconnects. Screens
// show a "live updates paused" indicator, not an error.
func (vm *ViewModel) SetStale(stale bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.closed || vm.stale == stale {
		return
	}
	vm.stale = stale
	vm.notifyLocked()
}

// Reload replaces the booking state after a manual re-fetch and notifies
// observers. Used as the fallback refresh path alongside live updates.
//
// A fetch response can race a live event that already advanced the booking.
// The status history is append-only, so a response carrying fewer entries
// than the current state is stale and discarded, same as an out-of-order
// live event.
func (vm *ViewModel) Reload(booking *domain.Booking) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.closed || booking == nil || booking.ID() != vm.booking.ID() {
		return
	}
	if len(booking.StatusHistory()) < len(vm.booking.StatusHistory()) {
		vm.metrics.Counter(observability.MetricEventsDiscarded, 1)
		vm.logger.Debug("discarding stale reload",
			"booking_id", vm.booking.ID(),
			"current_status", vm.booking.Status(),
			"fetched_status", booking.Status(),
		)
		return
	}
	vm.booking = booking
	vm.notifyLocked()
}

// Close detaches all observers and makes further applies no-ops. Called by
// the registry when the last screen stops observing this booking.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.closed = true
	vm.observers = make(map[int]Observer)
}

// snapshotLocked builds the immutable view. Caller holds vm.mu.
func (vm *ViewModel) snapshotLocked() Snapshot {
	clone := cloneBooking(vm.booking)
	return Snapshot{
		Booking:         clone,
		Timeline:        domain.DeriveTimeline(clone),
		IsCancellable:   clone.IsCancellable(),
		IsReschedulable: clone.IsReschedulable(),
		IsReviewable:    clone.IsReviewable(),
		Stale:           vm.stale,
	}
}

// notifyLocked fans the new snapshot out to all observers in the same tick.
// Caller holds vm.mu; observers must not call back into the view model.
func (vm *ViewModel) notifyLocked() {
	snapshot := vm.snapshotLocked()
	for _, fn := range vm.observers {
		fn(snapshot)
	}
}

// cloneBooking deep-copies a booking through its rehydrate constructor.
func cloneBooking(b *domain.Booking) *domain.Booking {
	return domain.RehydrateBooking(
		sharedDomain.RehydrateBaseEntity(b.ID(), b.CreatedAt(), b.UpdatedAt()),
		b.Version(),
		b.CustomerID(),
		b.ServiceName(),
		b.StatusHistory(),
		b.ScheduledAt(),
		b.TotalAmount(),
		b.PaymentStatus(),
		b.Provider(),
		b.IsReviewed(),
	)
}
