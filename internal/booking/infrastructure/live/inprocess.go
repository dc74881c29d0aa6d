package live

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// InProcessChannelAdapter is an in-memory channel adapter for local mode and
// tests. Events published to it are delivered synchronously to every open
// subscription for the matching booking id.
type InProcessChannelAdapter struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]map[*Subscription]struct{}
	logger *slog.Logger
}

// NewInProcessChannelAdapter creates a new in-process adapter.
func NewInProcessChannelAdapter(logger *slog.Logger) *InProcessChannelAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessChannelAdapter{
		subs:   make(map[uuid.UUID]map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscribe opens a subscription for one booking id.
func (a *InProcessChannelAdapter) Subscribe(_ context.Context, bookingID uuid.UUID) (*Subscription, error) {
	s := newSubscription(bookingID)
	s.stop = func() { a.remove(bookingID, s) }

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.subs[bookingID] == nil {
		a.subs[bookingID] = make(map[*Subscription]struct{})
	}
	a.subs[bookingID][s] = struct{}{}

	a.logger.Debug("in-process live subscription opened", "booking_id", bookingID)
	return s, nil
}

// Publish fans a status change out to all subscriptions for its booking id.
// Delivery happens under the adapter lock, so an unsubscribed handle can
// never receive an event after its teardown completes.
func (a *InProcessChannelAdapter) Publish(ev StatusChangeEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for s := range a.subs[ev.BookingID] {
		s.deliver(ev)
	}
}

func (a *InProcessChannelAdapter) remove(bookingID uuid.UUID, s *Subscription) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.subs[bookingID], s)
	if len(a.subs[bookingID]) == 0 {
		delete(a.subs, bookingID)
	}
}

// OpenSubscriptions reports how many subscriptions exist for a booking id.
func (a *InProcessChannelAdapter) OpenSubscriptions(bookingID uuid.UUID) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.subs[bookingID])
}
