package live

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
)

// eventBuffer bounds how far a subscription can run ahead of its consumer
// before the producer blocks.
const eventBuffer = 16

// ChannelAdapter opens live update subscriptions, one per booking id.
type ChannelAdapter interface {
	Subscribe(ctx context.Context, bookingID uuid.UUID) (*Subscription, error)
}

// Subscription is a handle on the live update stream for one booking.
//
// Events delivers normalized status changes until Unsubscribe is called.
// Stale signals true while the underlying connection is reconnecting and
// false once it is live again. Unsubscribe is synchronous: once it returns,
// no further events are delivered and both channels are closed.
type Subscription struct {
	bookingID uuid.UUID
	events    chan StatusChangeEvent
	stale     chan bool
	done      chan struct{}
	stop      func()
	wg        sync.WaitGroup
	once      sync.Once

	mu      sync.Mutex
	last    domain.Status
	hasLast bool
}

func newSubscription(bookingID uuid.UUID) *Subscription {
	return &Subscription{
		bookingID: bookingID,
		events:    make(chan StatusChangeEvent, eventBuffer),
		stale:     make(chan bool, 1),
		done:      make(chan struct{}),
	}
}

// BookingID returns the booking this subscription tracks.
func (s *Subscription) BookingID() uuid.UUID { return s.bookingID }

// Events returns the normalized status change stream.
func (s *Subscription) Events() <-chan StatusChangeEvent { return s.events }

// Stale returns the reconnect indicator stream, latest value wins.
func (s *Subscription) Stale() <-chan bool { return s.stale }

// Unsubscribe tears the subscription down. It stops the transport, waits for
// producer goroutines to exit, and closes the channels. Safe to call more
// than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		if s.stop != nil {
			s.stop()
		}
		s.wg.Wait()
		close(s.events)
		close(s.stale)
	})
}

// deliver pushes one event to the consumer. Consecutive duplicates are
// suppressed here; everything subtler (out-of-order, stale) is the view
// model's call. Returns false if the event was suppressed or the
// subscription is shutting down.
func (s *Subscription) deliver(ev StatusChangeEvent) bool {
	s.mu.Lock()
	if s.hasLast && s.last == ev.NewStatus {
		s.mu.Unlock()
		return false
	}
	s.last = ev.NewStatus
	s.hasLast = true
	s.mu.Unlock()

	select {
	case <-s.done:
		return false
	case s.events <- ev:
		return true
	}
}

// setStale publishes the reconnect indicator, keeping only the latest value.
func (s *Subscription) setStale(stale bool) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case <-s.stale:
	default:
	}
	select {
	case s.stale <- stale:
	default:
	}
}

// backoff implements capped exponential delay between reconnect attempts.
type backoff struct {
	min     time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(min, max time.Duration) *backoff {
	if min <= 0 {
		min = 500 * time.Millisecond
	}
	if max < min {
		max = min
	}
	return &backoff{min: min, max: max}
}

// Next returns the delay before the next attempt, doubling up to the cap.
func (b *backoff) Next() time.Duration {
	if b.current == 0 {
		b.current = b.min
		return b.current
	}
	b.current *= 2
	if b.current > b.max {
		b.current = b.max
	}
	return b.current
}

// Reset restores the initial delay after a successful connect.
func (b *backoff) Reset() {
	b.current = 0
}

// sleep waits for the next backoff delay or context cancellation.
func (b *backoff) sleep(ctx context.Context) error {
	timer := time.NewTimer(b.Next())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
