package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/felixgeelhaar/servana/internal/shared/domain"
)

const aggregateType = "Booking"

// Routing keys for booking domain events.
const (
	RoutingKeyCreated         = "booking.created"
	RoutingKeyStatusChanged   = "booking.status.changed"
	RoutingKeyRescheduled     = "booking.rescheduled"
	RoutingKeyCancelled       = "booking.cancelled"
	RoutingKeyReviewSubmitted = "booking.review.submitted"
)

// BookingCreated is emitted when a booking is placed.
type BookingCreated struct {
	sharedDomain.BaseEvent
	BookingID   uuid.UUID `json:"booking_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	ServiceName string    `json:"service_name"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// NewBookingCreated creates a BookingCreated event.
func NewBookingCreated(b *Booking) *BookingCreated {
	return &BookingCreated{
		BaseEvent:   sharedDomain.NewBaseEvent(b.ID(), aggregateType, RoutingKeyCreated),
		BookingID:   b.ID(),
		CustomerID:  b.CustomerID(),
		ServiceName: b.ServiceName(),
		ScheduledAt: b.ScheduledAt(),
	}
}

// BookingStatusChanged is emitted on every accepted status transition.
type BookingStatusChanged struct {
	sharedDomain.BaseEvent
	BookingID      uuid.UUID `json:"booking_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status"`
	ChangedAt      time.Time `json:"changed_at"`
}

// NewBookingStatusChanged creates a BookingStatusChanged event.
func NewBookingStatusChanged(b *Booking, previous Status, changedAt time.Time) *BookingStatusChanged {
	return &BookingStatusChanged{
		BaseEvent:      sharedDomain.NewBaseEvent(b.ID(), aggregateType, RoutingKeyStatusChanged),
		BookingID:      b.ID(),
		Status:         b.Status().String(),
		PreviousStatus: previous.String(),
		ChangedAt:      changedAt,
	}
}

// BookingRescheduled is emitted when the service time changes.
type BookingRescheduled struct {
	sharedDomain.BaseEvent
	BookingID           uuid.UUID `json:"booking_id"`
	ScheduledAt         time.Time `json:"scheduled_at"`
	PreviousScheduledAt time.Time `json:"previous_scheduled_at"`
}

// NewBookingRescheduled creates a BookingRescheduled event.
func NewBookingRescheduled(b *Booking, previous time.Time) *BookingRescheduled {
	return &BookingRescheduled{
		BaseEvent:           sharedDomain.NewBaseEvent(b.ID(), aggregateType, RoutingKeyRescheduled),
		BookingID:           b.ID(),
		ScheduledAt:         b.ScheduledAt(),
		PreviousScheduledAt: previous,
	}
}

// BookingCancelled is emitted alongside the status change when a booking is
// cancelled, so consumers that only care about cancellation can bind one key.
type BookingCancelled struct {
	sharedDomain.BaseEvent
	BookingID   uuid.UUID `json:"booking_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// NewBookingCancelled creates a BookingCancelled event.
func NewBookingCancelled(b *Booking, cancelledAt time.Time) *BookingCancelled {
	return &BookingCancelled{
		BaseEvent:   sharedDomain.NewBaseEvent(b.ID(), aggregateType, RoutingKeyCancelled),
		BookingID:   b.ID(),
		CancelledAt: cancelledAt,
	}
}

// BookingReviewSubmitted is emitted when the customer reviews a completed booking.
type BookingReviewSubmitted struct {
	sharedDomain.BaseEvent
	BookingID uuid.UUID `json:"booking_id"`
}

// NewBookingReviewSubmitted creates a BookingReviewSubmitted event.
func NewBookingReviewSubmitted(b *Booking) *BookingReviewSubmitted {
	return &BookingReviewSubmitted{
		BaseEvent: sharedDomain.NewBaseEvent(b.ID(), aggregateType, RoutingKeyReviewSubmitted),
		BookingID: b.ID(),
	}
}
