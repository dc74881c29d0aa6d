package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	sharedDomain "github.com/felixgeelhaar/servana/internal/shared/domain"
)

// PaymentStatus tracks payment independently of the booking lifecycle.
// A booking can be completed with payment still pending (cash on service).
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// StatusRecord is one entry in a booking's append-only status history.
type StatusRecord struct {
	Status     Status
	OccurredAt time.Time
}

// Booking is the aggregate root for a customer's service booking.
//
// The status history is append-only and always a prefix of the canonical
// progression, except that cancellation may terminate it early. The current
// status always equals the last history entry.
type Booking struct {
	sharedDomain.BaseAggregateRoot
	customerID    uuid.UUID
	serviceName   string
	status        Status
	statusHistory []StatusRecord
	scheduledAt   time.Time
	totalAmount   decimal.Decimal
	paymentStatus PaymentStatus
	provider      Provider
	reviewed      bool
}

// NewBooking creates a booking in the pending state.
func NewBooking(customerID uuid.UUID, serviceName string, scheduledAt time.Time, totalAmount decimal.Decimal) (*Booking, error) {
	if scheduledAt.IsZero() {
		return nil, ErrZeroScheduledAt
	}

	b := &Booking{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		customerID:        customerID,
		serviceName:       strings.TrimSpace(serviceName),
		status:            StatusPending,
		scheduledAt:       scheduledAt.UTC(),
		totalAmount:       totalAmount,
		paymentStatus:     PaymentPending,
	}
	b.statusHistory = []StatusRecord{{Status: StatusPending, OccurredAt: b.CreatedAt()}}

	b.AddDomainEvent(NewBookingCreated(b))

	return b, nil
}

// RehydrateBooking recreates a booking from persisted state. The history must
// already satisfy the aggregate's invariants; repositories store it verbatim.
func RehydrateBooking(
	entity sharedDomain.BaseEntity,
	version int,
	customerID uuid.UUID,
	serviceName string,
	history []StatusRecord,
	scheduledAt time.Time,
	totalAmount decimal.Decimal,
	paymentStatus PaymentStatus,
	provider Provider,
	reviewed bool,
) *Booking {
	b := &Booking{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(entity, version),
		customerID:        customerID,
		serviceName:       serviceName,
		statusHistory:     history,
		scheduledAt:       scheduledAt,
		totalAmount:       totalAmount,
		paymentStatus:     paymentStatus,
		provider:          provider,
		reviewed:          reviewed,
	}
	if len(history) > 0 {
		b.status = history[len(history)-1].Status
	} else {
		b.status = StatusPending
	}
	return b
}

// Getters

func (b *Booking) CustomerID() uuid.UUID        { return b.customerID }
func (b *Booking) ServiceName() string          { return b.serviceName }
func (b *Booking) Status() Status               { return b.status }
func (b *Booking) ScheduledAt() time.Time       { return b.scheduledAt }
func (b *Booking) TotalAmount() decimal.Decimal { return b.totalAmount }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) Provider() Provider           { return b.provider }
func (b *Booking) IsReviewed() bool             { return b.reviewed }
func (b *Booking) IsCancelled() bool            { return b.status == StatusCancelled }
func (b *Booking) IsCompleted() bool            { return b.status == StatusCompleted }

// StatusHistory returns a copy of the append-only status history.
func (b *Booking) StatusHistory() []StatusRecord {
	history := make([]StatusRecord, len(b.statusHistory))
	copy(history, b.statusHistory)
	return history
}

// Derived flags recomputed from the current status.

// IsCancellable reports whether the booking can still be cancelled.
func (b *Booking) IsCancellable() bool {
	return !b.status.IsTerminal()
}

// IsReschedulable reports whether the service time can still be changed.
func (b *Booking) IsReschedulable() bool {
	return b.status == StatusPending || b.status == StatusConfirmed
}

// IsReviewable reports whether the customer can leave a review.
func (b *Booking) IsReviewable() bool {
	return b.status == StatusCompleted && !b.reviewed
}

// LastProgressStatus returns the furthest canonical status reached. For a
// cancelled booking this is the status it held before cancellation, so the
// timeline still shows how far it got.
func (b *Booking) LastProgressStatus() Status {
	for i := len(b.statusHistory) - 1; i >= 0; i-- {
		if b.statusHistory[i].Status != StatusCancelled {
			return b.statusHistory[i].Status
		}
	}
	return StatusPending
}

// StatusRecordedAt returns when the given status was entered, if it was.
func (b *Booking) StatusRecordedAt(status Status) (time.Time, bool) {
	for _, rec := range b.statusHistory {
		if rec.Status == status {
			return rec.OccurredAt, true
		}
	}
	return time.Time{}, false
}

// CancelledAt returns the cancellation time, if the booking was cancelled.
func (b *Booking) CancelledAt() (time.Time, bool) {
	return b.StatusRecordedAt(StatusCancelled)
}

// RecordStatus applies a validated status transition. A repeat of the current
// status returns ErrDuplicateStatus so callers can treat it as a no-op without
// logging it as a fault; anything else that fails validation returns
// ErrInvalidTransition and leaves the booking unchanged.
func (b *Booking) RecordStatus(status Status, occurredAt time.Time) error {
	if status == b.status {
		return ErrDuplicateStatus
	}
	if !b.status.CanTransitionTo(status) {
		return ErrInvalidTransition
	}

	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	occurredAt = occurredAt.UTC()

	// History stays monotone even when the network delivers a valid
	// transition with an earlier wall-clock timestamp.
	if last := b.statusHistory[len(b.statusHistory)-1]; occurredAt.Before(last.OccurredAt) {
		occurredAt = last.OccurredAt
	}

	previous := b.status
	b.statusHistory = append(b.statusHistory, StatusRecord{Status: status, OccurredAt: occurredAt})
	b.status = status
	b.Touch()

	b.AddDomainEvent(NewBookingStatusChanged(b, previous, occurredAt))
	if status == StatusCancelled {
		b.AddDomainEvent(NewBookingCancelled(b, occurredAt))
	}

	return nil
}

// AssignProvider sets the provider identity shown to the customer. Providers
// are attached once the booking reaches provider_assigned; reassignment while
// the booking is live is allowed.
func (b *Booking) AssignProvider(provider Provider) {
	b.provider = provider
	b.Touch()
}

// Reschedule changes the customer-selected service time. It never touches the
// status or the status history, and is only permitted before a provider is
// dispatched.
func (b *Booking) Reschedule(newTime time.Time) error {
	if newTime.IsZero() {
		return ErrZeroScheduledAt
	}
	if !b.IsReschedulable() {
		return ErrNotReschedulable
	}

	previous := b.scheduledAt
	b.scheduledAt = newTime.UTC()
	b.Touch()

	b.AddDomainEvent(NewBookingRescheduled(b, previous))

	return nil
}

// MarkReviewed records that the customer submitted a review.
func (b *Booking) MarkReviewed() error {
	if !b.IsReviewable() {
		return ErrNotReviewable
	}

	b.reviewed = true
	b.Touch()

	b.AddDomainEvent(NewBookingReviewSubmitted(b))

	return nil
}

// SetPaymentStatus updates the payment axis. Payment is independent of the
// booking lifecycle and has no transition rules of its own here.
func (b *Booking) SetPaymentStatus(status PaymentStatus) {
	b.paymentStatus = status
	b.Touch()
}
