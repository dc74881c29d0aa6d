// Package remote talks to the booking backend. All mutations go through it:
// the client never changes booking state until the backend confirms.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
)

// ErrUnavailable reports that the backend is unreachable or the circuit
// breaker is open. Callers treat it as retryable.
var ErrUnavailable = errors.New("booking service unavailable")

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("booking service returned status %d", e.Code)
	}
	return fmt.Sprintf("booking service returned status %d: %s", e.Code, e.Message)
}

// Service is the backend surface the booking client depends on.
type Service interface {
	// FetchBooking retrieves the authoritative state of one booking.
	FetchBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)

	// ListBookings retrieves all bookings for a customer, newest first.
	ListBookings(ctx context.Context, customerID uuid.UUID) ([]*domain.Booking, error)

	// CancelBooking asks the backend to cancel and returns the updated
	// booking on success.
	CancelBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error)

	// RescheduleBooking moves the booking to a new time slot and returns
	// the updated booking on success.
	RescheduleBooking(ctx context.Context, bookingID uuid.UUID, newTime time.Time) (*domain.Booking, error)

	// SubmitReview records a review for a completed booking.
	SubmitReview(ctx context.Context, bookingID uuid.UUID, rating int, comment string) error
}
