package domain

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists booking snapshots in the local cache.
type Repository interface {
	// Save inserts or updates a booking and its status history.
	Save(ctx context.Context, booking *Booking) error

	// FindByID returns a booking by id, or ErrBookingNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByCustomer returns all bookings for a customer, newest first.
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Booking, error)
}
