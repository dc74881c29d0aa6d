package domain

import "errors"

var (
	// ErrUnknownStatus is returned when parsing an unrecognized status value.
	ErrUnknownStatus = errors.New("unknown booking status")

	// ErrInvalidTransition is returned when a status change would skip a step,
	// regress, or leave a terminal state.
	ErrInvalidTransition = errors.New("invalid booking status transition")

	// ErrDuplicateStatus is returned when a status change targets the current
	// status. Callers treat this as an idempotent no-op, not a fault.
	ErrDuplicateStatus = errors.New("booking already in status")

	// ErrNotReschedulable is returned when rescheduling a booking that has
	// progressed past confirmation.
	ErrNotReschedulable = errors.New("booking can no longer be rescheduled")

	// ErrNotReviewable is returned when reviewing a booking that is not
	// completed or has already been reviewed.
	ErrNotReviewable = errors.New("booking is not reviewable")

	// ErrBookingNotFound is returned by repositories when no booking exists
	// for the given id.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrZeroScheduledAt is returned when a booking is created or rescheduled
	// without a service time.
	ErrZeroScheduledAt = errors.New("booking scheduled time must be set")
)
