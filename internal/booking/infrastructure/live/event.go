// Package live adapts external push-update transports into normalized
// booking status change events, one subscription per booking id.
package live

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
)

// ErrMalformedEvent is returned when a raw message cannot be normalized.
var ErrMalformedEvent = errors.New("malformed status change event")

// StatusChangeEvent is the normalized form of a live status update.
type StatusChangeEvent struct {
	BookingID  uuid.UUID
	NewStatus  domain.Status
	OccurredAt time.Time
}

// wireStatusChange is the gateway's JSON payload for status updates.
type wireStatusChange struct {
	BookingID  string    `json:"booking_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ParseStatusChange normalizes a raw transport payload. Unknown statuses and
// unparseable ids are rejected so consumers only ever see well-formed events.
func ParseStatusChange(payload []byte) (StatusChangeEvent, error) {
	var wire wireStatusChange
	if err := json.Unmarshal(payload, &wire); err != nil {
		return StatusChangeEvent{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	bookingID, err := uuid.Parse(wire.BookingID)
	if err != nil {
		return StatusChangeEvent{}, fmt.Errorf("%w: booking id %q", ErrMalformedEvent, wire.BookingID)
	}

	status, err := domain.ParseStatus(wire.Status)
	if err != nil {
		return StatusChangeEvent{}, fmt.Errorf("%w: status %q", ErrMalformedEvent, wire.Status)
	}

	return StatusChangeEvent{
		BookingID:  bookingID,
		NewStatus:  status,
		OccurredAt: wire.OccurredAt,
	}, nil
}
