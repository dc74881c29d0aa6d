package queries

import (
	"context"

	"github.com/google/uuid"
)

// GetTimelineQuery contains the parameters for deriving a booking timeline.
type GetTimelineQuery struct {
	BookingID uuid.UUID
}

// GetTimelineHandler handles the GetTimelineQuery.
type GetTimelineHandler struct {
	bookings *GetBookingHandler
}

// NewGetTimelineHandler creates a new GetTimelineHandler.
func NewGetTimelineHandler(bookings *GetBookingHandler) *GetTimelineHandler {
	return &GetTimelineHandler{bookings: bookings}
}

// Handle executes the GetTimelineQuery.
func (h *GetTimelineHandler) Handle(ctx context.Context, query GetTimelineQuery) (*TimelineDTO, error) {
	booking, err := h.bookings.Handle(ctx, GetBookingQuery{BookingID: query.BookingID})
	if err != nil {
		return nil, err
	}
	return &booking.Timeline, nil
}
