package queries

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
	"github.com/felixgeelhaar/servana/internal/booking/infrastructure/remote"
)

// GetBookingQuery contains the parameters for getting a single booking.
type GetBookingQuery struct {
	BookingID uuid.UUID
}

// GetBookingHandler handles the GetBookingQuery.
type GetBookingHandler struct {
	remote remote.Service
	repo   domain.Repository
	logger *slog.Logger
}

// NewGetBookingHandler creates a new GetBookingHandler.
func NewGetBookingHandler(remoteSvc remote.Service, repo domain.Repository, logger *slog.Logger) *GetBookingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetBookingHandler{remote: remoteSvc, repo: repo, logger: logger}
}

// Handle executes the GetBookingQuery. Fresh backend state is preferred and
// cached; when the backend is unreachable the last cached snapshot is served
// with FromCache set.
func (h *GetBookingHandler) Handle(ctx context.Context, query GetBookingQuery) (*BookingDTO, error) {
	if h.remote != nil {
		booking, err := h.remote.FetchBooking(ctx, query.BookingID)
		if err == nil {
			if h.repo != nil {
				if saveErr := h.repo.Save(ctx, booking); saveErr != nil {
					h.logger.Warn("caching booking failed", "booking_id", booking.ID(), "error", saveErr)
				}
			}
			return toBookingDTO(booking, false), nil
		}
		if !errors.Is(err, remote.ErrUnavailable) || h.repo == nil {
			return nil, err
		}
		h.logger.Debug("backend unavailable, serving cached booking", "booking_id", query.BookingID)
	}

	if h.repo == nil {
		return nil, domain.ErrBookingNotFound
	}
	booking, err := h.repo.FindByID(ctx, query.BookingID)
	if err != nil {
		return nil, err
	}
	return toBookingDTO(booking, true), nil
}
