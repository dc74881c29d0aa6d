package queries

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
	"github.com/felixgeelhaar/servana/internal/booking/infrastructure/remote"
)

// ListBookingsQuery contains the parameters for listing a customer's bookings.
type ListBookingsQuery struct {
	CustomerID uuid.UUID
}

// ListBookingsHandler handles the ListBookingsQuery.
type ListBookingsHandler struct {
	remote remote.Service
	repo   domain.Repository
	logger *slog.Logger
}

// NewListBookingsHandler creates a new ListBookingsHandler.
func NewListBookingsHandler(remoteSvc remote.Service, repo domain.Repository, logger *slog.Logger) *ListBookingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListBookingsHandler{remote: remoteSvc, repo: repo, logger: logger}
}

// Handle executes the ListBookingsQuery.
func (h *ListBookingsHandler) Handle(ctx context.Context, query ListBookingsQuery) ([]*BookingDTO, error) {
	if h.remote != nil {
		bookings, err := h.remote.ListBookings(ctx, query.CustomerID)
		if err == nil {
			if h.repo != nil {
				for _, b := range bookings {
					if saveErr := h.repo.Save(ctx, b); saveErr != nil {
						h.logger.Warn("caching booking failed", "booking_id", b.ID(), "error", saveErr)
					}
				}
			}
			return toBookingDTOs(bookings, false), nil
		}
		if !errors.Is(err, remote.ErrUnavailable) || h.repo == nil {
			return nil, err
		}
		h.logger.Debug("backend unavailable, serving cached bookings", "customer_id", query.CustomerID)
	}

	if h.repo == nil {
		return nil, remote.ErrUnavailable
	}
	bookings, err := h.repo.FindByCustomer(ctx, query.CustomerID)
	if err != nil {
		return nil, err
	}
	return toBookingDTOs(bookings, true), nil
}

func toBookingDTOs(bookings []*domain.Booking, fromCache bool) []*BookingDTO {
	dtos := make([]*BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		dtos = append(dtos, toBookingDTO(b, fromCache))
	}
	return dtos
}
