package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
	"github.com/felixgeelhaar/servana/internal/booking/infrastructure/remote"
	"github.com/felixgeelhaar/servana/internal/shared/infrastructure/eventbus"
)

// ErrInvalidRating reports a rating outside the 1-5 range.
var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// SubmitReviewCommand contains the data needed to review a booking.
type SubmitReviewCommand struct {
	BookingID uuid.UUID
	Rating    int
	Comment   string
}

// SubmitReviewHandler handles the SubmitReviewCommand.
type SubmitReviewHandler struct {
	remote    remote.Service
	repo      domain.Repository
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewSubmitReviewHandler creates a new SubmitReviewHandler.
func NewSubmitReviewHandler(remoteSvc remote.Service, repo domain.Repository, publisher eventbus.Publisher, logger *slog.Logger) *SubmitReviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitReviewHandler{
		remote:    remoteSvc,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle executes the SubmitReviewCommand. Reviews are only accepted for
// completed bookings that have not been reviewed yet.
func (h *SubmitReviewHandler) Handle(ctx context.Context, cmd SubmitReviewCommand) error {
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return ErrInvalidRating
	}

	booking, err := h.remote.FetchBooking(ctx, cmd.BookingID)
	if err != nil {
		return err
	}
	if !booking.IsReviewable() {
		return domain.ErrNotReviewable
	}

	if err := h.remote.SubmitReview(ctx, cmd.BookingID, cmd.Rating, cmd.Comment); err != nil {
		return err
	}

	if err := booking.MarkReviewed(); err != nil {
		return err
	}
	if h.repo != nil {
		if err := h.repo.Save(ctx, booking); err != nil {
			h.logger.Warn("caching reviewed booking failed", "booking_id", booking.ID(), "error", err)
		}
	}

	publishEvents(ctx, h.publisher, h.logger, booking.DomainEvents())
	booking.ClearDomainEvents()

	h.logger.Info("review submitted", "booking_id", booking.ID(), "rating", cmd.Rating)
	return nil
}
