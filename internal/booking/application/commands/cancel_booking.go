package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
	"github.com/felixgeelhaar/servana/internal/booking/infrastructure/remote"
	sharedDomain "github.com/felixgeelhaar/servana/internal/shared/domain"
	"github.com/felixgeelhaar/servana/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/servana/pkg/observability"
)

// CancelBookingCommand contains the data needed to cancel a booking.
type CancelBookingCommand struct {
	BookingID uuid.UUID
}

// CancelBookingResult contains the confirmed state after cancellation.
type CancelBookingResult struct {
	Booking     *domain.Booking
	CancelledAt time.Time
}

// CancelBookingHandler handles the CancelBookingCommand.
type CancelBookingHandler struct {
	remote    remote.Service
	repo      domain.Repository
	publisher eventbus.Publisher
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewCancelBookingHandler creates a new CancelBookingHandler.
func NewCancelBookingHandler(remoteSvc remote.Service, repo domain.Repository, publisher eventbus.Publisher, logger *slog.Logger, metrics observability.Metrics) *CancelBookingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &CancelBookingHandler{
		remote:    remoteSvc,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Handle executes the CancelBookingCommand. The backend decides whether the
// cancellation is allowed; local state is only updated from its response.
func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	previous, err := h.remote.FetchBooking(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if !previous.IsCancellable() {
		return nil, domain.ErrInvalidTransition
	}

	booking, err := h.remote.CancelBooking(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}

	if h.repo != nil {
		if err := h.repo.Save(ctx, booking); err != nil {
			h.logger.Warn("caching cancelled booking failed", "booking_id", booking.ID(), "error", err)
		}
	}

	cancelledAt, ok := booking.CancelledAt()
	if !ok {
		cancelledAt = time.Now()
	}
	publishEvents(ctx, h.publisher, h.logger, []sharedDomain.DomainEvent{
		domain.NewBookingStatusChanged(booking, previous.Status(), cancelledAt),
		domain.NewBookingCancelled(booking, cancelledAt),
	})

	h.metrics.Counter(observability.MetricBookingsCancelled, 1)
	h.logger.Info("booking cancelled", "booking_id", booking.ID())

	return &CancelBookingResult{Booking: booking, CancelledAt: cancelledAt}, nil
}
