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

// RescheduleBookingCommand contains the data needed to move a booking.
type RescheduleBookingCommand struct {
	BookingID uuid.UUID
	NewTime   time.Time
}

// RescheduleBookingResult contains the confirmed state after rescheduling.
type RescheduleBookingResult struct {
	Booking             *domain.Booking
	PreviousScheduledAt time.Time
}

// RescheduleBookingHandler handles the RescheduleBookingCommand.
type RescheduleBookingHandler struct {
	remote    remote.Service
	repo      domain.Repository
	publisher eventbus.Publisher
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewRescheduleBookingHandler creates a new RescheduleBookingHandler.
func NewRescheduleBookingHandler(remoteSvc remote.Service, repo domain.Repository, publisher eventbus.Publisher, logger *slog.Logger, metrics observability.Metrics) *RescheduleBookingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &RescheduleBookingHandler{
		remote:    remoteSvc,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Handle executes the RescheduleBookingCommand. Rescheduling never changes
// the booking status; only the scheduled time moves, and only after the
// backend confirms the new slot.
func (h *RescheduleBookingHandler) Handle(ctx context.Context, cmd RescheduleBookingCommand) (*RescheduleBookingResult, error) {
	if cmd.NewTime.IsZero() {
		return nil, domain.ErrZeroScheduledAt
	}

	previous, err := h.remote.FetchBooking(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if !previous.IsReschedulable() {
		return nil, domain.ErrNotReschedulable
	}

	booking, err := h.remote.RescheduleBooking(ctx, cmd.BookingID, cmd.NewTime)
	if err != nil {
		return nil, err
	}

	if h.repo != nil {
		if err := h.repo.Save(ctx, booking); err != nil {
			h.logger.Warn("caching rescheduled booking failed", "booking_id", booking.ID(), "error", err)
		}
	}

	publishEvents(ctx, h.publisher, h.logger, []sharedDomain.DomainEvent{
		domain.NewBookingRescheduled(booking, previous.ScheduledAt()),
	})

	h.metrics.Counter(observability.MetricBookingsRescheduled, 1)
	h.logger.Info("booking rescheduled",
		"booking_id", booking.ID(),
		"scheduled_at", booking.ScheduledAt(),
	)

	return &RescheduleBookingResult{
		Booking:             booking,
		PreviousScheduledAt: previous.ScheduledAt(),
	}, nil
}
