// Package subscribers binds message bus events to the booking view models.
package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/servana/internal/booking/application/viewmodel"
	"github.com/felixgeelhaar/servana/internal/booking/domain"
	"github.com/felixgeelhaar/servana/internal/booking/infrastructure/live"
	"github.com/felixgeelhaar/servana/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/servana/pkg/observability"
)

// StatusSubscriber routes booking status events from the message bus into
// the view model registry. Events for bookings without an open view model
// are dropped; the registry hydrates from the backend on demand.
type StatusSubscriber struct {
	registry *viewmodel.Registry
	logger   *slog.Logger
	metrics  observability.Metrics
}

// NewStatusSubscriber creates a new StatusSubscriber.
func NewStatusSubscriber(registry *viewmodel.Registry, logger *slog.Logger, metrics observability.Metrics) *StatusSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &StatusSubscriber{registry: registry, logger: logger, metrics: metrics}
}

// EventTypes returns the routing keys this subscriber handles.
func (s *StatusSubscriber) EventTypes() []string {
	return []string{domain.RoutingKeyStatusChanged}
}

// Handle processes one consumed event.
func (s *StatusSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload struct {
		BookingID uuid.UUID `json:"booking_id"`
		Status    string    `json:"status"`
		ChangedAt time.Time `json:"changed_at"`
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decoding status changed event %s: %w", event.EventID, err)
	}

	status, err := domain.ParseStatus(payload.Status)
	if err != nil {
		// A malformed message would be redelivered forever; drop it.
		s.logger.Warn("dropping status event with unknown status",
			"event_id", event.EventID,
			"booking_id", payload.BookingID,
			"status", payload.Status,
		)
		return nil
	}

	s.metrics.Counter(observability.MetricEventsConsumed, 1)
	s.registry.Dispatch(live.StatusChangeEvent{
		BookingID:  payload.BookingID,
		NewStatus:  status,
		OccurredAt: payload.ChangedAt,
	})
	return nil
}
