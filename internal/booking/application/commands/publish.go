// Package commands holds the booking write operations. Every mutation is
// confirmed by the backend before local state changes; the cache and the
// event bus only ever see authoritative state.
package commands

import (
	"context"
	"encoding/json"
	"log/slog"

	sharedDomain "github.com/felixgeelhaar/servana/internal/shared/domain"
	"github.com/felixgeelhaar/servana/internal/shared/infrastructure/eventbus"
)

// publishEvents wraps each domain event in the bus envelope and publishes it.
// Publish failures are logged, not returned: the mutation already succeeded
// remotely and must not be reported as failed.
func publishEvents(ctx context.Context, publisher eventbus.Publisher, logger *slog.Logger, events []sharedDomain.DomainEvent) {
	if publisher == nil {
		return
	}
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			logger.Error("marshaling domain event", "routing_key", event.RoutingKey(), "error", err)
			continue
		}
		envelope, err := json.Marshal(eventbus.ConsumedEvent{
			EventID:       event.EventID(),
			AggregateID:   event.AggregateID(),
			AggregateType: event.AggregateType(),
			RoutingKey:    event.RoutingKey(),
			OccurredAt:    event.OccurredAt(),
			Payload:       payload,
		})
		if err != nil {
			logger.Error("marshaling event envelope", "routing_key", event.RoutingKey(), "error", err)
			continue
		}
		if err := publisher.Publish(ctx, event.RoutingKey(), envelope); err != nil {
			logger.Error("publishing domain event",
				"routing_key", event.RoutingKey(),
				"aggregate_id", event.AggregateID(),
				"error", err,
			)
		}
	}
}
