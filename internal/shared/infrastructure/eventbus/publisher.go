package eventbus

import (
	"context"
)

// Publisher is the outbound side of the event bus. Both the RabbitMQ
// publisher and the in-process bus satisfy it, so callers don't care
// which transport the container wired.
type Publisher interface {
	// Publish sends a message under the given routing key.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close releases the underlying connection, if any.
	Close() error
}
