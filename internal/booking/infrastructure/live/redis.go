package live

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/servana/pkg/observability"
)

// statusChannel is the Pub/Sub channel the gateway publishes status changes on.
func statusChannel(bookingID uuid.UUID) string {
	return fmt.Sprintf("booking:status:%s", bookingID)
}

// RedisChannelAdapter subscribes to booking status changes over Redis Pub/Sub.
// Connection drops trigger automatic resubscription with capped exponential
// backoff; consumers see a stale flag while reconnecting, never an error.
type RedisChannelAdapter struct {
	client     *redis.Client
	minBackoff time.Duration
	maxBackoff time.Duration
	logger     *slog.Logger
	metrics    observability.Metrics
}

// RedisChannelAdapterConfig configures the Redis adapter.
type RedisChannelAdapterConfig struct {
	Client     *redis.Client
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Logger     *slog.Logger
	Metrics    observability.Metrics
}

// NewRedisChannelAdapter creates a new Redis-backed channel adapter.
func NewRedisChannelAdapter(cfg RedisChannelAdapterConfig) *RedisChannelAdapter {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	return &RedisChannelAdapter{
		client:     cfg.Client,
		minBackoff: cfg.MinBackoff,
		maxBackoff: cfg.MaxBackoff,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

// Subscribe opens a live subscription for one booking id. The call returns
// immediately; connection and reconnection happen on a background goroutine.
func (a *RedisChannelAdapter) Subscribe(ctx context.Context, bookingID uuid.UUID) (*Subscription, error) {
	s := newSubscription(bookingID)

	runCtx, cancel := context.WithCancel(ctx)
	s.stop = cancel

	s.wg.Add(1)
	go a.run(runCtx, bookingID, s)

	a.metrics.Counter(observability.MetricLiveSubscriptions, 1, observability.T("transport", "redis"))
	return s, nil
}

func (a *RedisChannelAdapter) run(ctx context.Context, bookingID uuid.UUID, s *Subscription) {
	defer s.wg.Done()

	channel := statusChannel(bookingID)
	delay := newBackoff(a.minBackoff, a.maxBackoff)

	for {
		pubsub := a.client.Subscribe(ctx, channel)

		// Confirm the subscription before reporting the stream live.
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			a.logger.Warn("live subscription failed, retrying",
				"booking_id", bookingID,
				"error", err,
			)
			s.setStale(true)
			a.metrics.Counter(observability.MetricLiveReconnects, 1, observability.T("transport", "redis"))
			if delay.sleep(ctx) != nil {
				return
			}
			continue
		}

		s.setStale(false)
		delay.Reset()
		a.logger.Debug("live subscription established", "booking_id", bookingID, "channel", channel)

		a.consume(ctx, pubsub, s)
		_ = pubsub.Close()

		if ctx.Err() != nil {
			return
		}

		s.setStale(true)
		a.metrics.Counter(observability.MetricLiveReconnects, 1, observability.T("transport", "redis"))
		if delay.sleep(ctx) != nil {
			return
		}
	}
}

// consume reads messages until the connection drops or the context ends.
func (a *RedisChannelAdapter) consume(ctx context.Context, pubsub *redis.PubSub, s *Subscription) {
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			return
		}

		ev, err := ParseStatusChange([]byte(msg.Payload))
		if err != nil {
			a.logger.Debug("dropping malformed live event",
				"booking_id", s.BookingID(),
				"error", err,
			)
			a.metrics.Counter(observability.MetricLiveEventsDropped, 1, observability.T("transport", "redis"))
			continue
		}

		s.deliver(ev)
	}
}
