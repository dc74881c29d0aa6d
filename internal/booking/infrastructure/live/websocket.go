package live

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/servana/pkg/observability"
)

// WebsocketChannelAdapter subscribes to booking status changes over the
// realtime gateway's websocket endpoint, one socket per subscription.
// Reconnect behaviour mirrors the Redis adapter: backoff plus a stale flag.
type WebsocketChannelAdapter struct {
	baseURL    string
	dialer     *websocket.Dialer
	minBackoff time.Duration
	maxBackoff time.Duration
	logger     *slog.Logger
	metrics    observability.Metrics
}

// WebsocketChannelAdapterConfig configures the websocket adapter.
type WebsocketChannelAdapterConfig struct {
	// BaseURL is the gateway root, e.g. wss://realtime.servana.dev.
	BaseURL    string
	Dialer     *websocket.Dialer
	MinBackoff time.Duration
	MaxBackoff time.Duration
	Logger     *slog.Logger
	Metrics    observability.Metrics
}

// NewWebsocketChannelAdapter creates a new websocket-backed channel adapter.
func NewWebsocketChannelAdapter(cfg WebsocketChannelAdapterConfig) *WebsocketChannelAdapter {
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	return &WebsocketChannelAdapter{
		baseURL:    cfg.BaseURL,
		dialer:     cfg.Dialer,
		minBackoff: cfg.MinBackoff,
		maxBackoff: cfg.MaxBackoff,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

func (a *WebsocketChannelAdapter) endpoint(bookingID uuid.UUID) string {
	return fmt.Sprintf("%s/bookings/%s/events", a.baseURL, bookingID)
}

// Subscribe opens a live subscription for one booking id. The call returns
// immediately; dialing and reconnection happen on a background goroutine.
func (a *WebsocketChannelAdapter) Subscribe(ctx context.Context, bookingID uuid.UUID) (*Subscription, error) {
	s := newSubscription(bookingID)

	runCtx, cancel := context.WithCancel(ctx)
	s.stop = cancel

	s.wg.Add(1)
	go a.run(runCtx, bookingID, s)

	a.metrics.Counter(observability.MetricLiveSubscriptions, 1, observability.T("transport", "websocket"))
	return s, nil
}

func (a *WebsocketChannelAdapter) run(ctx context.Context, bookingID uuid.UUID, s *Subscription) {
	defer s.wg.Done()

	endpoint := a.endpoint(bookingID)
	delay := newBackoff(a.minBackoff, a.maxBackoff)

	for {
		conn, _, err := a.dialer.DialContext(ctx, endpoint, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			a.logger.Warn("live websocket dial failed, retrying",
				"booking_id", bookingID,
				"error", err,
			)
			s.setStale(true)
			a.metrics.Counter(observability.MetricLiveReconnects, 1, observability.T("transport", "websocket"))
			if delay.sleep(ctx) != nil {
				return
			}
			continue
		}

		s.setStale(false)
		delay.Reset()
		a.logger.Debug("live websocket connected", "booking_id", bookingID)

		a.readPump(ctx, conn, s)
		_ = conn.Close()

		if ctx.Err() != nil {
			return
		}

		s.setStale(true)
		a.metrics.Counter(observability.MetricLiveReconnects, 1, observability.T("transport", "websocket"))
		if delay.sleep(ctx) != nil {
			return
		}
	}
}

// readPump reads frames until the socket drops or the context ends.
func (a *WebsocketChannelAdapter) readPump(ctx context.Context, conn *websocket.Conn, s *Subscription) {
	// Unblock the blocking read when the subscription is torn down.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		ev, err := ParseStatusChange(payload)
		if err != nil {
			a.logger.Debug("dropping malformed live event",
				"booking_id", s.BookingID(),
				"error", err,
			)
			a.metrics.Counter(observability.MetricLiveEventsDropped, 1, observability.T("transport", "websocket"))
			continue
		}

		s.deliver(ev)
	}
}
