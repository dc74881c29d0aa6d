package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
	sharedDomain "github.com/felixgeelhaar/servana/internal/shared/domain"
	"github.com/felixgeelhaar/servana/pkg/observability"
)

// BreakerConfig configures the circuit breaker around backend calls.
type BreakerConfig struct {
	// MaxRequests is the maximum number of requests allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that trips
	// the breaker.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns a sensible default configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// HTTPService implements Service against the booking REST API. Every call
// goes through one circuit breaker; client errors (4xx) do not count as
// failures, only transport errors and 5xx do.
type HTTPService struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewHTTPService creates a backend client.
func NewHTTPService(baseURL string, client *http.Client, cfg BreakerConfig, logger *slog.Logger, metrics observability.Metrics) *HTTPService {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}

	s := &HTTPService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
		metrics: metrics,
	}

	settings := gobreaker.Settings{
		Name:        "booking-api",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var statusErr *StatusError
			return errors.As(err, &statusErr) && statusErr.Code < http.StatusInternalServerError
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			if to == gobreaker.StateOpen {
				metrics.Counter(observability.MetricRemoteCircuitOpen, 1)
			}
		},
	}
	s.breaker = gobreaker.NewCircuitBreaker[*http.Response](settings)

	return s
}

// FetchBooking retrieves the authoritative state of one booking.
func (s *HTTPService) FetchBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	var payload bookingPayload
	if err := s.call(ctx, http.MethodGet, fmt.Sprintf("/bookings/%s", bookingID), nil, &payload); err != nil {
		return nil, err
	}
	return payload.toDomain()
}

// ListBookings retrieves all bookings for a customer, newest first.
func (s *HTTPService) ListBookings(ctx context.Context, customerID uuid.UUID) ([]*domain.Booking, error) {
	var payloads []bookingPayload
	if err := s.call(ctx, http.MethodGet, fmt.Sprintf("/customers/%s/bookings", customerID), nil, &payloads); err != nil {
		return nil, err
	}

	bookings := make([]*domain.Booking, 0, len(payloads))
	for _, p := range payloads {
		b, err := p.toDomain()
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, nil
}

// CancelBooking asks the backend to cancel and returns the updated booking.
func (s *HTTPService) CancelBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	var payload bookingPayload
	if err := s.call(ctx, http.MethodPost, fmt.Sprintf("/bookings/%s/cancel", bookingID), nil, &payload); err != nil {
		return nil, err
	}
	return payload.toDomain()
}

// RescheduleBooking moves the booking to a new time slot.
func (s *HTTPService) RescheduleBooking(ctx context.Context, bookingID uuid.UUID, newTime time.Time) (*domain.Booking, error) {
	body := map[string]any{"scheduled_at": newTime.UTC().Format(time.RFC3339)}
	var payload bookingPayload
	if err := s.call(ctx, http.MethodPost, fmt.Sprintf("/bookings/%s/reschedule", bookingID), body, &payload); err != nil {
		return nil, err
	}
	return payload.toDomain()
}

// SubmitReview records a review for a completed booking.
func (s *HTTPService) SubmitReview(ctx context.Context, bookingID uuid.UUID, rating int, comment string) error {
	body := map[string]any{"rating": rating, "comment": comment}
	return s.call(ctx, http.MethodPost, fmt.Sprintf("/bookings/%s/review", bookingID), body, nil)
}

// BreakerState reports the current circuit breaker state.
func (s *HTTPService) BreakerState() string {
	return s.breaker.State().String()
}

// call performs one request through the circuit breaker and decodes the
// response into out when it is non-nil.
func (s *HTTPService) call(ctx context.Context, method, path string, body any, out any) error {
	start := time.Now()

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.breaker.Execute(func() (*http.Response, error) {
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			defer resp.Body.Close()
			message, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return nil, &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(message))}
		}
		return resp, nil
	})

	s.metrics.Counter(observability.MetricRemoteCalls, 1, observability.T("method", method))
	s.metrics.Timing(observability.MetricRemoteCallDuration, time.Since(start))

	if err != nil {
		return s.mapError(method, path, err)
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (s *HTTPService) mapError(method, path string, err error) error {
	var statusErr *StatusError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: circuit open", ErrUnavailable)
	case errors.As(err, &statusErr):
		if statusErr.Code == http.StatusNotFound {
			return domain.ErrBookingNotFound
		}
		if statusErr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %v", ErrUnavailable, statusErr)
		}
		return statusErr
	default:
		s.logger.Warn("booking service call failed",
			"method", method,
			"path", path,
			"error", err,
		)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// bookingPayload is the wire representation of a booking.
type bookingPayload struct {
	ID            uuid.UUID             `json:"id"`
	CustomerID    uuid.UUID             `json:"customer_id"`
	ServiceName   string                `json:"service_name"`
	StatusHistory []statusRecordPayload `json:"status_history"`
	ScheduledAt   time.Time             `json:"scheduled_at"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	PaymentStatus string                `json:"payment_status"`
	Provider      *providerPayload      `json:"provider,omitempty"`
	Reviewed      bool                  `json:"reviewed"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Version       int                   `json:"version"`
}

type statusRecordPayload struct {
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

type providerPayload struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	AvatarURL string    `json:"avatar_url"`
}

func (p bookingPayload) toDomain() (*domain.Booking, error) {
	history := make([]domain.StatusRecord, 0, len(p.StatusHistory))
	for _, rec := range p.StatusHistory {
		status, err := domain.ParseStatus(rec.Status)
		if err != nil {
			return nil, fmt.Errorf("booking %s: %w", p.ID, err)
		}
		history = append(history, domain.StatusRecord{Status: status, OccurredAt: rec.OccurredAt})
	}

	var provider domain.Provider
	if p.Provider != nil {
		provider = domain.Provider{
			ID:        p.Provider.ID,
			Name:      p.Provider.Name,
			Phone:     p.Provider.Phone,
			AvatarURL: p.Provider.AvatarURL,
		}
	}

	return domain.RehydrateBooking(
		sharedDomain.RehydrateBaseEntity(p.ID, p.CreatedAt, p.UpdatedAt),
		p.Version,
		p.CustomerID,
		p.ServiceName,
		history,
		p.ScheduledAt,
		p.TotalAmount,
		domain.PaymentStatus(p.PaymentStatus),
		provider,
		p.Reviewed,
	), nil
}
