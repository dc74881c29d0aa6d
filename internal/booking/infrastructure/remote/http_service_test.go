package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
	"github.com/felixgeelhaar/servana/pkg/observability"
)

func testPayload(id uuid.UUID, statuses ...string) bookingPayload {
	now := time.Now().UTC().Truncate(time.Second)
	history := make([]statusRecordPayload, 0, len(statuses))
	for i, status := range statuses {
		history = append(history, statusRecordPayload{
			Status:     status,
			OccurredAt: now.Add(time.Duration(i) * time.Minute),
		})
	}
	return bookingPayload{
		ID:            id,
		CustomerID:    uuid.New(),
		ServiceName:   "Gutter Cleaning",
		StatusHistory: history,
		ScheduledAt:   now.Add(48 * time.Hour),
		PaymentStatus: string(domain.PaymentPending),
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       len(statuses),
	}
}

func newTestService(t *testing.T, handler http.Handler) (*HTTPService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	svc := NewHTTPService(server.URL, server.Client(), DefaultBreakerConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NoopMetrics{})
	return svc, server
}

func TestHTTPService_FetchBooking(t *testing.T) {
	t.Run("decodes the booking with full history", func(t *testing.T) {
		bookingID := uuid.New()
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, fmt.Sprintf("/bookings/%s", bookingID), r.URL.Path)
			json.NewEncoder(w).Encode(testPayload(bookingID, "pending", "confirmed", "provider_assigned"))
		}))

		booking, err := svc.FetchBooking(context.Background(), bookingID)
		require.NoError(t, err)
		assert.Equal(t, bookingID, booking.ID())
		assert.Equal(t, domain.StatusProviderAssigned, booking.Status())
		assert.Len(t, booking.StatusHistory(), 3)
	})

	t.Run("maps 404 to ErrBookingNotFound", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no such booking", http.StatusNotFound)
		}))

		_, err := svc.FetchBooking(context.Background(), uuid.New())
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})

	t.Run("rejects unknown status values", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(testPayload(uuid.New(), "pending", "teleporting"))
		}))

		_, err := svc.FetchBooking(context.Background(), uuid.New())
		assert.ErrorIs(t, err, domain.ErrUnknownStatus)
	})

	t.Run("wraps 5xx as retryable", func(t *testing.T) {
		svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))

		_, err := svc.FetchBooking(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestHTTPService_ListBookings(t *testing.T) {
	customerID := uuid.New()
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/customers/%s/bookings", customerID), r.URL.Path)
		json.NewEncoder(w).Encode([]bookingPayload{
			testPayload(uuid.New(), "pending", "confirmed"),
			testPayload(uuid.New(), "pending"),
		})
	}))

	bookings, err := svc.ListBookings(context.Background(), customerID)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	assert.Equal(t, domain.StatusConfirmed, bookings[0].Status())
	assert.Equal(t, domain.StatusPending, bookings[1].Status())
}

func TestHTTPService_CancelBooking(t *testing.T) {
	bookingID := uuid.New()
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, fmt.Sprintf("/bookings/%s/cancel", bookingID), r.URL.Path)
		json.NewEncoder(w).Encode(testPayload(bookingID, "pending", "confirmed", "cancelled"))
	}))

	booking, err := svc.CancelBooking(context.Background(), bookingID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, booking.Status())
}

func TestHTTPService_RescheduleBooking(t *testing.T) {
	bookingID := uuid.New()
	newTime := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, newTime.Format(time.RFC3339), body["scheduled_at"])

		payload := testPayload(bookingID, "pending")
		payload.ScheduledAt = newTime
		json.NewEncoder(w).Encode(payload)
	}))

	booking, err := svc.RescheduleBooking(context.Background(), bookingID, newTime)
	require.NoError(t, err)
	assert.True(t, booking.ScheduledAt().Equal(newTime))
}

func TestHTTPService_SubmitReview(t *testing.T) {
	bookingID := uuid.New()
	svc, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, fmt.Sprintf("/bookings/%s/review", bookingID), r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(5), body["rating"])
		assert.Equal(t, "spotless", body["comment"])
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, svc.SubmitReview(context.Background(), bookingID, 5, "spotless"))
}

func TestHTTPService_CircuitBreaker(t *testing.T) {
	t.Run("opens after consecutive server failures", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		cfg := DefaultBreakerConfig()
		cfg.FailureThreshold = 2
		svc := NewHTTPService(server.URL, server.Client(), cfg,
			slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NoopMetrics{})

		for i := 0; i < 3; i++ {
			_, err := svc.FetchBooking(context.Background(), uuid.New())
			require.ErrorIs(t, err, ErrUnavailable)
		}
		assert.Equal(t, "open", svc.BreakerState())
	})

	t.Run("client errors do not trip the breaker", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "missing", http.StatusNotFound)
		}))
		defer server.Close()

		cfg := DefaultBreakerConfig()
		cfg.FailureThreshold = 2
		svc := NewHTTPService(server.URL, server.Client(), cfg,
			slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NoopMetrics{})

		for i := 0; i < 5; i++ {
			_, err := svc.FetchBooking(context.Background(), uuid.New())
			require.ErrorIs(t, err, domain.ErrBookingNotFound)
		}
		assert.Equal(t, "closed", svc.BreakerState())
	})
}
