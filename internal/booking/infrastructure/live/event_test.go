package live

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
)

func TestParseStatusChange(t *testing.T) {
	bookingID := uuid.New()
	occurredAt := time.Date(2025, 6, 12, 14, 30, 0, 0, time.UTC)

	t.Run("normalizes a valid payload", func(t *testing.T) {
		payload := fmt.Sprintf(
			`{"booking_id":%q,"status":"en_route","occurred_at":%q}`,
			bookingID, occurredAt.Format(time.RFC3339),
		)

		ev, err := ParseStatusChange([]byte(payload))

		require.NoError(t, err)
		assert.Equal(t, bookingID, ev.BookingID)
		assert.Equal(t, domain.StatusEnRoute, ev.NewStatus)
		assert.Equal(t, occurredAt, ev.OccurredAt)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		_, err := ParseStatusChange([]byte(`{`))
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		payload := fmt.Sprintf(`{"booking_id":%q,"status":"teleporting"}`, bookingID)
		_, err := ParseStatusChange([]byte(payload))
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})

	t.Run("rejects bad booking id", func(t *testing.T) {
		_, err := ParseStatusChange([]byte(`{"booking_id":"abc","status":"pending"}`))
		assert.ErrorIs(t, err, ErrMalformedEvent)
	})
}

func TestBackoff(t *testing.T) {
	t.Run("doubles up to the cap", func(t *testing.T) {
		b := newBackoff(time.Second, 5*time.Second)

		assert.Equal(t, time.Second, b.Next())
		assert.Equal(t, 2*time.Second, b.Next())
		assert.Equal(t, 4*time.Second, b.Next())
		assert.Equal(t, 5*time.Second, b.Next())
		assert.Equal(t, 5*time.Second, b.Next())
	})

	t.Run("reset restores the initial delay", func(t *testing.T) {
		b := newBackoff(time.Second, time.Minute)
		b.Next()
		b.Next()
		b.Reset()

		assert.Equal(t, time.Second, b.Next())
	})

	t.Run("defaults protect against zero bounds", func(t *testing.T) {
		b := newBackoff(0, 0)
		first := b.Next()
		assert.Positive(t, first)
	})
}
