package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
)

func TestDeriveTimeline_PendingBooking(t *testing.T) {
	b := newTestBooking(t)

	timeline := domain.DeriveTimeline(b)

	require.Len(t, timeline.Steps, 6)
	assert.Nil(t, timeline.Cancelled)

	first := timeline.Steps[0]
	assert.Equal(t, domain.StatusPending, first.Status)
	assert.True(t, first.Completed)
	assert.True(t, first.Current)
	require.NotNil(t, first.Timestamp)

	for _, step := range timeline.Steps[1:] {
		assert.False(t, step.Completed, step.Status)
		assert.False(t, step.Current, step.Status)
		assert.Nil(t, step.Timestamp, step.Status)
	}
}

func TestDeriveTimeline_MidProgress(t *testing.T) {
	// Scenario A: pending booking receives confirmed, provider_assigned,
	// en_route in order.
	b := newTestBooking(t)
	advance(t, b, domain.StatusEnRoute)

	timeline := domain.DeriveTimeline(b)

	require.Len(t, timeline.Steps, 6)

	var completed, currentCount int
	for _, step := range timeline.Steps {
		if step.Completed {
			completed++
		}
		if step.Current {
			currentCount++
			assert.Equal(t, domain.StatusEnRoute, step.Status)
		}
	}
	assert.Equal(t, 4, completed) // pending, confirmed, provider_assigned, en_route
	assert.Equal(t, 1, currentCount)

	assert.False(t, timeline.Steps[4].Completed) // in_progress
	assert.False(t, timeline.Steps[5].Completed) // completed

	current, ok := timeline.CurrentStep()
	require.True(t, ok)
	assert.Equal(t, domain.StatusEnRoute, current.Status)
}

func TestDeriveTimeline_CancelledBooking(t *testing.T) {
	// Scenario C: confirmed booking is cancelled. The timeline still shows
	// how far it got, no step is current, and the banner carries the time.
	b := newTestBooking(t)
	require.NoError(t, b.RecordStatus(domain.StatusConfirmed, time.Now()))
	require.NoError(t, b.RecordStatus(domain.StatusCancelled, time.Now()))

	timeline := domain.DeriveTimeline(b)

	assert.True(t, timeline.Steps[0].Completed)
	assert.True(t, timeline.Steps[1].Completed)
	for _, step := range timeline.Steps[2:] {
		assert.False(t, step.Completed, step.Status)
	}

	_, ok := timeline.CurrentStep()
	assert.False(t, ok)

	require.NotNil(t, timeline.Cancelled)
	assert.Equal(t, "Cancelled", timeline.Cancelled.Label)
	cancelledAt, found := b.CancelledAt()
	require.True(t, found)
	assert.Equal(t, cancelledAt, timeline.Cancelled.CancelledAt)
}

func TestDeriveTimeline_TimestampsComeFromHistory(t *testing.T) {
	b := newTestBooking(t)
	confirmedAt := time.Now().Add(time.Minute)
	require.NoError(t, b.RecordStatus(domain.StatusConfirmed, confirmedAt))

	timeline := domain.DeriveTimeline(b)

	require.NotNil(t, timeline.Steps[1].Timestamp)
	assert.Equal(t, confirmedAt.UTC(), *timeline.Steps[1].Timestamp)
	assert.Nil(t, timeline.Steps[2].Timestamp)
}

func TestDeriveTimeline_IsPure(t *testing.T) {
	b := newTestBooking(t)
	advance(t, b, domain.StatusInProgress)

	first := domain.DeriveTimeline(b)
	second := domain.DeriveTimeline(b)

	assert.Equal(t, first, second)
}
