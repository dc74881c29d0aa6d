package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
)

func TestStatus_Rank(t *testing.T) {
	expected := map[domain.Status]int{
		domain.StatusPending:          0,
		domain.StatusConfirmed:        1,
		domain.StatusProviderAssigned: 2,
		domain.StatusEnRoute:          3,
		domain.StatusInProgress:       4,
		domain.StatusCompleted:        5,
	}

	for status, want := range expected {
		rank, ok := status.Rank()
		require.True(t, ok, status)
		assert.Equal(t, want, rank, status)
	}

	_, ok := domain.StatusCancelled.Rank()
	assert.False(t, ok)
}

func TestStatus_CanTransitionTo_SequentialOnly(t *testing.T) {
	order := domain.CanonicalOrder

	for i, from := range order {
		for j, to := range order {
			got := from.CanTransitionTo(to)
			want := j == i+1
			assert.Equal(t, want, got, "%s -> %s", from, to)
		}
	}
}

func TestStatus_CanTransitionTo_RejectsSkipsAndRegressions(t *testing.T) {
	assert.False(t, domain.StatusPending.CanTransitionTo(domain.StatusInProgress))
	assert.False(t, domain.StatusPending.CanTransitionTo(domain.StatusProviderAssigned))
	assert.False(t, domain.StatusEnRoute.CanTransitionTo(domain.StatusConfirmed))
	assert.False(t, domain.StatusInProgress.CanTransitionTo(domain.StatusPending))
}

func TestStatus_CancellationReachability(t *testing.T) {
	nonTerminal := []domain.Status{
		domain.StatusPending,
		domain.StatusConfirmed,
		domain.StatusProviderAssigned,
		domain.StatusEnRoute,
		domain.StatusInProgress,
	}
	for _, from := range nonTerminal {
		assert.True(t, from.CanTransitionTo(domain.StatusCancelled), from)
	}

	assert.False(t, domain.StatusCompleted.CanTransitionTo(domain.StatusCancelled))
	assert.False(t, domain.StatusCancelled.CanTransitionTo(domain.StatusCancelled))
	assert.False(t, domain.StatusCancelled.CanTransitionTo(domain.StatusPending))
}

func TestStatus_SameStatusIsNotATransition(t *testing.T) {
	for _, status := range domain.CanonicalOrder {
		assert.False(t, status.CanTransitionTo(status), status)
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.True(t, domain.StatusCompleted.IsTerminal())
	assert.True(t, domain.StatusCancelled.IsTerminal())
	assert.False(t, domain.StatusPending.IsTerminal())
	assert.False(t, domain.StatusInProgress.IsTerminal())
}

func TestParseStatus(t *testing.T) {
	t.Run("accepts known values", func(t *testing.T) {
		status, err := domain.ParseStatus("en_route")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusEnRoute, status)

		status, err = domain.ParseStatus("cancelled")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, status)
	})

	t.Run("rejects unknown values", func(t *testing.T) {
		_, err := domain.ParseStatus("shipped")
		assert.ErrorIs(t, err, domain.ErrUnknownStatus)
	})
}

func TestStepPresentation_CoversAllStatuses(t *testing.T) {
	all := append([]domain.Status{}, domain.CanonicalOrder...)
	all = append(all, domain.StatusCancelled)

	for _, status := range all {
		assert.NotEmpty(t, domain.StepLabel(status), status)
		assert.NotEmpty(t, domain.StatusTint(status), status)
	}
}
