package commands

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
)

func TestSubmitReviewHandler_Handle(t *testing.T) {
	t.Run("reviews a completed booking", func(t *testing.T) {
		completed := bookingAt(t, domain.StatusCompleted)

		remoteSvc := new(mockRemoteService)
		remoteSvc.On("FetchBooking", mock.Anything, completed.ID()).Return(completed, nil)
		remoteSvc.On("SubmitReview", mock.Anything, completed.ID(), 4, "on time").Return(nil)

		repo := new(mockRepository)
		repo.On("Save", mock.Anything, completed).Return(nil)

		publisher := new(mockPublisher)
		publisher.On("Publish", mock.Anything, domain.RoutingKeyReviewSubmitted, mock.Anything).Return(nil)

		handler := NewSubmitReviewHandler(remoteSvc, repo, publisher, slog.New(slog.NewTextHandler(io.Discard, nil)))

		err := handler.Handle(context.Background(), SubmitReviewCommand{
			BookingID: completed.ID(),
			Rating:    4,
			Comment:   "on time",
		})
		require.NoError(t, err)
		assert.True(t, completed.IsReviewed())
		publisher.AssertExpectations(t)
	})

	t.Run("rejects reviews before completion", func(t *testing.T) {
		inProgress := bookingAt(t, domain.StatusInProgress)

		remoteSvc := new(mockRemoteService)
		remoteSvc.On("FetchBooking", mock.Anything, inProgress.ID()).Return(inProgress, nil)

		handler := NewSubmitReviewHandler(remoteSvc, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

		err := handler.Handle(context.Background(), SubmitReviewCommand{
			BookingID: inProgress.ID(),
			Rating:    5,
		})
		assert.ErrorIs(t, err, domain.ErrNotReviewable)
		remoteSvc.AssertNotCalled(t, "SubmitReview", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects a second review", func(t *testing.T) {
		completed := bookingAt(t, domain.StatusCompleted)
		require.NoError(t, completed.MarkReviewed())
		completed.ClearDomainEvents()

		remoteSvc := new(mockRemoteService)
		remoteSvc.On("FetchBooking", mock.Anything, completed.ID()).Return(completed, nil)

		handler := NewSubmitReviewHandler(remoteSvc, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

		err := handler.Handle(context.Background(), SubmitReviewCommand{BookingID: completed.ID(), Rating: 3})
		assert.ErrorIs(t, err, domain.ErrNotReviewable)
	})

	t.Run("rejects an out-of-range rating", func(t *testing.T) {
		handler := NewSubmitReviewHandler(new(mockRemoteService), nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

		assert.ErrorIs(t, handler.Handle(context.Background(), SubmitReviewCommand{Rating: 0}), ErrInvalidRating)
		assert.ErrorIs(t, handler.Handle(context.Background(), SubmitReviewCommand{Rating: 6}), ErrInvalidRating)
	})
}
