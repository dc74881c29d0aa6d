package commands

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
)

type mockRemoteService struct {
	mock.Mock
}

func (m *mockRemoteService) FetchBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if b := args.Get(0); b != nil {
		return b.(*domain.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRemoteService) ListBookings(ctx context.Context, customerID uuid.UUID) ([]*domain.Booking, error) {
	args := m.Called(ctx, customerID)
	if b := args.Get(0); b != nil {
		return b.([]*domain.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRemoteService) CancelBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if b := args.Get(0); b != nil {
		return b.(*domain.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRemoteService) RescheduleBooking(ctx context.Context, bookingID uuid.UUID, newTime time.Time) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, newTime)
	if b := args.Get(0); b != nil {
		return b.(*domain.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRemoteService) SubmitReview(ctx context.Context, bookingID uuid.UUID, rating int, comment string) error {
	args := m.Called(ctx, bookingID, rating, comment)
	return args.Error(0)
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Save(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *mockRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*domain.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]*domain.Booking, error) {
	args := m.Called(ctx, customerID)
	if b := args.Get(0); b != nil {
		return b.([]*domain.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	args := m.Called(ctx, routingKey, payload)
	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func bookingAt(t *testing.T, target domain.Status) *domain.Booking {
	t.Helper()
	b, err := domain.NewBooking(uuid.New(), "House Painting", time.Now().Add(24*time.Hour), decimal.NewFromInt(400))
	require.NoError(t, err)
	for _, status := range domain.CanonicalOrder[1:] {
		rank, _ := status.Rank()
		targetRank, _ := target.Rank()
		if rank > targetRank {
			break
		}
		require.NoError(t, b.RecordStatus(status, time.Now()))
	}
	b.ClearDomainEvents()
	require.Equal(t, target, b.Status())
	return b
}

func cancelledCopy(t *testing.T, b *domain.Booking) *domain.Booking {
	t.Helper()
	require.NoError(t, b.RecordStatus(domain.StatusCancelled, time.Now()))
	b.ClearDomainEvents()
	return b
}
