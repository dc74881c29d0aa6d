package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
)

// LocalBookingService implements the remote service surface against the
// local cache. Used in local mode, where there is no marketplace backend;
// every operation applies the domain rules directly and persists the result.
type LocalBookingService struct {
	repo   domain.Repository
	logger *slog.Logger
}

// NewLocalBookingService creates a repository-backed booking service.
func NewLocalBookingService(repo domain.Repository, logger *slog.Logger) *LocalBookingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalBookingService{repo: repo, logger: logger}
}

// FetchBooking retrieves one booking from the cache.
func (s *LocalBookingService) FetchBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	return s.repo.FindByID(ctx, bookingID)
}

// ListBookings retrieves all bookings for a customer from the cache.
func (s *LocalBookingService) ListBookings(ctx context.Context, customerID uuid.UUID) ([]*domain.Booking, error) {
	return s.repo.FindByCustomer(ctx, customerID)
}

// CancelBooking cancels a booking locally.
func (s *LocalBookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := booking.RecordStatus(domain.StatusCancelled, time.Now()); err != nil {
		return nil, err
	}
	booking.ClearDomainEvents()
	if err := s.repo.Save(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// RescheduleBooking moves a booking to a new time locally.
func (s *LocalBookingService) RescheduleBooking(ctx context.Context, bookingID uuid.UUID, newTime time.Time) (*domain.Booking, error) {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := booking.Reschedule(newTime); err != nil {
		return nil, err
	}
	booking.ClearDomainEvents()
	if err := s.repo.Save(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// SubmitReview marks a booking reviewed locally.
func (s *LocalBookingService) SubmitReview(ctx context.Context, bookingID uuid.UUID, rating int, comment string) error {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := booking.MarkReviewed(); err != nil {
		return err
	}
	booking.ClearDomainEvents()
	return s.repo.Save(ctx, booking)
}

// CreateBooking places a new booking in the cache. Only available in local
// mode; against the real backend bookings are placed from the mobile app.
func (s *LocalBookingService) CreateBooking(ctx context.Context, customerID uuid.UUID, serviceName string, scheduledAt time.Time, totalAmount decimal.Decimal) (*domain.Booking, error) {
	booking, err := domain.NewBooking(customerID, serviceName, scheduledAt, totalAmount)
	if err != nil {
		return nil, err
	}
	booking.ClearDomainEvents()
	if err := s.repo.Save(ctx, booking); err != nil {
		return nil, err
	}
	s.logger.Info("local booking created", "booking_id", booking.ID(), "service", serviceName)
	return booking, nil
}

// AdvanceStatus records the next canonical status on a booking and persists
// it. Returns the new status. Drives the simulated lifecycle in local mode.
func (s *LocalBookingService) AdvanceStatus(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, domain.Status, error) {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}

	next, ok := nextStatus(booking.Status())
	if !ok {
		return nil, "", domain.ErrInvalidTransition
	}
	if err := booking.RecordStatus(next, time.Now()); err != nil {
		return nil, "", err
	}
	booking.ClearDomainEvents()
	if err := s.repo.Save(ctx, booking); err != nil {
		return nil, "", err
	}
	return booking, next, nil
}

func nextStatus(current domain.Status) (domain.Status, bool) {
	rank, ok := current.Rank()
	if !ok || rank+1 >= len(domain.CanonicalOrder) {
		return "", false
	}
	return domain.CanonicalOrder[rank+1], true
}
