// Package queries holds the booking read operations. Reads prefer the
// backend for fresh state and fall back to the local cache when it is
// unavailable.
package queries

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/felixgeelhaar/servana/internal/booking/domain"
)

// BookingDTO is the read model for one booking.
type BookingDTO struct {
	ID              uuid.UUID
	CustomerID      uuid.UUID
	ServiceName     string
	Status          string
	StatusLabel     string
	StatusTint      string
	ScheduledAt     time.Time
	TotalAmount     decimal.Decimal
	PaymentStatus   string
	Provider        *ProviderDTO
	Reviewed        bool
	IsCancellable   bool
	IsReschedulable bool
	IsReviewable    bool
	Timeline        TimelineDTO
	FromCache       bool
}

// ProviderDTO is the read model for an assigned provider.
type ProviderDTO struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	AvatarURL string
}

// TimelineDTO is the read model for the booking progress timeline.
type TimelineDTO struct {
	Steps     []TimelineStepDTO
	Cancelled *CancellationDTO
}

// TimelineStepDTO is one rendered step of the timeline.
type TimelineStepDTO struct {
	Status    string
	Label     string
	Tint      string
	Completed bool
	Current   bool
	Timestamp *time.Time
}

// CancellationDTO is the terminal cancellation marker.
type CancellationDTO struct {
	Label       string
	CancelledAt time.Time
}

func toBookingDTO(b *domain.Booking, fromCache bool) *BookingDTO {
	dto := &BookingDTO{
		ID:              b.ID(),
		CustomerID:      b.CustomerID(),
		ServiceName:     b.ServiceName(),
		Status:          b.Status().String(),
		StatusLabel:     domain.StepLabel(b.Status()),
		StatusTint:      domain.StatusTint(b.Status()),
		ScheduledAt:     b.ScheduledAt(),
		TotalAmount:     b.TotalAmount(),
		PaymentStatus:   string(b.PaymentStatus()),
		Reviewed:        b.IsReviewed(),
		IsCancellable:   b.IsCancellable(),
		IsReschedulable: b.IsReschedulable(),
		IsReviewable:    b.IsReviewable(),
		Timeline:        toTimelineDTO(domain.DeriveTimeline(b)),
		FromCache:       fromCache,
	}
	if p := b.Provider(); !p.IsZero() {
		dto.Provider = &ProviderDTO{
			ID:        p.ID,
			Name:      p.Name,
			Phone:     p.Phone,
			AvatarURL: p.AvatarURL,
		}
	}
	return dto
}

func toTimelineDTO(tl domain.Timeline) TimelineDTO {
	dto := TimelineDTO{Steps: make([]TimelineStepDTO, 0, len(tl.Steps))}
	for _, step := range tl.Steps {
		dto.Steps = append(dto.Steps, TimelineStepDTO{
			Status:    step.Status.String(),
			Label:     step.Label,
			Tint:      domain.StatusTint(step.Status),
			Completed: step.Completed,
			Current:   step.Current,
			Timestamp: step.Timestamp,
		})
	}
	if tl.Cancelled != nil {
		dto.Cancelled = &CancellationDTO{
			Label:       tl.Cancelled.Label,
			CancelledAt: tl.Cancelled.CancelledAt,
		}
	}
	return dto
}
