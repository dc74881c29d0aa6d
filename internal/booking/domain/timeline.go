package domain

import "time"

// TimelineStep is one render-ready step of the booking progress timeline.
type TimelineStep struct {
	Status    Status
	Label     string
	Completed bool
	Current   bool
	Timestamp *time.Time
}

// CancellationMarker is the terminal banner shown in place of a current step
// when a booking was cancelled.
type CancellationMarker struct {
	Label       string
	CancelledAt time.Time
}

// Timeline is the derived view of a booking's progress. Steps always contains
// the six canonical statuses in order; Cancelled is non-nil only for
// cancelled bookings.
type Timeline struct {
	Steps     []TimelineStep
	Cancelled *CancellationMarker
}

// CurrentStep returns the step marked current, if any. Cancelled bookings
// have no current step.
func (t Timeline) CurrentStep() (TimelineStep, bool) {
	for _, step := range t.Steps {
		if step.Current {
			return step, true
		}
	}
	return TimelineStep{}, false
}

// DeriveTimeline computes the ordered step list for a booking.
//
// It is a pure function of the booking snapshot: completion is judged against
// the furthest canonical status reached (so a cancelled booking still shows
// its progress), the current marker follows the live status, and timestamps
// come from the status history alone.
func DeriveTimeline(b *Booking) Timeline {
	reachedRank, _ := b.LastProgressStatus().Rank()

	steps := make([]TimelineStep, 0, len(CanonicalOrder))
	for _, status := range CanonicalOrder {
		rank, _ := status.Rank()

		step := TimelineStep{
			Status:    status,
			Label:     StepLabel(status),
			Completed: rank <= reachedRank,
			Current:   !b.IsCancelled() && status == b.Status(),
		}
		if at, ok := b.StatusRecordedAt(status); ok {
			t := at
			step.Timestamp = &t
		}
		steps = append(steps, step)
	}

	timeline := Timeline{Steps: steps}
	if at, ok := b.CancelledAt(); ok {
		timeline.Cancelled = &CancellationMarker{
			Label:       StepLabel(StatusCancelled),
			CancelledAt: at,
		}
	}
	return timeline
}
