package domain

// Status represents the lifecycle status of a booking.
type Status string

const (
	// StatusPending indicates the booking is awaiting confirmation.
	StatusPending Status = "pending"
	// StatusConfirmed indicates the business accepted the booking.
	StatusConfirmed Status = "confirmed"
	// StatusProviderAssigned indicates a service provider has been assigned.
	StatusProviderAssigned Status = "provider_assigned"
	// StatusEnRoute indicates the provider is on the way.
	StatusEnRoute Status = "en_route"
	// StatusInProgress indicates the service is being performed.
	StatusInProgress Status = "in_progress"
	// StatusCompleted indicates the service is finished.
	StatusCompleted Status = "completed"
	// StatusCancelled indicates the booking was cancelled before completion.
	StatusCancelled Status = "cancelled"
)

// CanonicalOrder lists the six progression statuses in their canonical order.
// StatusCancelled is not a progression step; it terminates the sequence early.
var CanonicalOrder = []Status{
	StatusPending,
	StatusConfirmed,
	StatusProviderAssigned,
	StatusEnRoute,
	StatusInProgress,
	StatusCompleted,
}

var statusRanks = map[Status]int{
	StatusPending:          0,
	StatusConfirmed:        1,
	StatusProviderAssigned: 2,
	StatusEnRoute:          3,
	StatusInProgress:       4,
	StatusCompleted:        5,
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a known value.
func (s Status) IsValid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRanks[s]
	return ok
}

// IsTerminal returns true if the status represents a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Rank returns the canonical position (0..5) of a progression status.
// The second return is false for StatusCancelled and unknown values.
func (s Status) Rank() (int, bool) {
	rank, ok := statusRanks[s]
	return rank, ok
}

// CanTransitionTo returns true if transitioning to the given status is valid.
// Cancellation is allowed from any non-terminal state; progression is strictly
// sequential with no skipping and no regression. A same-status transition is
// not valid: callers treat repeats as idempotent no-ops, not transitions.
func (s Status) CanTransitionTo(target Status) bool {
	if s.IsTerminal() {
		return false
	}
	if target == StatusCancelled {
		return true
	}
	from, ok := s.Rank()
	if !ok {
		return false
	}
	to, ok := target.Rank()
	if !ok {
		return false
	}
	return to == from+1
}

// ParseStatus parses a string into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", ErrUnknownStatus
	}
	return status, nil
}

// stepPresentation is the single status-keyed lookup used by every renderer.
// Screens must not maintain their own status switch statements.
var stepPresentation = map[Status]struct {
	label string
	tint  string
}{
	StatusPending:          {"Booking placed", "amber"},
	StatusConfirmed:        {"Confirmed", "blue"},
	StatusProviderAssigned: {"Provider assigned", "blue"},
	StatusEnRoute:          {"On the way", "indigo"},
	StatusInProgress:       {"Service in progress", "indigo"},
	StatusCompleted:        {"Completed", "green"},
	StatusCancelled:        {"Cancelled", "red"},
}

// StepLabel returns the display label for a status.
func StepLabel(s Status) string {
	return stepPresentation[s].label
}

// StatusTint returns the display tint name for a status.
func StatusTint(s Status) string {
	return stepPresentation[s].tint
}
