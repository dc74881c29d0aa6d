package domain

import "github.com/google/uuid"

// Provider is the display identity of the service provider assigned to a
// booking. It is a reference for rendering and contact, not an owned entity.
type Provider struct {
	ID        uuid.UUID
	Name      string
	Phone     string
	AvatarURL string
}

// IsZero returns true when no provider has been assigned.
func (p Provider) IsZero() bool {
	return p.ID == uuid.Nil
}
