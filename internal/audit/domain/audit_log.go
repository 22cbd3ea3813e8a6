package domain

import "time"

// AuditLog records one caregiver-visible event: a signup, login, or a session
// lifecycle change. Metadata is a JSON object with event-specific detail.
type AuditLog struct {
	ID         string
	OwnerID    string
	Action     string
	TargetType string
	TargetID   string
	Metadata   string
	CreatedAt  time.Time
}
