package repository

import (
	"context"
	"time"

	"cribtrack/backend/internal/session/domain"
)

// Repository defines persistence for tracked sessions. Every query and
// mutation is scoped by owner; no retry policy lives at this layer.
type Repository interface {
	// Create persists s as a new active session. The session must have ID set
	// and no end time.
	Create(ctx context.Context, s *domain.Session) error

	// GetByID returns the session for id, or nil if not found.
	// It returns an error only for database failures, not for missing rows.
	GetByID(ctx context.Context, id string) (*domain.Session, error)

	// FindActive returns the single open session (no end time) for the owner
	// in the given domain, or nil if none exists. Returns ErrAmbiguousState
	// when more than one open session is found; it never silently picks one.
	FindActive(ctx context.Context, ownerID string, d domain.TrackedDomain) (*domain.Session, error)

	// ListOpen returns every open session in the given domain across owners.
	// Used to resume tracking loops after a restart.
	ListOpen(ctx context.Context, d domain.TrackedDomain) ([]*domain.Session, error)

	// Close sets the end time and derived duration on the session. Idempotent:
	// closing an already-closed session with the same values succeeds with no
	// observable change; different values overwrite. Returns the updated
	// session, or nil if the id does not exist.
	Close(ctx context.Context, id string, endTime time.Time, durationMinutes int) (*domain.Session, error)

	// ListRange returns sessions whose start time falls in [from, to),
	// most-recent-start-first. Each call re-queries; no cursor state.
	ListRange(ctx context.Context, ownerID string, d domain.TrackedDomain, from, to time.Time) ([]*domain.Session, error)
}
