package domain

import (
	"errors"
	"fmt"
	"time"
)

// TrackedDomain discriminates the two session taxonomies the app tracks.
// Sleep and feeding sessions share a lifecycle but never share kinds.
type TrackedDomain string

const (
	DomainSleep   TrackedDomain = "sleep"
	DomainFeeding TrackedDomain = "feeding"
)

// Kind tags a session within its tracked domain.
type Kind string

const (
	KindNap   Kind = "nap"
	KindNight Kind = "night"

	KindBreast Kind = "breast"
	KindBottle Kind = "bottle"
	KindSolid  Kind = "solid"
)

// MaxSessionMinutes is the sanity ceiling on a closed session (24 hours).
// Closing a session above it is rejected rather than silently accepted.
const MaxSessionMinutes = 1440

// Session is one continuous tracked interval (a sleep or a feeding).
// EndTime nil means the session is active; DurationMinutes is derived at
// close time and absent while active. StartTime is immutable after creation.
type Session struct {
	ID              string
	OwnerID         string
	Domain          TrackedDomain
	Kind            Kind
	StartTime       time.Time
	EndTime         *time.Time // nil while the session is running
	DurationMinutes *int       // derived at close; never stored independently before that

	// Feeding payload; opaque to the timer and statistics code.
	Side     string // breastfeeding side, "" otherwise
	AmountML *int   // bottle amount, nil otherwise
	FoodType string // solid food description, "" otherwise

	CreatedAt time.Time
}

// Active reports whether the session is still running (no end time recorded).
func (s *Session) Active() bool {
	return s.EndTime == nil
}

// Closed reports whether the session has been finalized.
func (s *Session) Closed() bool {
	return s.EndTime != nil
}

// Validate checks required fields and that Kind belongs to Domain.
func (s *Session) Validate() error {
	if s.OwnerID == "" {
		return errors.New("owner id is required")
	}
	if s.StartTime.IsZero() {
		return errors.New("start time is required")
	}
	if !s.Domain.ValidKind(s.Kind) {
		return fmt.Errorf("kind %q is not valid for domain %q", s.Kind, s.Domain)
	}
	if s.EndTime != nil && s.EndTime.Before(s.StartTime) {
		return ErrInvalidDuration
	}
	return nil
}

// ValidKind reports whether k belongs to the domain's kind taxonomy.
func (d TrackedDomain) ValidKind(k Kind) bool {
	switch d {
	case DomainSleep:
		return k == KindNap || k == KindNight
	case DomainFeeding:
		return k == KindBreast || k == KindBottle || k == KindSolid
	default:
		return false
	}
}

// ParseDomain returns the TrackedDomain for s, or an error for unknown values.
func ParseDomain(s string) (TrackedDomain, error) {
	switch TrackedDomain(s) {
	case DomainSleep:
		return DomainSleep, nil
	case DomainFeeding:
		return DomainFeeding, nil
	default:
		return "", fmt.Errorf("unknown tracked domain %q", s)
	}
}

// DurationBetween computes the whole minutes between start and end, flooring
// sub-minute remainders. Returns ErrInvalidDuration when end precedes start
// or the span exceeds MaxSessionMinutes.
func DurationBetween(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, ErrInvalidDuration
	}
	mins := int(end.Sub(start) / time.Minute)
	if mins > MaxSessionMinutes {
		return 0, ErrInvalidDuration
	}
	return mins, nil
}
