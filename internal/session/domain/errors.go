package domain

import "errors"

// Error kinds for the tracking core. The HTTP layer maps each kind to a
// status code and a short human-readable message; raw transport error text
// is never shown to the user.
var (
	// ErrNotAuthenticated means no owner identity is available. Write paths
	// fail fast on it; there is no retry.
	ErrNotAuthenticated = errors.New("sign in required")

	// ErrSessionConflict means a start was attempted while a session is
	// already active for the owner. The user must stop the existing one.
	ErrSessionConflict = errors.New("a session is already active")

	// ErrNoActiveSession means a stop was attempted with nothing running.
	ErrNoActiveSession = errors.New("no active session")

	// ErrAmbiguousState means more than one open session exists for an
	// owner. This is a data-integrity problem upstream (two devices racing);
	// it is surfaced rather than auto-resolved so no session is silently lost.
	ErrAmbiguousState = errors.New("more than one active session found")

	// ErrInvalidDuration means the computed close duration is negative or
	// exceeds the 24-hour ceiling. The session is left open for correction.
	ErrInvalidDuration = errors.New("session duration is invalid")

	// ErrRemoteRead and ErrRemoteWrite wrap transport or server failures.
	// Local state is left unchanged; the caller may retry explicitly.
	ErrRemoteRead  = errors.New("could not load sessions")
	ErrRemoteWrite = errors.New("could not save session")
)
