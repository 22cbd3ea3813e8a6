package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"cribtrack/backend/internal/session/domain"
)

// ActiveFinder is the slice of the session repository the reconciler needs.
type ActiveFinder interface {
	FindActive(ctx context.Context, ownerID string, d domain.TrackedDomain) (*domain.Session, error)
}

// Resolution is the outcome of reconciling local state with the store of
// record. A nil Session means idle: no clock running, nothing to resume.
type Resolution struct {
	Session *domain.Session
	Elapsed Elapsed
}

// Tracking reports whether an in-progress session was found.
func (r Resolution) Tracking() bool {
	return r.Session != nil
}

// Reconciler determines on mount whether a session is already running for an
// owner and rehydrates timer state from it, so a session survives app
// restarts and crashes instead of the UI resetting to idle.
type Reconciler struct {
	finder ActiveFinder
	logger *log.Logger
	now    func() time.Time
}

// NewReconciler returns a Reconciler backed by finder. now may be nil for
// time.Now.
func NewReconciler(finder ActiveFinder, logger *log.Logger, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{finder: finder, logger: logger, now: now}
}

// Resolve queries for the owner's open session in the given domain. On a hit
// the elapsed time is computed from the stored start time immediately, so a
// rehydrated timer never displays zero. A transport failure is non-fatal: the
// idle resolution is returned alongside the error and no session is ever
// fabricated. ErrAmbiguousState passes through untouched; auto-resolving it
// risks losing data about one of the open sessions.
func (r *Reconciler) Resolve(ctx context.Context, ownerID string, d domain.TrackedDomain) (Resolution, error) {
	if ownerID == "" {
		return Resolution{}, domain.ErrNotAuthenticated
	}

	found, err := r.finder.FindActive(ctx, ownerID, d)
	if err != nil {
		if errors.Is(err, domain.ErrAmbiguousState) {
			return Resolution{}, err
		}
		r.logger.Warn("active-session check failed, falling back to idle",
			"owner", ownerID, "domain", d, "err", err)
		return Resolution{}, err
	}
	if found == nil {
		return Resolution{}, nil
	}
	return Resolution{
		Session: found,
		Elapsed: ElapsedBetween(found.StartTime, r.now()),
	}, nil
}
