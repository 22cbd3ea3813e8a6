package tracker

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"cribtrack/backend/internal/session/domain"
	"cribtrack/backend/internal/stats"
)

// State is the authoritative tracking state for an owner.
type State string

const (
	StateIdle     State = "idle"
	StateTracking State = "tracking"
)

// EventLogger records session lifecycle events for the audit trail.
type EventLogger interface {
	LogEvent(ctx context.Context, ownerID, action, targetType, targetID, metadata string)
}

// SessionRepo is the minimal session repository needed by the store.
type SessionRepo interface {
	Create(ctx context.Context, s *domain.Session) error
	FindActive(ctx context.Context, ownerID string, d domain.TrackedDomain) (*domain.Session, error)
	ListOpen(ctx context.Context, d domain.TrackedDomain) ([]*domain.Session, error)
	Close(ctx context.Context, id string, endTime time.Time, durationMinutes int) (*domain.Session, error)
	ListRange(ctx context.Context, ownerID string, d domain.TrackedDomain, from, to time.Time) ([]*domain.Session, error)
}

// StartRequest carries the kind and the domain-specific payload for a new
// session. Payload fields are passed through untouched by timer logic.
type StartRequest struct {
	Kind     domain.Kind
	Side     string
	AmountML *int
	FoodType string
}

// Snapshot is what subscribers and the API layer see: tracking state, the
// live elapsed reading, the loaded history, and derived daily statistics.
type Snapshot struct {
	State   State
	Session *domain.Session
	Elapsed Elapsed
	History []*domain.Session
	Daily   stats.Daily
}

// Summary aggregates a trailing period of closed sessions.
type Summary struct {
	Days                     int     `json:"days"`
	AverageMinutesPerDay     float64 `json:"averageMinutesPerDay"`
	AverageWakeWindowMinutes int     `json:"averageWakeWindowMinutes"`
}

// Store owns the active-session state and in-memory history for one tracked
// domain. All mutation goes through it; screens needing the same data share
// the instance or re-fetch. Start/stop for one owner are serialized by a
// per-owner guard so check-then-create runs as one logical operation and two
// rapid taps cannot open two sessions.
type Store struct {
	dom     domain.TrackedDomain
	repo    SessionRepo
	rec     *Reconciler
	logger  *log.Logger
	now     func() time.Time
	baseCtx context.Context

	mu      sync.Mutex
	entries map[string]*entry

	onUpdate func(ownerID string, snap Snapshot)
	auditor  EventLogger
}

// entry holds per-owner tracking state. Its mutex is the in-flight guard for
// that owner's start/stop/load operations.
type entry struct {
	mu      sync.Mutex
	clock   *Clock
	session *domain.Session
	day     time.Time
	history []*domain.Session
	daily   stats.Daily
}

// NewStore returns a Store for the given tracked domain. ctx bounds the
// lifetime of all ticker loops the store spawns; now may be nil for time.Now.
func NewStore(ctx context.Context, dom domain.TrackedDomain, repo SessionRepo, logger *log.Logger, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		dom:     dom,
		repo:    repo,
		rec:     NewReconciler(repo, logger, now),
		logger:  logger,
		now:     now,
		baseCtx: ctx,
		entries: make(map[string]*entry),
	}
}

// OnUpdate registers the subscriber notified after mutations and on ticker
// cadence. The callback must not call back into the store.
func (s *Store) OnUpdate(fn func(ownerID string, snap Snapshot)) {
	s.onUpdate = fn
}

// SetAuditor registers the audit trail for start/stop events. Call before
// serving requests.
func (s *Store) SetAuditor(a EventLogger) {
	s.auditor = a
}

// Restore rehydrates clocks for every open session so in-progress sessions
// keep ticking across a process restart. Call once at startup. An owner with
// more than one open session is left unrestored: adopting either would hide
// the conflict, so the next lookup for that owner surfaces ErrAmbiguousState
// instead.
func (s *Store) Restore(ctx context.Context) error {
	open, err := s.repo.ListOpen(ctx, s.dom)
	if err != nil {
		return fmt.Errorf("restore %s sessions: %w", s.dom, err)
	}
	byOwner := make(map[string][]*domain.Session)
	for _, sess := range open {
		byOwner[sess.OwnerID] = append(byOwner[sess.OwnerID], sess)
	}

	restored := 0
	for ownerID, sessions := range byOwner {
		if len(sessions) > 1 {
			s.logger.Warn("multiple open sessions for owner, not restoring",
				"domain", s.dom, "owner", ownerID, "count", len(sessions))
			continue
		}
		e := s.entryFor(ownerID)
		e.mu.Lock()
		if e.session == nil {
			s.adoptLocked(e, sessions[0])
			restored++
		}
		e.mu.Unlock()
	}
	s.logger.Info("restored open sessions", "domain", s.dom, "count", restored)
	return nil
}

// Start begins a new session for the owner. It refuses with
// ErrSessionConflict while any session is active; the existing-session check
// completes before the create is issued, serialized by the per-owner guard.
func (s *Store) Start(ctx context.Context, ownerID string, req StartRequest) (*domain.Session, error) {
	if ownerID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	if !s.dom.ValidKind(req.Kind) {
		return nil, fmt.Errorf("kind %q is not valid for domain %q", req.Kind, s.dom)
	}

	e := s.entryFor(ownerID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		return nil, domain.ErrSessionConflict
	}
	existing, err := s.repo.FindActive(ctx, ownerID, s.dom)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		// Another process (or a previous run) left a session open; adopt it
		// so a follow-up stop works, but refuse the start.
		s.adoptLocked(e, existing)
		return nil, domain.ErrSessionConflict
	}

	now := s.now().UTC()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Domain:    s.dom,
		Kind:      req.Kind,
		StartTime: now,
		Side:      req.Side,
		AmountML:  req.AmountML,
		FoodType:  req.FoodType,
		CreatedAt: now,
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}

	s.adoptLocked(e, sess)
	s.refreshLocked(ctx, ownerID, e)
	s.notify(ownerID, s.snapshotLocked(e))
	s.audit(ctx, ownerID, "session.start", sess)
	return sess, nil
}

// Stop finalizes the owner's active session: the duration is computed and
// validated first, then durably written, and only then is local state
// cleared. A failed write or an over-ceiling duration leaves the session
// open and the clock ticking, for the user to retry or correct.
func (s *Store) Stop(ctx context.Context, ownerID string) (*domain.Session, error) {
	if ownerID == "" {
		return nil, domain.ErrNotAuthenticated
	}

	e := s.entryFor(ownerID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		res, err := s.rec.Resolve(ctx, ownerID, s.dom)
		if err != nil {
			return nil, err
		}
		if !res.Tracking() {
			return nil, domain.ErrNoActiveSession
		}
		s.adoptLocked(e, res.Session)
	}

	now := s.now().UTC()
	mins, err := e.clock.Minutes(now)
	if err != nil {
		return nil, err
	}
	closed, err := s.repo.Close(ctx, e.session.ID, now, mins)
	if err != nil {
		return nil, err
	}
	if closed == nil {
		return nil, fmt.Errorf("close session %s: record missing: %w", e.session.ID, domain.ErrRemoteWrite)
	}

	e.clock.Stop()
	e.clock = nil
	e.session = nil
	e.history = append([]*domain.Session{closed}, e.history...)
	s.refreshLocked(ctx, ownerID, e)
	s.notify(ownerID, s.snapshotLocked(e))
	s.audit(ctx, ownerID, "session.stop", closed)
	return closed, nil
}

// Active reports the authoritative tracking state for the owner, reconciling
// with the store of record when no local clock is running. A transport
// failure returns the idle snapshot together with the error; the caller
// treats it as a non-fatal warning, never as a fabricated session.
func (s *Store) Active(ctx context.Context, ownerID string) (Snapshot, error) {
	if ownerID == "" {
		return Snapshot{State: StateIdle}, domain.ErrNotAuthenticated
	}

	e := s.entryFor(ownerID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		res, err := s.rec.Resolve(ctx, ownerID, s.dom)
		if err != nil {
			return Snapshot{State: StateIdle}, err
		}
		if res.Tracking() {
			s.adoptLocked(e, res.Session)
		}
	}
	return s.snapshotLocked(e), nil
}

// LoadDay fetches and replaces the in-memory history for the calendar day,
// recomputing daily statistics as part of the same operation.
func (s *Store) LoadDay(ctx context.Context, ownerID string, day time.Time) (Snapshot, error) {
	if ownerID == "" {
		return Snapshot{State: StateIdle}, domain.ErrNotAuthenticated
	}
	from := startOfDay(day)
	to := from.AddDate(0, 0, 1)

	e := s.entryFor(ownerID)
	e.mu.Lock()
	defer e.mu.Unlock()

	list, err := s.repo.ListRange(ctx, ownerID, s.dom, from, to)
	if err != nil {
		return s.snapshotLocked(e), err
	}
	e.day = day
	e.history = list
	if s.dom == domain.DomainSleep {
		e.daily = stats.DailyStats(list, day)
	}
	snap := s.snapshotLocked(e)
	s.notify(ownerID, snap)
	return snap, nil
}

// List returns the owner's sessions starting in [from, to), most recent first.
// Unlike LoadDay it does not touch the cached day or notify subscribers.
func (s *Store) List(ctx context.Context, ownerID string, from, to time.Time) ([]*domain.Session, error) {
	if ownerID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return s.repo.ListRange(ctx, ownerID, s.dom, from, to)
}

// Summary aggregates the trailing number of calendar days ending today.
func (s *Store) Summary(ctx context.Context, ownerID string, days int) (Summary, error) {
	if ownerID == "" {
		return Summary{}, domain.ErrNotAuthenticated
	}
	if days <= 0 {
		return Summary{}, fmt.Errorf("days must be positive, got %d", days)
	}
	now := s.now()
	from := startOfDay(now).AddDate(0, 0, -(days - 1))
	list, err := s.repo.ListRange(ctx, ownerID, s.dom, from, now)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Days:                     days,
		AverageMinutesPerDay:     stats.PeriodAverage(list, days),
		AverageWakeWindowMinutes: int(stats.AverageWakeWindow(list) / time.Minute),
	}, nil
}

// Shutdown stops every running clock and waits for the loops to exit.
func (s *Store) Shutdown() {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		if e.clock != nil {
			e.clock.Stop()
		}
		e.mu.Unlock()
	}
}

func (s *Store) entryFor(ownerID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[ownerID]
	if !ok {
		e = &entry{}
		s.entries[ownerID] = e
	}
	return e
}

// adoptLocked installs sess as the owner's active session and starts its
// clock. Caller holds e.mu.
func (s *Store) adoptLocked(e *entry, sess *domain.Session) {
	e.session = sess
	c := NewClock(sess.StartTime, s.now)
	ownerID := sess.OwnerID
	c.OnTick(func(el Elapsed) {
		s.notify(ownerID, Snapshot{State: StateTracking, Session: sess, Elapsed: el})
	})
	c.Run(s.baseCtx)
	e.clock = c
}

// refreshLocked reloads the entry's loaded day after a successful mutation.
// Full reload beats in-place patching here: per-owner volume is tens of rows
// a day. Failures are logged and leave the previous list in place.
func (s *Store) refreshLocked(ctx context.Context, ownerID string, e *entry) {
	if e.day.IsZero() {
		return
	}
	from := startOfDay(e.day)
	list, err := s.repo.ListRange(ctx, ownerID, s.dom, from, from.AddDate(0, 0, 1))
	if err != nil {
		s.logger.Warn("history refresh failed", "owner", ownerID, "domain", s.dom, "err", err)
		return
	}
	e.history = list
	if s.dom == domain.DomainSleep {
		e.daily = stats.DailyStats(list, e.day)
	}
}

func (s *Store) snapshotLocked(e *entry) Snapshot {
	snap := Snapshot{
		State:   StateIdle,
		History: slices.Clone(e.history),
		Daily:   e.daily,
	}
	if e.session != nil {
		snap.State = StateTracking
		snap.Session = e.session
		snap.Elapsed = e.clock.Elapsed()
	}
	return snap
}

func (s *Store) audit(ctx context.Context, ownerID, action string, sess *domain.Session) {
	if s.auditor == nil {
		return
	}
	meta := fmt.Sprintf(`{"domain":%q,"kind":%q}`, s.dom, sess.Kind)
	s.auditor.LogEvent(ctx, ownerID, action, "session", sess.ID, meta)
}

func (s *Store) notify(ownerID string, snap Snapshot) {
	if s.onUpdate != nil {
		s.onUpdate(ownerID, snap)
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
