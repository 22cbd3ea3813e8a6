// Package handler exposes session tracking and statistics over HTTP/JSON.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"cribtrack/backend/internal/server/middleware"
	"cribtrack/backend/internal/session/domain"
	"cribtrack/backend/internal/tracker"
)

// Tracker is the surface of the session store the handler needs, one per
// tracked domain.
type Tracker interface {
	Start(ctx context.Context, ownerID string, req tracker.StartRequest) (*domain.Session, error)
	Stop(ctx context.Context, ownerID string) (*domain.Session, error)
	Active(ctx context.Context, ownerID string) (tracker.Snapshot, error)
	List(ctx context.Context, ownerID string, from, to time.Time) ([]*domain.Session, error)
	LoadDay(ctx context.Context, ownerID string, day time.Time) (tracker.Snapshot, error)
	Summary(ctx context.Context, ownerID string, days int) (tracker.Summary, error)
}

// SessionHandler serves the per-domain tracking endpoints and the sleep
// statistics endpoints.
type SessionHandler struct {
	trackers map[domain.TrackedDomain]Tracker
	logger   *log.Logger
	now      func() time.Time
}

// NewSessionHandler returns a SessionHandler for the given per-domain
// trackers. now may be nil for time.Now; it anchors the default stats day and
// the default sessions range.
func NewSessionHandler(sleep, feeding Tracker, logger *log.Logger, now func() time.Time) *SessionHandler {
	if now == nil {
		now = time.Now
	}
	return &SessionHandler{
		trackers: map[domain.TrackedDomain]Tracker{
			domain.DomainSleep:   sleep,
			domain.DomainFeeding: feeding,
		},
		logger: logger,
		now:    now,
	}
}

// RegisterRoutes mounts the tracking routes on mux. The server wraps mux in
// auth middleware; every route here requires a Bearer token.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/{domain}/start", h.start)
	mux.HandleFunc("POST /v1/{domain}/stop", h.stop)
	mux.HandleFunc("GET /v1/{domain}/active", h.active)
	mux.HandleFunc("GET /v1/{domain}/sessions", h.sessions)
	mux.HandleFunc("GET /v1/sleep/stats/daily", h.dailyStats)
	mux.HandleFunc("GET /v1/sleep/stats/summary", h.summary)
}

type startRequest struct {
	Kind     string `json:"kind"`
	Side     string `json:"side,omitempty"`
	AmountML *int   `json:"amountMl,omitempty"`
	FoodType string `json:"foodType,omitempty"`
}

type sessionJSON struct {
	ID              string     `json:"id"`
	Domain          string     `json:"domain"`
	Kind            string     `json:"kind"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty"`
	Side            string     `json:"side,omitempty"`
	AmountML        *int       `json:"amountMl,omitempty"`
	FoodType        string     `json:"foodType,omitempty"`
}

type activeResponse struct {
	State   string          `json:"state"`
	Session *sessionJSON    `json:"session,omitempty"`
	Elapsed tracker.Elapsed `json:"elapsed"`
}

func (h *SessionHandler) start(w http.ResponseWriter, r *http.Request) {
	tr, ownerID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := tr.Start(r.Context(), ownerID, tracker.StartRequest{
		Kind:     domain.Kind(req.Kind),
		Side:     req.Side,
		AmountML: req.AmountML,
		FoodType: req.FoodType,
	})
	if err != nil {
		h.writeTrackerError(w, "start", err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionJSONFrom(sess))
}

func (h *SessionHandler) stop(w http.ResponseWriter, r *http.Request) {
	tr, ownerID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	sess, err := tr.Stop(r.Context(), ownerID)
	if err != nil {
		h.writeTrackerError(w, "stop", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionJSONFrom(sess))
}

func (h *SessionHandler) active(w http.ResponseWriter, r *http.Request) {
	tr, ownerID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	snap, err := tr.Active(r.Context(), ownerID)
	if err != nil {
		h.writeTrackerError(w, "active", err)
		return
	}
	resp := activeResponse{State: string(snap.State), Elapsed: snap.Elapsed}
	if snap.Session != nil {
		s := sessionJSONFrom(snap.Session)
		resp.Session = &s
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SessionHandler) sessions(w http.ResponseWriter, r *http.Request) {
	tr, ownerID, ok := h.resolve(w, r)
	if !ok {
		return
	}
	from, to, err := h.parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := tr.List(r.Context(), ownerID, from, to)
	if err != nil {
		h.writeTrackerError(w, "sessions", err)
		return
	}
	out := make([]sessionJSON, 0, len(list))
	for _, s := range list {
		out = append(out, sessionJSONFrom(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (h *SessionHandler) dailyStats(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.GetOwnerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	day := h.now().UTC()
	if v := r.URL.Query().Get("day"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
			return
		}
		day = parsed
	}
	snap, err := h.trackers[domain.DomainSleep].LoadDay(r.Context(), ownerID, day)
	if err != nil {
		h.writeTrackerError(w, "daily stats", err)
		return
	}
	writeJSON(w, http.StatusOK, snap.Daily)
}

func (h *SessionHandler) summary(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.GetOwnerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return
	}
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}
	sum, err := h.trackers[domain.DomainSleep].Summary(r.Context(), ownerID, days)
	if err != nil {
		h.writeTrackerError(w, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// resolve extracts the tracked domain from the path and the caregiver from
// context, writing the error response itself on failure.
func (h *SessionHandler) resolve(w http.ResponseWriter, r *http.Request) (Tracker, string, bool) {
	dom, err := domain.ParseDomain(r.PathValue("domain"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, "", false
	}
	ownerID, ok := middleware.GetOwnerID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid authorization")
		return nil, "", false
	}
	return h.trackers[dom], ownerID, true
}

func (h *SessionHandler) writeTrackerError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrSessionConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNoActiveSession):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidDuration):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("session request failed", "op", op, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *SessionHandler) parseRange(r *http.Request) (from, to time.Time, err error) {
	q := r.URL.Query()
	now := h.now().UTC()
	from = now.AddDate(0, 0, -7)
	to = now
	if v := q.Get("from"); v != "" {
		from, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, errors.New("from must be RFC 3339")
		}
	}
	if v := q.Get("to"); v != "" {
		to, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, errors.New("to must be RFC 3339")
		}
	}
	if to.Before(from) {
		return from, to, errors.New("to must not precede from")
	}
	return from, to, nil
}

func sessionJSONFrom(s *domain.Session) sessionJSON {
	return sessionJSON{
		ID:              s.ID,
		Domain:          string(s.Domain),
		Kind:            string(s.Kind),
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationMinutes: s.DurationMinutes,
		Side:            s.Side,
		AmountML:        s.AmountML,
		FoodType:        s.FoodType,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
