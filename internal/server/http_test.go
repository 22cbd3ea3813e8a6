package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	healthhandler "cribtrack/backend/internal/health/handler"
	identityhandler "cribtrack/backend/internal/identity/handler"
	identityservice "cribtrack/backend/internal/identity/service"
	"cribtrack/backend/internal/security"
	sessiondomain "cribtrack/backend/internal/session/domain"
	sessionhandler "cribtrack/backend/internal/session/handler"
	"cribtrack/backend/internal/tracker"
)

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, email, password, displayName string) (*identityservice.AuthResult, error) {
	return &identityservice.AuthResult{AccessToken: "a", RefreshToken: "r", OwnerID: "owner-1"}, nil
}

func (stubAuthService) Login(ctx context.Context, email, password string) (*identityservice.AuthResult, error) {
	return &identityservice.AuthResult{AccessToken: "a", RefreshToken: "r", OwnerID: "owner-1"}, nil
}

func (stubAuthService) Refresh(ctx context.Context, refreshToken string) (*identityservice.AuthResult, error) {
	return &identityservice.AuthResult{AccessToken: "a", RefreshToken: "r", OwnerID: "owner-1"}, nil
}

func (stubAuthService) Logout(ctx context.Context, ownerID string) error { return nil }

type stubTracker struct{}

func (stubTracker) Start(ctx context.Context, ownerID string, req tracker.StartRequest) (*sessiondomain.Session, error) {
	return &sessiondomain.Session{ID: "s1", OwnerID: ownerID, Kind: req.Kind, StartTime: time.Now().UTC()}, nil
}

func (stubTracker) Stop(ctx context.Context, ownerID string) (*sessiondomain.Session, error) {
	return nil, sessiondomain.ErrNoActiveSession
}

func (stubTracker) Active(ctx context.Context, ownerID string) (tracker.Snapshot, error) {
	return tracker.Snapshot{State: tracker.StateIdle}, nil
}

func (stubTracker) List(ctx context.Context, ownerID string, from, to time.Time) ([]*sessiondomain.Session, error) {
	return nil, nil
}

func (stubTracker) LoadDay(ctx context.Context, ownerID string, day time.Time) (tracker.Snapshot, error) {
	return tracker.Snapshot{State: tracker.StateIdle}, nil
}

func (stubTracker) Summary(ctx context.Context, ownerID string, days int) (tracker.Summary, error) {
	return tracker.Summary{Days: days}, nil
}

func newTestHandler(t *testing.T) (http.Handler, *security.TokenProvider) {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	logger := log.New(io.Discard)
	deps := Deps{
		Auth:     identityhandler.NewAuthHandler(stubAuthService{}, logger),
		Sessions: sessionhandler.NewSessionHandler(stubTracker{}, stubTracker{}, logger, nil),
		Health:   healthhandler.NewHealthHandler(nil),
		Tokens:   tokens,
	}
	return NewHandler(deps), tokens
}

func TestRouting_PublicRoutes(t *testing.T) {
	h, _ := newTestHandler(t)

	testCases := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
	}{
		{"health", http.MethodGet, "/v1/health", "", http.StatusOK},
		{"register", http.MethodPost, "/v1/auth/register", `{"email":"a@b.co","password":"hunter2hunter2"}`, http.StatusCreated},
		{"login", http.MethodPost, "/v1/auth/login", `{"email":"a@b.co","password":"hunter2hunter2"}`, http.StatusOK},
		{"refresh", http.MethodPost, "/v1/auth/refresh", `{"refreshToken":"r"}`, http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.wantCode {
				t.Errorf("%s %s = %d, want %d", tc.method, tc.path, rec.Code, tc.wantCode)
			}
		})
	}
}

func TestRouting_ProtectedRoutesRequireToken(t *testing.T) {
	h, _ := newTestHandler(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/v1/sleep/start"},
		{http.MethodPost, "/v1/feeding/stop"},
		{http.MethodGet, "/v1/sleep/active"},
		{http.MethodGet, "/v1/sleep/stats/daily"},
		{http.MethodPost, "/v1/auth/logout"},
	}
	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token = %d, want 401", p.method, p.path, rec.Code)
		}
	}
}

func TestRouting_ProtectedRoutesWithToken(t *testing.T) {
	h, tokens := newTestHandler(t)
	access, _, _, err := tokens.IssueAccess("owner-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/sleep/start", strings.NewReader(`{"kind":"nap"}`))
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("POST /v1/sleep/start with token = %d, want 201", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("POST /v1/auth/logout with token = %d, want 204", rec.Code)
	}
}
