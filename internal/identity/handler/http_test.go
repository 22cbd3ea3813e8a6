package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"cribtrack/backend/internal/identity/service"
	"cribtrack/backend/internal/server/middleware"
)

type mockAuthService struct {
	result *service.AuthResult
	err    error

	gotEmail    string
	gotPassword string
	gotRefresh  string
	gotLogout   string
}

func (m *mockAuthService) Register(ctx context.Context, email, password, displayName string) (*service.AuthResult, error) {
	m.gotEmail, m.gotPassword = email, password
	return m.result, m.err
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	m.gotEmail, m.gotPassword = email, password
	return m.result, m.err
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.AuthResult, error) {
	m.gotRefresh = refreshToken
	return m.result, m.err
}

func (m *mockAuthService) Logout(ctx context.Context, ownerID string) error {
	m.gotLogout = ownerID
	return m.err
}

func newTestHandler(svc AuthService) *http.ServeMux {
	h := NewAuthHandler(svc, log.New(io.Discard))
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

func okResult() *service.AuthResult {
	return &service.AuthResult{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(15 * time.Minute),
		OwnerID:      "c1",
	}
}

func TestRegister_Success(t *testing.T) {
	svc := &mockAuthService{result: okResult()}
	mux := newTestHandler(svc)

	body := `{"email":"parent@example.com","password":"hunter2hunter2","displayName":"Sam"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AccessToken != "access" || resp.RefreshToken != "refresh" || resp.OwnerID != "c1" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if svc.gotEmail != "parent@example.com" {
		t.Errorf("service got email %q", svc.gotEmail)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := &mockAuthService{err: service.ErrEmailAlreadyRegistered}
	mux := newTestHandler(svc)

	body := `{"email":"parent@example.com","password":"hunter2hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestRegister_BadBody(t *testing.T) {
	mux := newTestHandler(&mockAuthService{})
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &mockAuthService{err: service.ErrInvalidCredentials}
	mux := newTestHandler(svc)

	body := `{"email":"parent@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRefresh_Success(t *testing.T) {
	svc := &mockAuthService{result: okResult()}
	mux := newTestHandler(svc)

	body := `{"refreshToken":"old-refresh"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.gotRefresh != "old-refresh" {
		t.Errorf("service got refresh %q", svc.gotRefresh)
	}
}

func TestRefresh_Invalid(t *testing.T) {
	svc := &mockAuthService{err: service.ErrInvalidRefreshToken}
	mux := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", strings.NewReader(`{"refreshToken":"x"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	svc := &mockAuthService{}
	h := NewAuthHandler(svc, log.New(io.Discard))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req = req.WithContext(middleware.WithOwnerID(req.Context(), "c1"))
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if svc.gotLogout != "c1" {
		t.Errorf("service got owner %q, want c1", svc.gotLogout)
	}
}

func TestLogout_NoIdentity(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, log.New(io.Discard))
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
