// Package server assembles the HTTP API from the feature handlers.
package server

import (
	"net/http"

	healthhandler "cribtrack/backend/internal/health/handler"
	identityhandler "cribtrack/backend/internal/identity/handler"
	"cribtrack/backend/internal/security"
	"cribtrack/backend/internal/server/middleware"
	sessionhandler "cribtrack/backend/internal/session/handler"
)

// Deps holds the handlers and the token provider the API server is built from.
type Deps struct {
	// Auth serves /v1/auth. Register, login, and refresh are public; logout
	// requires a Bearer token.
	Auth *identityhandler.AuthHandler
	// Sessions serves the per-domain tracking routes and the sleep statistics
	// routes. All of them require a Bearer token.
	Sessions *sessionhandler.SessionHandler
	// Health serves GET /v1/health, public.
	Health *healthhandler.HealthHandler
	// Tokens validates access tokens for the auth middleware.
	Tokens *security.TokenProvider
}

// NewHandler builds the API routing table.
//
// Route → handler mapping:
//   - /v1/auth/*           → internal/identity/handler
//   - /v1/{domain}/*       → internal/session/handler
//   - /v1/sleep/stats/*    → internal/session/handler
//   - /v1/health           → internal/health/handler
//
// Everything under /v1/ goes through the auth middleware except the public
// routes registered directly on the outer mux, which match more specifically.
func NewHandler(deps Deps) http.Handler {
	protected := http.NewServeMux()
	deps.Sessions.RegisterRoutes(protected)
	protected.HandleFunc("POST /v1/auth/logout", deps.Auth.Logout)

	mux := http.NewServeMux()
	deps.Auth.RegisterRoutes(mux)
	deps.Health.RegisterRoutes(mux)
	mux.Handle("/v1/", middleware.Auth(deps.Tokens)(protected))
	return mux
}
