// server runs the HTTP API: caregiver auth, sleep and feeding session
// tracking, and sleep statistics.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"cribtrack/backend/internal/audit"
	auditrepo "cribtrack/backend/internal/audit/repository"
	"cribtrack/backend/internal/config"
	"cribtrack/backend/internal/db"
	healthhandler "cribtrack/backend/internal/health/handler"
	identityhandler "cribtrack/backend/internal/identity/handler"
	identityrepo "cribtrack/backend/internal/identity/repository"
	identityservice "cribtrack/backend/internal/identity/service"
	"cribtrack/backend/internal/security"
	"cribtrack/backend/internal/server"
	sessiondomain "cribtrack/backend/internal/session/domain"
	sessionhandler "cribtrack/backend/internal/session/handler"
	sessionrepo "cribtrack/backend/internal/session/repository"
	"cribtrack/backend/internal/telemetry/otel"
	"cribtrack/backend/internal/tracker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "cribtrack",
	})
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database", "err", err)
	}
	defer conn.Close()

	privateKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		logger.Fatal("JWT_PRIVATE_KEY", "err", err)
	}
	publicKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		logger.Fatal("JWT_PUBLIC_KEY", "err", err)
	}
	tokens := security.NewTokenProvider(privateKey, publicKey, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "cribtrack-api", cfg.OTLPInsecure)
	if err != nil {
		logger.Fatal("telemetry", "err", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", "err", err)
		}
	}()

	auditor := audit.NewLogger(auditrepo.NewPostgresRepository(conn), logger)

	caregivers := identityrepo.NewPostgresRepository(conn)
	authSvc := identityservice.NewAuthService(caregivers, security.NewHasher(cfg.BcryptCost), tokens)
	authSvc.SetAuditor(auditor)

	sessions := sessionrepo.NewPostgresRepository(conn)
	sleepStore := tracker.NewStore(ctx, sessiondomain.DomainSleep, sessions, logger, nil)
	feedingStore := tracker.NewStore(ctx, sessiondomain.DomainFeeding, sessions, logger, nil)
	sleepStore.SetAuditor(auditor)
	feedingStore.SetAuditor(auditor)
	defer sleepStore.Shutdown()
	defer feedingStore.Shutdown()

	// Pick up sessions left open by a previous run so their clocks resume
	// from the stored start time.
	if err := sleepStore.Restore(ctx); err != nil {
		logger.Warn("restore sleep sessions", "err", err)
	}
	if err := feedingStore.Restore(ctx); err != nil {
		logger.Warn("restore feeding sessions", "err", err)
	}

	handler := server.NewHandler(server.Deps{
		Auth:     identityhandler.NewAuthHandler(authSvc, logger),
		Sessions: sessionhandler.NewSessionHandler(sleepStore, feedingStore, logger, nil),
		Health:   healthhandler.NewHealthHandler(conn),
		Tokens:   tokens,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", "err", err)
		}
		return
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	logger.Info("HTTP server stopped")
}
