// Package audit records caregiver-visible events (signups, logins, session
// lifecycle changes) for later review. Writing an audit entry is best-effort;
// a failed write never fails the operation it describes.
package audit

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"cribtrack/backend/internal/audit/domain"
	auditrepo "cribtrack/backend/internal/audit/repository"
)

// AuditLogger writes a single audit event with explicit action and target.
type AuditLogger interface {
	LogEvent(ctx context.Context, ownerID, action, targetType, targetID, metadata string)
}

// Logger implements AuditLogger using the audit repository.
type Logger struct {
	repo   auditrepo.Repository
	logger *log.Logger
}

// NewLogger returns an AuditLogger that persists to repo. Write failures are
// reported through logger and not returned.
func NewLogger(repo auditrepo.Repository, logger *log.Logger) *Logger {
	return &Logger{repo: repo, logger: logger}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, ownerID, action, targetType, targetID, metadata string) {
	if l.repo == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.logger.Warn("audit write failed", "action", action, "target", targetType, "err", err)
	}
}

// Nop is an AuditLogger that discards every event. Used when audit storage is
// not configured.
type Nop struct{}

// LogEvent discards the event.
func (Nop) LogEvent(ctx context.Context, ownerID, action, targetType, targetID, metadata string) {}
