package repository

import (
	"context"
	"database/sql"
	"fmt"

	"cribtrack/backend/internal/audit/domain"
)

// PostgresRepository implements Repository against Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log entry. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	owner := sql.NullString{String: a.OwnerID, Valid: a.OwnerID != ""}
	meta := a.Metadata
	if meta == "" {
		meta = "{}"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, owner_id, action, target_type, target_id, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, owner, a.Action, a.TargetType, a.TargetID, meta, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListByOwner returns audit logs for the caregiver, newest first, paginated by
// limit and offset.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, action, target_type, target_id, metadata, created_at
		 FROM audit_logs WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a     domain.AuditLog
			owner sql.NullString
		)
		if err := rows.Scan(&a.ID, &owner, &a.Action, &a.TargetType, &a.TargetID, &a.Metadata, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("list audit logs: %w", err)
		}
		a.OwnerID = owner.String
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return out, nil
}
