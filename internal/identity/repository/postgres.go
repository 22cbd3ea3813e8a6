package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cribtrack/backend/internal/identity/domain"
)

const selectCaregiverColumns = `SELECT id, email, display_name, password_hash, refresh_token_hash, created_at, updated_at FROM caregivers`

// PostgresRepository implements Repository against Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a caregiver repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new caregiver row.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Caregiver) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO caregivers (id, email, display_name, password_hash, refresh_token_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Email, c.DisplayName, c.PasswordHash, c.RefreshTokenHash, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create caregiver: %w", err)
	}
	return nil
}

// GetByID returns the caregiver for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Caregiver, error) {
	return r.get(ctx, selectCaregiverColumns+` WHERE id = $1`, id)
}

// GetByEmail returns the caregiver for email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Caregiver, error) {
	return r.get(ctx, selectCaregiverColumns+` WHERE email = $1`, email)
}

func (r *PostgresRepository) get(ctx context.Context, query string, arg any) (*domain.Caregiver, error) {
	var c domain.Caregiver
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&c.ID, &c.Email, &c.DisplayName, &c.PasswordHash, &c.RefreshTokenHash, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get caregiver: %w", err)
	}
	return &c, nil
}

// UpdateRefreshTokenHash replaces the stored refresh token hash, invalidating
// any previously issued refresh token.
func (r *PostgresRepository) UpdateRefreshTokenHash(ctx context.Context, id, hash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE caregivers SET refresh_token_hash = $2, updated_at = now() WHERE id = $1`,
		id, hash,
	)
	if err != nil {
		return fmt.Errorf("update refresh token hash: %w", err)
	}
	return nil
}
