// Package repository defines the caregiver persistence interface and its
// Postgres implementation.
package repository

import (
	"context"

	"cribtrack/backend/internal/identity/domain"
)

// Repository persists caregiver accounts.
type Repository interface {
	// Create inserts a new caregiver.
	Create(ctx context.Context, c *domain.Caregiver) error
	// GetByID returns the caregiver by ID, or nil if not found.
	GetByID(ctx context.Context, id string) (*domain.Caregiver, error)
	// GetByEmail returns the caregiver by email, or nil if not found.
	GetByEmail(ctx context.Context, email string) (*domain.Caregiver, error)
	// UpdateRefreshTokenHash replaces the stored refresh token hash.
	UpdateRefreshTokenHash(ctx context.Context, id, hash string) error
}
