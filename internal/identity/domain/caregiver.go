// Package domain defines the caregiver account entity.
package domain

import (
	"errors"
	"time"
)

// Caregiver is an account that owns tracked sessions. RefreshTokenHash holds
// the hash of the currently valid refresh token; rotation overwrites it so
// older refresh tokens stop working.
type Caregiver struct {
	ID               string
	Email            string
	DisplayName      string
	PasswordHash     string
	RefreshTokenHash string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate checks required fields.
func (c *Caregiver) Validate() error {
	if c.ID == "" {
		return errors.New("caregiver: id is required")
	}
	if c.Email == "" {
		return errors.New("caregiver: email is required")
	}
	if c.PasswordHash == "" {
		return errors.New("caregiver: password hash is required")
	}
	return nil
}
