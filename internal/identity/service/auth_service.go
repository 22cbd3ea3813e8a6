// Package service implements caregiver registration, login, and refresh token
// rotation.
package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	identitydomain "cribtrack/backend/internal/identity/domain"
	"cribtrack/backend/internal/security"
)

// Sentinel errors for the auth service; the handler maps them to HTTP status codes.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
)

// AuthResult holds the outcome of Register, Login, or Refresh.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	OwnerID      string
}

// EventLogger records auth events for the audit trail.
type EventLogger interface {
	LogEvent(ctx context.Context, ownerID, action, targetType, targetID, metadata string)
}

// CaregiverRepo is the minimal caregiver repository needed by the auth service.
type CaregiverRepo interface {
	Create(ctx context.Context, c *identitydomain.Caregiver) error
	GetByID(ctx context.Context, id string) (*identitydomain.Caregiver, error)
	GetByEmail(ctx context.Context, email string) (*identitydomain.Caregiver, error)
	UpdateRefreshTokenHash(ctx context.Context, id, hash string) error
}

// AuthService implements password register, login, refresh, and logout.
type AuthService struct {
	caregivers CaregiverRepo
	hasher     *security.Hasher
	tokens     *security.TokenProvider
	auditor    EventLogger
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(caregivers CaregiverRepo, hasher *security.Hasher, tokens *security.TokenProvider) *AuthService {
	return &AuthService{caregivers: caregivers, hasher: hasher, tokens: tokens}
}

// SetAuditor registers the audit trail for auth events. Call before serving
// requests.
func (s *AuthService) SetAuditor(a EventLogger) {
	s.auditor = a
}

func (s *AuthService) audit(ctx context.Context, ownerID, action string) {
	if s.auditor != nil {
		s.auditor.LogEvent(ctx, ownerID, action, "caregiver", ownerID, "")
	}
}

// Register creates a caregiver with the given email and password and returns
// a fresh token pair, so signup flows straight into a signed-in state.
func (s *AuthService) Register(ctx context.Context, email, password, displayName string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	existing, err := s.caregivers.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	caregiver := &identitydomain.Caregiver{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := caregiver.Validate(); err != nil {
		return nil, err
	}
	if err := s.caregivers.Create(ctx, caregiver); err != nil {
		return nil, err
	}
	s.audit(ctx, caregiver.ID, "auth.register")
	return s.issueTokens(ctx, caregiver.ID)
}

// Login authenticates with email/password and returns a new token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	caregiver, err := s.caregivers.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if caregiver == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(caregiver.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	s.audit(ctx, caregiver.ID, "auth.login")
	return s.issueTokens(ctx, caregiver.ID)
}

// Refresh validates the refresh token against the stored hash, rotates it,
// and returns new tokens. A token that does not match the stored hash has
// been superseded by a later login or refresh and is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	ownerID, _, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	caregiver, err := s.caregivers.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if caregiver == nil || caregiver.RefreshTokenHash == "" {
		return nil, ErrInvalidRefreshToken
	}
	if !security.RefreshTokenHashEqual(refreshToken, caregiver.RefreshTokenHash) {
		return nil, ErrInvalidRefreshToken
	}
	return s.issueTokens(ctx, ownerID)
}

// Logout clears the stored refresh token hash so the current refresh token
// stops working. Access tokens expire on their own.
func (s *AuthService) Logout(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return nil
	}
	if err := s.caregivers.UpdateRefreshTokenHash(ctx, ownerID, ""); err != nil {
		return err
	}
	s.audit(ctx, ownerID, "auth.logout")
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, ownerID string) (*AuthResult, error) {
	refreshToken, _, _, err := s.tokens.IssueRefresh(ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.caregivers.UpdateRefreshTokenHash(ctx, ownerID, security.HashRefreshToken(refreshToken)); err != nil {
		return nil, err
	}
	accessToken, _, accessExp, err := s.tokens.IssueAccess(ownerID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
		OwnerID:      ownerID,
	}, nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	const simpleEmail = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	ok, _ := regexp.MatchString(simpleEmail, email)
	if !ok {
		return errors.New("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
