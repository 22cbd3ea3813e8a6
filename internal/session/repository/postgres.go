package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cribtrack/backend/internal/session/domain"
)

const selectSessionColumns = `SELECT id, owner_id, tracked_domain, kind, start_time, end_time, duration_minutes, side, amount_ml, food_type, created_at FROM sessions`

// PostgresRepository implements Repository against Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists s as a new active session row (end_time NULL).
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, owner_id, tracked_domain, kind, start_time, end_time, duration_minutes, side, amount_ml, food_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, NULL, NULL, $6, $7, $8, $9)`,
		s.ID, s.OwnerID, string(s.Domain), string(s.Kind), s.StartTime,
		nullString(s.Side), nullInt(s.AmountML), nullString(s.FoodType), s.CreatedAt,
	)
	if err != nil {
		return writeErr("create session", err)
	}
	return nil
}

// GetByID returns the session for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, selectSessionColumns+` WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, readErr("get session", err)
	}
	return s, nil
}

// FindActive returns the open session for the owner in the given domain, nil
// if none. A LIMIT 2 probe detects the should-not-happen case of multiple
// open sessions and surfaces it as ErrAmbiguousState instead of picking one.
func (r *PostgresRepository) FindActive(ctx context.Context, ownerID string, d domain.TrackedDomain) (*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		selectSessionColumns+` WHERE owner_id = $1 AND tracked_domain = $2 AND end_time IS NULL ORDER BY start_time DESC LIMIT 2`,
		ownerID, string(d),
	)
	if err != nil {
		return nil, readErr("find active session", err)
	}
	defer rows.Close()

	var found []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, readErr("find active session", err)
		}
		found = append(found, s)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr("find active session", err)
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("find active session for owner %s: %w", ownerID, domain.ErrAmbiguousState)
	}
}

// ListOpen returns every open session in the given domain across owners.
func (r *PostgresRepository) ListOpen(ctx context.Context, d domain.TrackedDomain) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		selectSessionColumns+` WHERE tracked_domain = $1 AND end_time IS NULL ORDER BY start_time DESC`,
		string(d),
	)
	if err != nil {
		return nil, readErr("list open sessions", err)
	}
	defer rows.Close()
	return collectSessions(rows, "list open sessions")
}

// Close sets end_time and duration_minutes on the session. The UPDATE is
// idempotent; re-closing with identical values changes nothing observable.
func (r *PostgresRepository) Close(ctx context.Context, id string, endTime time.Time, durationMinutes int) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE sessions SET end_time = $2, duration_minutes = $3 WHERE id = $1
		 RETURNING id, owner_id, tracked_domain, kind, start_time, end_time, duration_minutes, side, amount_ml, food_type, created_at`,
		id, endTime, durationMinutes,
	)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, writeErr("close session", err)
	}
	return s, nil
}

// ListRange returns the owner's sessions starting in [from, to), most recent first.
func (r *PostgresRepository) ListRange(ctx context.Context, ownerID string, d domain.TrackedDomain, from, to time.Time) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		selectSessionColumns+` WHERE owner_id = $1 AND tracked_domain = $2 AND start_time >= $3 AND start_time < $4 ORDER BY start_time DESC`,
		ownerID, string(d), from, to,
	)
	if err != nil {
		return nil, readErr("list sessions", err)
	}
	defer rows.Close()
	return collectSessions(rows, "list sessions")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSession(row scannable) (*domain.Session, error) {
	var (
		s        domain.Session
		dom      string
		kind     string
		end      sql.NullTime
		duration sql.NullInt64
		side     sql.NullString
		amount   sql.NullInt64
		food     sql.NullString
	)
	if err := row.Scan(&s.ID, &s.OwnerID, &dom, &kind, &s.StartTime, &end, &duration, &side, &amount, &food, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Domain = domain.TrackedDomain(dom)
	s.Kind = domain.Kind(kind)
	if end.Valid {
		t := end.Time
		s.EndTime = &t
	}
	if duration.Valid {
		m := int(duration.Int64)
		s.DurationMinutes = &m
	}
	if side.Valid {
		s.Side = side.String
	}
	if amount.Valid {
		a := int(amount.Int64)
		s.AmountML = &a
	}
	if food.Valid {
		s.FoodType = food.String
	}
	return &s, nil
}

func collectSessions(rows *sql.Rows, op string) ([]*domain.Session, error) {
	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, readErr(op, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(op, err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func readErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrRemoteRead, err)
}

func writeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrRemoteWrite, err)
}
