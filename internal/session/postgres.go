package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PostgresRegistry persists sessions in Postgres.
type PostgresRegistry struct {
	db *sql.DB
}

// NewPostgresRegistry creates a registry backed by the given connection.
func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

// Create validates and inserts a new session row.
func (r *PostgresRegistry) Create(ctx context.Context, spec Spec) (Session, error) {
	if err := spec.validate(); err != nil {
		return Session{}, err
	}

	s := Session{
		ID:              uuid.NewString(),
		ClassName:       spec.ClassName,
		StartTime:       spec.StartTime,
		DurationMinutes: spec.DurationMinutes,
		Location:        spec.Location,
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, class_name, start_time, duration_minutes, lat, lng, radius_meters)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, s.ID, s.ClassName, s.StartTime, s.DurationMinutes,
		s.Location.Center.Lat, s.Location.Center.Lng, s.Location.RadiusMeters)
	if err := row.Scan(&s.CreatedAt); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Get returns a session by id or ErrNotFound.
func (r *PostgresRegistry) Get(ctx context.Context, id string) (Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, class_name, start_time, duration_minutes, lat, lng, radius_meters, created_at
		FROM sessions WHERE id = $1
	`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return s, nil
}

// Delete removes a session row; absent ids are a no-op.
func (r *PostgresRegistry) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// List returns all sessions in creation order.
func (r *PostgresRegistry) List(ctx context.Context) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, class_name, start_time, duration_minutes, lat, lng, radius_meters, created_at
		FROM sessions
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	var start, created time.Time
	err := row.Scan(&s.ID, &s.ClassName, &start, &s.DurationMinutes,
		&s.Location.Center.Lat, &s.Location.Center.Lng, &s.Location.RadiusMeters, &created)
	if err != nil {
		return Session{}, err
	}
	s.StartTime = start
	s.CreatedAt = created
	return s, nil
}
