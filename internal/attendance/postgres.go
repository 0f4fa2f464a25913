package attendance

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres error code raised by the unique index
// on (student_name, session_id).
const uniqueViolation = "23505"

// PostgresLedger persists attendance records in Postgres. Uniqueness is
// enforced by the database index, so racing inserts resolve to exactly
// one record and one duplicate error.
type PostgresLedger struct {
	db *sql.DB
}

// NewPostgresLedger creates a ledger backed by the given connection.
func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Has reports whether the student already has a record for the session.
func (l *PostgresLedger) Has(ctx context.Context, studentName, sessionID string) (bool, error) {
	var exists bool
	err := l.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance_records
			WHERE student_name = $1 AND session_id = $2
		)
	`, strings.TrimSpace(studentName), sessionID).Scan(&exists)
	return exists, err
}

// Record inserts a check-in; a unique-index conflict maps to
// ErrDuplicateCheckIn.
func (l *PostgresLedger) Record(ctx context.Context, studentName, sessionID string, at time.Time) (Record, error) {
	rec := Record{
		ID:          uuid.NewString(),
		StudentName: strings.TrimSpace(studentName),
		SessionID:   sessionID,
		RecordedAt:  at,
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, student_name, session_id, recorded_at)
		VALUES ($1,$2,$3,$4)
	`, rec.ID, rec.StudentName, rec.SessionID, rec.RecordedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Record{}, ErrDuplicateCheckIn
		}
		return Record{}, err
	}
	return rec, nil
}

// Delete removes a record row; absent ids are a no-op.
func (l *PostgresLedger) Delete(ctx context.Context, id string) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	return err
}

// ListBySession returns one session's records in insertion order.
func (l *PostgresLedger) ListBySession(ctx context.Context, sessionID string) ([]Record, error) {
	return l.list(ctx, `
		SELECT id, student_name, session_id, recorded_at
		FROM attendance_records
		WHERE session_id = $1
		ORDER BY recorded_at, id
	`, sessionID)
}

// ListAll returns every record in insertion order.
func (l *PostgresLedger) ListAll(ctx context.Context) ([]Record, error) {
	return l.list(ctx, `
		SELECT id, student_name, session_id, recorded_at
		FROM attendance_records
		ORDER BY recorded_at, id
	`)
}

func (l *PostgresLedger) list(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.StudentName, &rec.SessionID, &rec.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
