package attendance

import (
	"context"
	"time"
)

// Record is one accepted check-in. Records are never mutated; they
// survive deletion of their session and then list with an unresolved
// session reference.
type Record struct {
	ID          string    `json:"id"`
	StudentName string    `json:"student_name"`
	SessionID   string    `json:"session_id"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// Ledger is the collection of accepted check-ins. Implementations
// enforce the one-record-per-(student, session) invariant atomically,
// so the invariant holds even when attempts race behind a concurrent
// server. Names are matched case-sensitively after trimming.
type Ledger interface {
	// Has reports whether the student already checked in for the session.
	Has(ctx context.Context, studentName, sessionID string) (bool, error)
	// Record appends a check-in, or fails with ErrDuplicateCheckIn.
	Record(ctx context.Context, studentName, sessionID string, at time.Time) (Record, error)
	// Delete removes a record if present; absent ids are a no-op.
	Delete(ctx context.Context, id string) error
	// ListBySession returns the session's records in insertion order.
	ListBySession(ctx context.Context, sessionID string) ([]Record, error)
	// ListAll returns every record in insertion order.
	ListAll(ctx context.Context) ([]Record, error)
}
