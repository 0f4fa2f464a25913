package attendance

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLedger keeps attendance records in process memory. The mutex
// spans the duplicate check and the insert, which is what makes the
// uniqueness invariant hold under concurrent callers.
type MemoryLedger struct {
	mu      sync.RWMutex
	records []Record
	seen    map[ledgerKey]struct{}
}

type ledgerKey struct {
	student string
	session string
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[ledgerKey]struct{})}
}

// Has reports whether the student already has a record for the session.
func (l *MemoryLedger) Has(_ context.Context, studentName, sessionID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.seen[ledgerKey{strings.TrimSpace(studentName), sessionID}]
	return ok, nil
}

// Record appends a check-in or fails with ErrDuplicateCheckIn.
func (l *MemoryLedger) Record(_ context.Context, studentName, sessionID string, at time.Time) (Record, error) {
	name := strings.TrimSpace(studentName)
	key := ledgerKey{name, sessionID}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[key]; ok {
		return Record{}, ErrDuplicateCheckIn
	}
	rec := Record{
		ID:          uuid.NewString(),
		StudentName: name,
		SessionID:   sessionID,
		RecordedAt:  at,
	}
	l.records = append(l.records, rec)
	l.seen[key] = struct{}{}
	return rec, nil
}

// Delete removes a record by id; absent ids are ignored.
func (l *MemoryLedger) Delete(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, rec := range l.records {
		if rec.ID == id {
			delete(l.seen, ledgerKey{rec.StudentName, rec.SessionID})
			l.records = append(l.records[:i], l.records[i+1:]...)
			return nil
		}
	}
	return nil
}

// ListBySession returns records for one session in insertion order.
func (l *MemoryLedger) ListBySession(_ context.Context, sessionID string) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []Record
	for _, rec := range l.records {
		if rec.SessionID == sessionID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ListAll returns every record in insertion order.
func (l *MemoryLedger) ListAll(_ context.Context) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out, nil
}
