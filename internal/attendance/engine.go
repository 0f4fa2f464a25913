package attendance

import (
	"context"
	"errors"
	"strings"
	"time"

	"smartattend/internal/geo"
	"smartattend/internal/session"
)

// Engine decides whether a single check-in attempt is accepted. It
// orchestrates the session registry, window classification, the
// geofence check, and the ledger.
type Engine struct {
	registry session.Registry
	ledger   Ledger
}

// NewEngine creates an engine over the given registry and ledger.
func NewEngine(registry session.Registry, ledger Ledger) *Engine {
	return &Engine{registry: registry, ledger: ledger}
}

// AttemptCheckIn validates one (student, session, instant, coordinate)
// tuple and records it on success. A nil fix means the caller could not
// acquire a location.
//
// Checks run in a fixed order and short-circuit on the first failure:
// session lookup, name, time window, location availability, geofence,
// duplicate. The window check deliberately precedes the location
// checks, so a dead session rejects with its phase even when no
// location was acquired; timing is the cheaper and less
// privacy-sensitive test.
func (e *Engine) AttemptCheckIn(ctx context.Context, sessionID, studentName string, now time.Time, fix *geo.Coordinate) (Record, error) {
	sess, err := e.registry.Get(ctx, sessionID)
	if err != nil {
		return Record{}, err
	}

	name := strings.TrimSpace(studentName)
	if name == "" {
		return Record{}, ErrInvalidName
	}

	if phase := sess.PhaseAt(now); phase != session.Active {
		return Record{}, &NotActiveError{Phase: phase}
	}

	if fix == nil {
		return Record{}, ErrLocationUnavailable
	}

	if !sess.Location.Contains(*fix) {
		return Record{}, &OutOfRangeError{DistanceMeters: sess.Location.DistanceTo(*fix)}
	}

	rec, err := e.ledger.Record(ctx, name, sess.ID, now)
	if err != nil {
		if errors.Is(err, ErrDuplicateCheckIn) {
			return Record{}, ErrAlreadyCheckedIn
		}
		return Record{}, err
	}
	return rec, nil
}
