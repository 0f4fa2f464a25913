package attendance

import (
	"errors"
	"fmt"

	"smartattend/internal/session"
)

// Rejection outcomes of a check-in attempt. Every one of these is
// recoverable by the caller; the engine never panics on bad input.
var (
	// ErrInvalidName rejects an empty (after trimming) student name.
	ErrInvalidName = errors.New("student name required")
	// ErrLocationUnavailable rejects an attempt whose location could not
	// be acquired by the caller.
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrAlreadyCheckedIn rejects a second check-in by the same student
	// for the same session.
	ErrAlreadyCheckedIn = errors.New("already checked in for this session")
	// ErrDuplicateCheckIn is the ledger-level uniqueness violation; the
	// engine surfaces it as ErrAlreadyCheckedIn.
	ErrDuplicateCheckIn = errors.New("duplicate check-in")
)

// NotActiveError rejects an attempt outside the session window. Phase
// distinguishes "not yet started" from "already ended" for display.
type NotActiveError struct {
	Phase session.Phase
}

func (e *NotActiveError) Error() string {
	if e.Phase == session.Pending {
		return "session has not started yet"
	}
	return "session has ended"
}

// OutOfRangeError rejects an attempt from outside the geofence and
// carries the computed distance for diagnostics.
type OutOfRangeError struct {
	DistanceMeters float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("outside allowed range (%.0fm from session location)", e.DistanceMeters)
}

// RejectReason maps a check-in rejection to a stable machine-readable
// code, used for API payloads and metric labels. Unknown errors map to
// "internal".
func RejectReason(err error) string {
	var notActive *NotActiveError
	var outOfRange *OutOfRangeError
	switch {
	case errors.Is(err, session.ErrNotFound):
		return "session_not_found"
	case errors.Is(err, ErrInvalidName):
		return "invalid_name"
	case errors.As(err, &notActive):
		return "session_not_active"
	case errors.Is(err, ErrLocationUnavailable):
		return "location_unavailable"
	case errors.As(err, &outOfRange):
		return "out_of_range"
	case errors.Is(err, ErrAlreadyCheckedIn):
		return "already_checked_in"
	default:
		return "internal"
	}
}
