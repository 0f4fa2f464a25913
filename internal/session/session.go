package session

import (
	"errors"
	"fmt"
	"time"

	"smartattend/internal/geo"
)

// ErrNotFound is returned when a session id does not resolve.
var ErrNotFound = errors.New("session not found")

// ValidationError reports which field of a session spec was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid session spec: %s %s", e.Field, e.Reason)
}

// Phase is a session's temporal state relative to a given instant.
type Phase int

const (
	Pending Phase = iota
	Active
	Expired
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Session is an instructor-defined attendance window with a class label,
// time bounds, and a geofence. Immutable once created.
type Session struct {
	ID              string    `json:"id"`
	ClassName       string    `json:"class_name"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        geo.Fence `json:"location"`
	CreatedAt       time.Time `json:"created_at"`
}

// End is the derived close of the attendance window.
func (s Session) End() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// PhaseAt classifies the session window at the given instant. Both
// endpoints count as active, so a check-in exactly at the start or the
// end of the window is accepted.
func (s Session) PhaseAt(now time.Time) Phase {
	if now.Before(s.StartTime) {
		return Pending
	}
	if now.After(s.End()) {
		return Expired
	}
	return Active
}

// TimeRemaining returns time until start while pending, and time until
// end otherwise (negative once expired). Display only; validation goes
// through PhaseAt.
func (s Session) TimeRemaining(now time.Time) time.Duration {
	if s.PhaseAt(now) == Pending {
		return s.StartTime.Sub(now)
	}
	return s.End().Sub(now)
}

// Spec is the caller-supplied input to Registry.Create.
type Spec struct {
	ClassName       string    `json:"class_name"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Location        geo.Fence `json:"location"`
}

func (sp Spec) validate() error {
	if sp.ClassName == "" {
		return &ValidationError{Field: "class_name", Reason: "must not be empty"}
	}
	if sp.StartTime.IsZero() {
		return &ValidationError{Field: "start_time", Reason: "must be provided"}
	}
	if sp.DurationMinutes <= 0 {
		return &ValidationError{Field: "duration_minutes", Reason: "must be positive"}
	}
	if sp.Location.Center.Lat < -90 || sp.Location.Center.Lat > 90 {
		return &ValidationError{Field: "location.lat", Reason: "must be within [-90, 90]"}
	}
	if sp.Location.Center.Lng < -180 || sp.Location.Center.Lng > 180 {
		return &ValidationError{Field: "location.lng", Reason: "must be within [-180, 180]"}
	}
	if sp.Location.RadiusMeters <= 0 {
		return &ValidationError{Field: "location.radius_meters", Reason: "must be positive"}
	}
	return nil
}
