package attendance

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"smartattend/internal/geo"
	"smartattend/internal/session"
)

// newTestEngine wires an engine over fresh in-memory stores and creates
// one session: starts at base, 30 minutes, 100m fence around (0,0).
func newTestEngine(t *testing.T, base time.Time) (*Engine, session.Registry, Ledger, session.Session) {
	t.Helper()
	registry := session.NewMemoryRegistry()
	ledger := NewMemoryLedger()
	sess, err := registry.Create(context.Background(), session.Spec{
		ClassName:       "Networks",
		StartTime:       base,
		DurationMinutes: 30,
		Location:        geo.Fence{Center: geo.Coordinate{Lat: 0, Lng: 0}, RadiusMeters: 100},
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return NewEngine(registry, ledger), registry, ledger, sess
}

func atCenter() *geo.Coordinate {
	return &geo.Coordinate{Lat: 0, Lng: 0}
}

func TestAttemptCheckInAccepted(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	engine, _, ledger, sess := newTestEngine(t, base)

	rec, err := engine.AttemptCheckIn(context.Background(), sess.ID, "Bob", base.Add(5*time.Minute), atCenter())
	if err != nil {
		t.Fatalf("check-in rejected: %v", err)
	}
	if rec.StudentName != "Bob" || rec.SessionID != sess.ID {
		t.Fatalf("unexpected record: %+v", rec)
	}

	records, _ := ledger.ListBySession(context.Background(), sess.ID)
	if len(records) != 1 || records[0].ID != rec.ID {
		t.Fatalf("record not in ledger: %+v", records)
	}
}

func TestAttemptCheckInUnknownSession(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	engine, _, _, _ := newTestEngine(t, base)

	_, err := engine.AttemptCheckIn(context.Background(), "no-such-id", "Bob", base, atCenter())
	if !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("got %v, want session.ErrNotFound", err)
	}
}

func TestAttemptCheckInInvalidName(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	engine, _, _, sess := newTestEngine(t, base)

	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := engine.AttemptCheckIn(context.Background(), sess.ID, name, base.Add(time.Minute), atCenter()); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("name %q: got %v, want ErrInvalidName", name, err)
		}
	}
}

func TestAttemptCheckInWindow(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	engine, _, _, sess := newTestEngine(t, base)
	ctx := context.Background()

	// Before start: rejected with the pending phase.
	_, err := engine.AttemptCheckIn(ctx, sess.ID, "Bob", base.Add(-time.Minute), atCenter())
	var notActive *NotActiveError
	if !errors.As(err, &notActive) || notActive.Phase != session.Pending {
		t.Fatalf("before start: got %v, want NotActiveError{pending}", err)
	}

	// 31 minutes in: rejected with the expired phase, regardless of location.
	_, err = engine.AttemptCheckIn(ctx, sess.ID, "Bob", base.Add(31*time.Minute), atCenter())
	if !errors.As(err, &notActive) || notActive.Phase != session.Expired {
		t.Fatalf("after end: got %v, want NotActiveError{expired}", err)
	}

	// Both window endpoints are accepted.
	if _, err := engine.AttemptCheckIn(ctx, sess.ID, "Early", base, atCenter()); err != nil {
		t.Fatalf("check-in at start rejected: %v", err)
	}
	if _, err := engine.AttemptCheckIn(ctx, sess.ID, "Late", base.Add(30*time.Minute), atCenter()); err != nil {
		t.Fatalf("check-in at end rejected: %v", err)
	}
}

func TestAttemptCheckInTimingBeatsLocation(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	engine, _, _, sess := newTestEngine(t, base)

	// An expired session reports its phase even when the caller had no
	// location fix.
	_, err := engine.AttemptCheckIn(context.Background(), sess.ID, "Bob", base.Add(time.Hour), nil)
	var notActive *NotActiveError
	if !errors.As(err, &notActive) || notActive.Phase != session.Expired {
		t.Fatalf("got %v, want NotActiveError{expired}", err)
	}
}

func TestAttemptCheckInLocationUnavailable(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	engine, _, _, sess := newTestEngine(t, base)

	_, err := engine.AttemptCheckIn(context.Background(), sess.ID, "Bob", base.Add(5*time.Minute), nil)
	if !errors.Is(err, ErrLocationUnavailable) {
		t.Fatalf("got %v, want ErrLocationUnavailable", err)
	}
}

func TestAttemptCheckInOutOfRange(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	engine, _, _, sess := newTestEngine(t, base)

	// ~500m north of the session center, fence radius is 100m.
	far := &geo.Coordinate{Lat: 0.0045, Lng: 0}
	_, err := engine.AttemptCheckIn(context.Background(), sess.ID, "Bob", base.Add(5*time.Minute), far)
	var outOfRange *OutOfRangeError
	if !errors.As(err, &outOfRange) {
		t.Fatalf("got %v, want OutOfRangeError", err)
	}
	if math.Abs(outOfRange.DistanceMeters-500) > 5 {
		t.Fatalf("reported distance %.1fm, want ≈500m", outOfRange.DistanceMeters)
	}
}

func TestAttemptCheckInDuplicate(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	engine, _, _, sess := newTestEngine(t, base)
	ctx := context.Background()

	if _, err := engine.AttemptCheckIn(ctx, sess.ID, "Bob", base.Add(5*time.Minute), atCenter()); err != nil {
		t.Fatalf("first check-in: %v", err)
	}
	_, err := engine.AttemptCheckIn(ctx, sess.ID, "Bob", base.Add(10*time.Minute), atCenter())
	if !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("second check-in = %v, want ErrAlreadyCheckedIn", err)
	}
}

func TestRecordsSurviveSessionDeletion(t *testing.T) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	engine, registry, ledger, sess := newTestEngine(t, base)
	ctx := context.Background()

	rec, err := engine.AttemptCheckIn(ctx, sess.ID, "Bob", base.Add(5*time.Minute), atCenter())
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if err := registry.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	all, err := ledger.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 || all[0].ID != rec.ID {
		t.Fatalf("orphaned record missing: %+v", all)
	}
	// The session reference no longer resolves.
	if _, err := registry.Get(ctx, all[0].SessionID); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("expected unresolved session reference, got %v", err)
	}
}

func TestRejectReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{session.ErrNotFound, "session_not_found"},
		{ErrInvalidName, "invalid_name"},
		{&NotActiveError{Phase: session.Pending}, "session_not_active"},
		{&NotActiveError{Phase: session.Expired}, "session_not_active"},
		{ErrLocationUnavailable, "location_unavailable"},
		{&OutOfRangeError{DistanceMeters: 512}, "out_of_range"},
		{ErrAlreadyCheckedIn, "already_checked_in"},
		{errors.New("boom"), "internal"},
	}
	for _, tc := range tests {
		if got := RejectReason(tc.err); got != tc.want {
			t.Errorf("RejectReason(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
