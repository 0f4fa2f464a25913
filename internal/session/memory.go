package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRegistry keeps sessions in process memory. Suitable for
// single-instance deployments and tests; state lives as long as the
// process does.
type MemoryRegistry struct {
	mu      sync.RWMutex
	byID    map[string]Session
	ordered []string
	now     func() time.Time
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		byID: make(map[string]Session),
		now:  time.Now,
	}
}

// Create validates and appends a new session.
func (r *MemoryRegistry) Create(_ context.Context, spec Spec) (Session, error) {
	if err := spec.validate(); err != nil {
		return Session{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := Session{
		ID:              uuid.NewString(),
		ClassName:       spec.ClassName,
		StartTime:       spec.StartTime,
		DurationMinutes: spec.DurationMinutes,
		Location:        spec.Location,
		CreatedAt:       r.now().UTC(),
	}
	r.byID[s.ID] = s
	r.ordered = append(r.ordered, s.ID)
	return s, nil
}

// Get returns a session by id.
func (r *MemoryRegistry) Get(_ context.Context, id string) (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

// Delete removes a session; absent ids are ignored.
func (r *MemoryRegistry) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return nil
	}
	delete(r.byID, id)
	for i, existing := range r.ordered {
		if existing == id {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
			break
		}
	}
	return nil
}

// List returns sessions in creation order.
func (r *MemoryRegistry) List(_ context.Context) ([]Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Session, 0, len(r.ordered))
	for _, id := range r.ordered {
		out = append(out, r.byID[id])
	}
	return out, nil
}
