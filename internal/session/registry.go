package session

import "context"

// Registry owns the session collection. Sessions are immutable after
// Create; expired sessions stay listed until deleted explicitly.
type Registry interface {
	// Create validates the spec, assigns an id, and appends the session.
	Create(ctx context.Context, spec Spec) (Session, error)
	// Get returns the session or ErrNotFound.
	Get(ctx context.Context, id string) (Session, error)
	// Delete removes the session if present; deleting an absent id is a no-op.
	Delete(ctx context.Context, id string) error
	// List returns sessions in creation order.
	List(ctx context.Context) ([]Session, error)
}
