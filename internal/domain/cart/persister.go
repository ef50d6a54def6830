package cart

import "context"

// Persister mirrors a store to durable storage.
//
// Load returns an empty snapshot when nothing was stored. Implementations
// decide how to treat partially corrupted state; the store only logs a
// returned error and starts empty.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
}
