// internal/domain/cart/registry.go
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/pkg/logger"
)

// PersisterFactory returns the persister for a guest session
type PersisterFactory func(sessionID string) Persister

// Registry keeps one Store per guest session. Stores are opened lazily on
// first use and stay in memory until evicted.
type Registry struct {
	mu      sync.Mutex
	stores  map[string]*Store
	factory PersisterFactory
	opts    []Option
	log     *logrus.Entry
}

// NewRegistry creates a registry that opens stores through factory
func NewRegistry(factory PersisterFactory, log logrus.FieldLogger, opts ...Option) *Registry {
	return &Registry{
		stores:  make(map[string]*Store),
		factory: factory,
		opts:    append([]Option{WithLogger(log)}, opts...),
		log:     logger.Component(log, "cart_registry"),
	}
}

// Get returns the store of a session, opening it if needed. The persisted
// state is loaded without holding the registry lock; when two requests open
// the same session at once the first store registered wins.
func (r *Registry) Get(ctx context.Context, sessionID string) (*Store, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	if s, ok := r.lookup(sessionID); ok {
		return s, nil
	}

	opened := Open(ctx, sessionID, r.factory(sessionID), r.opts...)

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stores[sessionID]; ok {
		s.touch()
		return s, nil
	}
	r.stores[sessionID] = opened
	return opened, nil
}

func (r *Registry) lookup(sessionID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[sessionID]
	if ok {
		s.touch()
	}
	return s, ok
}

// Evict drops the in-memory store of a session. Its persisted state is kept.
func (r *Registry) Evict(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, sessionID)
}

// EvictIdle drops stores that have not been used since the cutoff and
// returns how many were dropped
func (r *Registry) EvictIdle(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, s := range r.stores {
		if s.idleSince().Before(cutoff) {
			delete(r.stores, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of open stores
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// RunJanitor evicts stores idle for longer than idle every interval until ctx is done
func (r *Registry) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.EvictIdle(now.Add(-idle)); n > 0 {
				r.log.WithField("evicted", n).Debug("evicted idle cart sessions")
			}
		}
	}
}
