// internal/infrastructure/persistence/cart.go
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/infrastructure/kv"
	"github.com/your-org/storefront/internal/pkg/logger"
)

// CartKey is where the serialized cart of a session lives
func CartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

// SelectionKey is where the selected line ids of a session live
func SelectionKey(sessionID string) string {
	return fmt.Sprintf("cart:selected:%s", sessionID)
}

// CartPersister mirrors one session's cart store into a kv.Store under two
// keys, one for the cart and one for the selection.
type CartPersister struct {
	store     kv.Store
	sessionID string
	log       *logrus.Entry
}

// NewCartPersister creates the persister of a session
func NewCartPersister(store kv.Store, sessionID string, log logrus.FieldLogger) *CartPersister {
	return &CartPersister{
		store:     store,
		sessionID: sessionID,
		log:       logger.Component(log, "cart_persister").WithField("session_id", sessionID),
	}
}

// CartPersisterFactory adapts NewCartPersister for cart.NewRegistry
func CartPersisterFactory(store kv.Store, log logrus.FieldLogger) cart.PersisterFactory {
	return func(sessionID string) cart.Persister {
		return NewCartPersister(store, sessionID, log)
	}
}

// Load reads both keys. A missing key is an empty state. A value that cannot
// be decoded is logged and treated as missing, independently for each key.
func (p *CartPersister) Load(ctx context.Context) (cart.Snapshot, error) {
	var snap cart.Snapshot

	data, err := p.store.Get(ctx, CartKey(p.sessionID))
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return cart.Snapshot{}, fmt.Errorf("failed to load cart: %w", err)
	default:
		var c cart.Cart
		if err := json.Unmarshal(data, &c); err != nil {
			p.log.WithError(err).Warn("discarding malformed stored cart")
		} else {
			snap.Cart = &c
		}
	}

	data, err = p.store.Get(ctx, SelectionKey(p.sessionID))
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		p.log.WithError(err).Warn("failed to load cart selection")
	default:
		var ids []cart.LineID
		if err := json.Unmarshal(data, &ids); err != nil {
			p.log.WithError(err).Warn("discarding malformed stored selection")
		} else {
			snap.Selected = ids
		}
	}

	return snap, nil
}

// Save writes the cart and the selection. An absent cart deletes both keys.
func (p *CartPersister) Save(ctx context.Context, snap cart.Snapshot) error {
	if snap.Cart == nil {
		return errors.Join(
			p.store.Delete(ctx, CartKey(p.sessionID)),
			p.store.Delete(ctx, SelectionKey(p.sessionID)),
		)
	}

	cartJSON, err := json.Marshal(snap.Cart)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	selected := snap.Selected
	if selected == nil {
		selected = []cart.LineID{}
	}
	selectedJSON, err := json.Marshal(selected)
	if err != nil {
		return fmt.Errorf("failed to marshal selection: %w", err)
	}

	return errors.Join(
		p.store.Set(ctx, CartKey(p.sessionID), cartJSON),
		p.store.Set(ctx, SelectionKey(p.sessionID), selectedJSON),
	)
}
