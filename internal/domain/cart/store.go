// internal/domain/cart/store.go
package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/pkg/logger"
)

// MaxLineQuantity bounds the quantity of a single cart line
const MaxLineQuantity = 999

// Listener is called after every successful mutation with the new state
type Listener func(Snapshot)

// Store holds the cart of one guest session and its checkout selection.
//
// The cart is either absent (nil) or present with at least one line. Every
// mutation recomputes the total, saves through the persister and then
// notifies listeners outside the lock.
type Store struct {
	mu        sync.Mutex
	sessionID string
	cart      *Cart
	selected  map[LineID]struct{}

	persister Persister
	log       *logrus.Entry
	now       func() time.Time

	listeners  map[int]Listener
	nextListen int
	lastUsed   time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for item timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used for persistence failures
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) {
		s.log = logger.Component(log, "cart_store")
	}
}

// Open creates the store for a session and hydrates it from the persister.
// A load failure is logged and the store starts empty.
func Open(ctx context.Context, sessionID string, persister Persister, opts ...Option) *Store {
	s := &Store{
		sessionID: sessionID,
		selected:  make(map[LineID]struct{}),
		persister: persister,
		log:       logger.Component(logger.Discard(), "cart_store"),
		now:       func() time.Time { return time.Now().UTC() },
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastUsed = s.now()

	snap, err := persister.Load(ctx)
	if err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("failed to load cart, starting empty")
		return s
	}
	s.hydrate(snap)

	return s
}

func (s *Store) hydrate(snap Snapshot) {
	if snap.Cart == nil || len(snap.Cart.Items) == 0 {
		return
	}

	c := snap.Cart.clone()
	if c.ID == "" {
		c.ID = s.sessionID
	}
	// Drop lines that could never have been written by the store
	items := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != "" && item.Quantity > 0 {
			items = append(items, item)
		}
	}
	c.Items = items
	if len(c.Items) == 0 {
		return
	}
	c.recalculate()
	s.cart = c

	for _, id := range snap.Selected {
		if c.indexOf(id) >= 0 {
			s.selected[id] = struct{}{}
		}
	}
}

// SessionID returns the guest session that owns this store
func (s *Store) SessionID() string {
	return s.sessionID
}

// Subscribe registers a listener and returns a function that removes it
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextListen
	s.nextListen++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// mutate runs fn under the lock. When fn reports a change the total is
// recomputed, the state saved and listeners notified.
func (s *Store) mutate(ctx context.Context, fn func() (bool, error)) error {
	s.mu.Lock()
	s.lastUsed = s.now()

	changed, err := fn()
	if err != nil || !changed {
		s.mu.Unlock()
		return err
	}

	if s.cart != nil {
		if len(s.cart.Items) == 0 {
			s.cart = nil
		} else {
			s.cart.recalculate()
		}
	}
	s.pruneSelectionLocked()

	snap := s.snapshotLocked()
	if err := s.persister.Save(ctx, snap); err != nil {
		s.log.WithError(err).WithField("session_id", s.sessionID).Error("failed to persist cart")
	}

	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
	return nil
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Cart:     s.cart.clone(),
		Selected: s.selectedIDsLocked(),
	}
}

// selectedIDsLocked returns selected line ids in cart order, skipping any id
// that is not a current line.
func (s *Store) selectedIDsLocked() []LineID {
	ids := []LineID{}
	if s.cart == nil {
		return ids
	}
	for _, item := range s.cart.Items {
		if _, ok := s.selected[item.LineID()]; ok {
			ids = append(ids, item.LineID())
		}
	}
	return ids
}

func (s *Store) pruneSelectionLocked() {
	for id := range s.selected {
		if s.cart == nil || s.cart.indexOf(id) < 0 {
			delete(s.selected, id)
		}
	}
}

// AddToCart adds quantity units of a product. An existing line for the same
// product and variant is incremented; a new line is appended and selected.
func (s *Store) AddToCart(ctx context.Context, product Product, quantity int, variant string) error {
	if product.ID == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 || quantity > MaxLineQuantity {
		return fmt.Errorf("add %s: %w", product.ID, ErrInvalidQuantity)
	}

	return s.mutate(ctx, func() (bool, error) {
		now := s.now()
		id := NewLineID(product.ID, variant)

		if s.cart == nil {
			s.cart = &Cart{
				ID:        s.sessionID,
				CreatedAt: now,
			}
		}
		s.cart.UpdatedAt = now

		if i := s.cart.indexOf(id); i >= 0 {
			merged := s.cart.Items[i].Quantity + quantity
			if merged > MaxLineQuantity {
				return false, fmt.Errorf("%s would hold %d, limit is %d: %w", id, merged, MaxLineQuantity, ErrInvalidQuantity)
			}
			s.cart.Items[i].Quantity = merged
			s.cart.Items[i].UpdatedAt = now
			return true, nil
		}

		s.cart.Items = append(s.cart.Items, CartItem{
			ProductID:       product.ID,
			Name:            product.Name,
			UnitPrice:       product.Price,
			Quantity:        quantity,
			SelectedVariant: variant,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		s.selected[id] = struct{}{}
		return true, nil
	})
}

// RemoveFromCart removes a line and its selection. Removing an absent line is a no-op.
func (s *Store) RemoveFromCart(ctx context.Context, id LineID) error {
	return s.mutate(ctx, func() (bool, error) {
		return s.removeLocked(id), nil
	})
}

// RemoveLines removes several lines in one mutation
func (s *Store) RemoveLines(ctx context.Context, ids []LineID) error {
	return s.mutate(ctx, func() (bool, error) {
		changed := false
		for _, id := range ids {
			if s.removeLocked(id) {
				changed = true
			}
		}
		return changed, nil
	})
}

// CheckoutSelected hands the selected lines to place while holding the store
// lock and removes them once place succeeds. When place fails the cart is
// left untouched. place must not call back into the store.
func (s *Store) CheckoutSelected(ctx context.Context, place func(items []CartItem) error) error {
	return s.mutate(ctx, func() (bool, error) {
		items := s.selectedItemsLocked()
		if err := place(items); err != nil {
			return false, err
		}
		for _, item := range items {
			s.removeLocked(item.LineID())
		}
		return len(items) > 0, nil
	})
}

func (s *Store) removeLocked(id LineID) bool {
	if s.cart == nil {
		return false
	}
	i := s.cart.indexOf(id)
	if i < 0 {
		return false
	}
	s.cart.Items = append(s.cart.Items[:i], s.cart.Items[i+1:]...)
	s.cart.UpdatedAt = s.now()
	delete(s.selected, id)
	return true
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less removes it.
func (s *Store) UpdateQuantity(ctx context.Context, id LineID, quantity int) error {
	if quantity > MaxLineQuantity {
		return fmt.Errorf("update %s: %w", id, ErrInvalidQuantity)
	}
	return s.mutate(ctx, func() (bool, error) {
		if quantity <= 0 {
			return s.removeLocked(id), nil
		}
		if s.cart == nil {
			return false, nil
		}
		i := s.cart.indexOf(id)
		if i < 0 {
			return false, nil
		}
		now := s.now()
		s.cart.Items[i].Quantity = quantity
		s.cart.Items[i].UpdatedAt = now
		s.cart.UpdatedAt = now
		return true, nil
	})
}

// ClearCart resets the cart and the selection to the absent state
func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, func() (bool, error) {
		s.cart = nil
		s.selected = make(map[LineID]struct{})
		return true, nil
	})
}

// Cart returns a copy of the cart, or nil while it is absent
func (s *Store) Cart() *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.clone()
}

// Snapshot returns a copy of the whole store state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// TotalAmount returns the sum of all line totals
func (s *Store) TotalAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return decimal.Zero
	}
	return s.cart.TotalAmount
}

// TotalItems returns the sum of quantities over all lines
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return 0
	}
	total := 0
	for _, item := range s.cart.Items {
		total += item.Quantity
	}
	return total
}

// ItemQuantity returns the quantity of a line, 0 if it is not in the cart
func (s *Store) ItemQuantity(id LineID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return 0
	}
	if i := s.cart.indexOf(id); i >= 0 {
		return s.cart.Items[i].Quantity
	}
	return 0
}

// Totals returns the figures the cart page shows
func (s *Store) Totals() CartTotals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalsLocked()
}

// View returns the state and its totals read under one lock
func (s *Store) View() (Snapshot, CartTotals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), s.totalsLocked()
}

func (s *Store) totalsLocked() CartTotals {
	totals := CartTotals{
		SubTotal:      decimal.Zero,
		SelectedTotal: decimal.Zero,
	}
	if s.cart == nil {
		return totals
	}

	totals.ItemCount = len(s.cart.Items)
	totals.SubTotal = s.cart.TotalAmount
	for _, item := range s.cart.Items {
		totals.TotalQuantity += item.Quantity
	}
	selected := s.selectedItemsLocked()
	totals.SelectedCount = len(selected)
	for _, item := range selected {
		totals.SelectedTotal = totals.SelectedTotal.Add(item.LineTotal())
	}
	totals.AllSelected = len(selected) == len(s.cart.Items)

	return totals
}

func (s *Store) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = s.now()
}

func (s *Store) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
