package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// ToggleItemSelection flips the selection of a line present in the cart
func (s *Store) ToggleItemSelection(ctx context.Context, id LineID) error {
	return s.mutate(ctx, func() (bool, error) {
		if s.cart == nil || s.cart.indexOf(id) < 0 {
			return false, nil
		}
		if _, ok := s.selected[id]; ok {
			delete(s.selected, id)
		} else {
			s.selected[id] = struct{}{}
		}
		return true, nil
	})
}

// SelectAllItems selects every line
func (s *Store) SelectAllItems(ctx context.Context) error {
	return s.mutate(ctx, func() (bool, error) {
		if s.cart == nil {
			return false, nil
		}
		changed := false
		for _, item := range s.cart.Items {
			if _, ok := s.selected[item.LineID()]; !ok {
				s.selected[item.LineID()] = struct{}{}
				changed = true
			}
		}
		return changed, nil
	})
}

// DeselectAllItems empties the selection
func (s *Store) DeselectAllItems(ctx context.Context) error {
	return s.mutate(ctx, func() (bool, error) {
		if len(s.selected) == 0 {
			return false, nil
		}
		s.selected = make(map[LineID]struct{})
		return true, nil
	})
}

// SetSelectedItems replaces the selection. Ids that are not cart lines are dropped.
func (s *Store) SetSelectedItems(ctx context.Context, ids []LineID) error {
	return s.mutate(ctx, func() (bool, error) {
		selected := make(map[LineID]struct{}, len(ids))
		if s.cart != nil {
			for _, id := range ids {
				if s.cart.indexOf(id) >= 0 {
					selected[id] = struct{}{}
				}
			}
		}
		if sameSelection(s.selected, selected) {
			return false, nil
		}
		s.selected = selected
		return true, nil
	})
}

// SelectedItems returns the selected lines in cart order
func (s *Store) SelectedItems() []CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedItemsLocked()
}

// selectedItemsLocked walks the cart rather than the set so a stale id can
// never surface.
func (s *Store) selectedItemsLocked() []CartItem {
	items := []CartItem{}
	if s.cart == nil {
		return items
	}
	for _, item := range s.cart.Items {
		if _, ok := s.selected[item.LineID()]; ok {
			items = append(items, item)
		}
	}
	return items
}

// SelectedIDs returns the selected line ids in cart order
func (s *Store) SelectedIDs() []LineID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedIDsLocked()
}

// SelectedItemsCount returns the number of selected lines
func (s *Store) SelectedItemsCount() int {
	return len(s.SelectedItems())
}

// SelectedItemsTotal returns the subtotal of the selected lines
func (s *Store) SelectedItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.SelectedItems() {
		total = total.Add(item.LineTotal())
	}
	return total
}

// IsItemSelected reports whether a current line is selected
func (s *Store) IsItemSelected(id LineID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil || s.cart.indexOf(id) < 0 {
		return false
	}
	_, ok := s.selected[id]
	return ok
}

// IsAllItemsSelected is true only for a non-empty cart whose lines are all selected
func (s *Store) IsAllItemsSelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil || len(s.cart.Items) == 0 {
		return false
	}
	for _, item := range s.cart.Items {
		if _, ok := s.selected[item.LineID()]; !ok {
			return false
		}
	}
	return true
}

func sameSelection(a, b map[LineID]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}
