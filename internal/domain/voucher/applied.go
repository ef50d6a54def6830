package voucher

import "github.com/shopspring/decimal"

// Applied is the set of vouchers a shopper has applied at checkout.
// At most one free_shipping voucher is kept: applying another replaces it.
type Applied struct {
	vouchers []Voucher
}

// NewApplied builds an applied set, enforcing the free shipping rule in order
func NewApplied(vouchers ...Voucher) *Applied {
	a := &Applied{}
	for _, v := range vouchers {
		a.Apply(v)
	}
	return a
}

// Apply adds a voucher. Re-applying the same voucher refreshes it in place.
// It returns the free_shipping voucher that was replaced, if any.
func (a *Applied) Apply(v Voucher) *Voucher {
	for i := range a.vouchers {
		if a.vouchers[i].ID == v.ID {
			a.vouchers[i] = v
			return nil
		}
	}

	if v.Type == TypeFreeShipping {
		for i := range a.vouchers {
			if a.vouchers[i].Type == TypeFreeShipping {
				replaced := a.vouchers[i]
				a.vouchers[i] = v
				return &replaced
			}
		}
	}

	a.vouchers = append(a.vouchers, v)
	return nil
}

// Remove drops a voucher by id and reports whether it was applied
func (a *Applied) Remove(id string) bool {
	for i := range a.vouchers {
		if a.vouchers[i].ID == id {
			a.vouchers = append(a.vouchers[:i], a.vouchers[i+1:]...)
			return true
		}
	}
	return false
}

// Vouchers returns a copy of the applied vouchers in application order
func (a *Applied) Vouchers() []Voucher {
	return append([]Voucher(nil), a.vouchers...)
}

// IDs returns the ids of the applied vouchers
func (a *Applied) IDs() []string {
	ids := make([]string, 0, len(a.vouchers))
	for _, v := range a.vouchers {
		ids = append(ids, v.ID)
	}
	return ids
}

// Len returns the number of applied vouchers
func (a *Applied) Len() int {
	return len(a.vouchers)
}

// Discount returns the aggregate monetary discount on an order amount
func (a *Applied) Discount(orderAmount decimal.Decimal) decimal.Decimal {
	return AggregateDiscount(a.vouchers, orderAmount)
}

// FreeShipping reports whether shipping is waived
func (a *Applied) FreeShipping() bool {
	return WaivesShipping(a.vouchers)
}
