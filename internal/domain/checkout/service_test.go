package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/voucher"
	"github.com/your-org/storefront/internal/infrastructure/kv"
	"github.com/your-org/storefront/internal/infrastructure/persistence"
	"github.com/your-org/storefront/internal/pkg/logger"
)

var now = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

type fakeVouchers map[string]voucher.Voucher

func (f fakeVouchers) GetByCode(_ context.Context, code string) (*voucher.Voucher, error) {
	for _, v := range f {
		if v.Code == strings.ToUpper(code) {
			return &v, nil
		}
	}
	return nil, voucher.ErrVoucherNotFound
}

func (f fakeVouchers) GetByIDs(_ context.Context, ids []string) ([]voucher.Voucher, error) {
	out := []voucher.Voucher{}
	for _, id := range ids {
		if v, ok := f[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeOrders struct {
	mu       sync.Mutex
	created  []*order.Order
	err      error
	delay    time.Duration
	onCreate func()
}

func (f *fakeOrders) Create(_ context.Context, o *order.Order) error {
	time.Sleep(f.delay)
	if f.onCreate != nil {
		f.onCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	o.ID = fmt.Sprintf("order-%d", len(f.created)+1)
	f.created = append(f.created, o)
	return nil
}

func activeVoucher(id, code string, typ voucher.Type, discount string) voucher.Voucher {
	return voucher.Voucher{
		ID:        id,
		Code:      code,
		Type:      typ,
		Discount:  decimal.RequireFromString(discount),
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
		Status:    voucher.StatusActive,
	}
}

type harness struct {
	service *Service
	carts   *cart.Registry
	orders  *fakeOrders
	applied *persistence.VoucherSelection
}

func newHarness(t *testing.T, vouchers ...voucher.Voucher) *harness {
	t.Helper()
	store := kv.NewMemoryStore()
	carts := cart.NewRegistry(persistence.CartPersisterFactory(store, logger.Discard()), logger.Discard())
	applied := persistence.NewVoucherSelection(store, logger.Discard())
	orders := &fakeOrders{}

	repo := fakeVouchers{}
	for _, v := range vouchers {
		repo[v.ID] = v
	}

	svc := NewService(carts, repo, applied, orders, config.StoreConfig{
		Currency:    "USD",
		ShippingFee: decimal.NewFromInt(5),
	}, logger.Discard())
	svc.now = func() time.Time { return now }

	return &harness{service: svc, carts: carts, orders: orders, applied: applied}
}

func (h *harness) add(t *testing.T, session, id, price string, qty int) *cart.Store {
	t.Helper()
	store, err := h.carts.Get(t.Context(), session)
	require.NoError(t, err)
	require.NoError(t, store.AddToCart(t.Context(), cart.Product{ID: id, Name: id, Price: decimal.RequireFromString(price)}, qty, ""))
	return store
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got)
}

func TestSummary_PercentageWithCap(t *testing.T) {
	pct := activeVoucher("v1", "TENOFF", voucher.TypePercentage, "10")
	pct.MaxDiscountAmount = decimal.NewNullDecimal(decimal.NewFromInt(20))
	h := newHarness(t, pct)

	h.add(t, "s", "tv", "500", 1)
	_, err := h.service.ApplyVoucher(t.Context(), "s", "tenoff")
	require.NoError(t, err)

	summary, err := h.service.Summary(t.Context(), "s")
	require.NoError(t, err)
	assertDecimal(t, "500", summary.Pricing.Subtotal)
	assertDecimal(t, "20", summary.Pricing.DiscountAmount)
	assertDecimal(t, "5", summary.Pricing.ShippingFee)
	assertDecimal(t, "485", summary.Pricing.TotalAmount)
	assert.Equal(t, "USD", summary.Currency)
}

func TestSummary_OnlySelectedLinesArePriced(t *testing.T) {
	h := newHarness(t)
	store := h.add(t, "s", "a", "10", 2)
	h.add(t, "s", "b", "7", 1)
	require.NoError(t, store.ToggleItemSelection(t.Context(), "b"))

	summary, err := h.service.Summary(t.Context(), "s")
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assertDecimal(t, "20", summary.Pricing.Subtotal)
	assertDecimal(t, "25", summary.Pricing.TotalAmount)
}

func TestSummary_EmptySelectionHasNoShipping(t *testing.T) {
	h := newHarness(t)

	summary, err := h.service.Summary(t.Context(), "s")
	require.NoError(t, err)
	assert.Empty(t, summary.Items)
	assert.True(t, summary.Pricing.TotalAmount.IsZero())
}

func TestSummary_DiscountCappedAtSubtotal(t *testing.T) {
	h := newHarness(t,
		activeVoucher("v1", "FIFTY", voucher.TypeFixedAmount, "50"),
		activeVoucher("v2", "THIRTY", voucher.TypeFixedAmount, "30"),
	)
	h.add(t, "s", "a", "60", 1)

	_, err := h.service.ApplyVoucher(t.Context(), "s", "FIFTY")
	require.NoError(t, err)
	summary, err := h.service.ApplyVoucher(t.Context(), "s", "THIRTY")
	require.NoError(t, err)

	assertDecimal(t, "60", summary.Pricing.DiscountAmount)
	assertDecimal(t, "5", summary.Pricing.TotalAmount)
}

func TestSummary_FreeShipping(t *testing.T) {
	h := newHarness(t, activeVoucher("ship", "SHIPFREE", voucher.TypeFreeShipping, "0"))
	h.add(t, "s", "a", "12", 1)

	summary, err := h.service.ApplyVoucher(t.Context(), "s", "SHIPFREE")
	require.NoError(t, err)
	assert.True(t, summary.Pricing.FreeShipping)
	assert.True(t, summary.Pricing.ShippingFee.IsZero())
	assertDecimal(t, "12", summary.Pricing.TotalAmount)
}

func TestSummary_FreeShippingThreshold(t *testing.T) {
	h := newHarness(t)
	h.service.store.FreeShippingThreshold = decimal.NewFromInt(50)

	h.add(t, "s", "a", "49.99", 1)
	summary, err := h.service.Summary(t.Context(), "s")
	require.NoError(t, err)
	assert.False(t, summary.Pricing.FreeShipping)

	h.add(t, "s", "b", "0.01", 1)
	summary, err = h.service.Summary(t.Context(), "s")
	require.NoError(t, err)
	assert.True(t, summary.Pricing.FreeShipping)
	assertDecimal(t, "50", summary.Pricing.TotalAmount)
}

func TestApplyVoucher_SecondFreeShippingReplacesFirst(t *testing.T) {
	h := newHarness(t,
		activeVoucher("ship1", "SHIP1", voucher.TypeFreeShipping, "0"),
		activeVoucher("ship2", "SHIP2", voucher.TypeFreeShipping, "0"),
		activeVoucher("pct", "PCT", voucher.TypePercentage, "10"),
	)
	h.add(t, "s", "a", "100", 1)

	for _, code := range []string{"SHIP1", "PCT", "SHIP2"} {
		_, err := h.service.ApplyVoucher(t.Context(), "s", code)
		require.NoError(t, err)
	}

	ids, err := h.applied.Load(t.Context(), "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"ship2", "pct"}, ids)
}

func TestApplyVoucher_Errors(t *testing.T) {
	minOrder := activeVoucher("big", "BIG", voucher.TypeFixedAmount, "15")
	minOrder.MinOrderAmount = decimal.NewFromInt(100)
	expired := activeVoucher("old", "OLD", voucher.TypeFixedAmount, "5")
	expired.EndDate = now.Add(-time.Minute)

	h := newHarness(t, minOrder, expired)

	_, err := h.service.ApplyVoucher(t.Context(), "s", "BIG")
	assert.ErrorIs(t, err, ErrNoItemsSelected)

	h.add(t, "s", "a", "50", 1)

	tests := []struct {
		code string
		want error
	}{
		{code: "BIG", want: voucher.ErrMinOrderNotMet},
		{code: "OLD", want: voucher.ErrVoucherExpired},
		{code: "NOPE", want: voucher.ErrVoucherNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, err := h.service.ApplyVoucher(t.Context(), "s", tt.code)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = h.service.ApplyVoucher(t.Context(), "", "BIG")
	assert.ErrorIs(t, err, cart.ErrSessionRequired)
}

func TestSummary_IneligibleAppliedVoucherIsReported(t *testing.T) {
	v := activeVoucher("v", "MIN40", voucher.TypeFixedAmount, "10")
	v.MinOrderAmount = decimal.NewFromInt(40)
	h := newHarness(t, v)

	store := h.add(t, "s", "a", "30", 1)
	h.add(t, "s", "b", "20", 1)
	_, err := h.service.ApplyVoucher(t.Context(), "s", "MIN40")
	require.NoError(t, err)

	require.NoError(t, store.ToggleItemSelection(t.Context(), "b"))
	summary, err := h.service.Summary(t.Context(), "s")
	require.NoError(t, err)

	require.Len(t, summary.Vouchers, 1)
	assert.False(t, summary.Vouchers[0].Eligible)
	assert.Equal(t, voucher.ErrMinOrderNotMet.Error(), summary.Vouchers[0].Reason)
	assert.True(t, summary.Pricing.DiscountAmount.IsZero())
}

func TestRemoveVoucher(t *testing.T) {
	h := newHarness(t, activeVoucher("v", "FIVE", voucher.TypeFixedAmount, "5"))
	h.add(t, "s", "a", "30", 1)
	_, err := h.service.ApplyVoucher(t.Context(), "s", "FIVE")
	require.NoError(t, err)

	summary, err := h.service.RemoveVoucher(t.Context(), "s", "v")
	require.NoError(t, err)
	assert.Empty(t, summary.Vouchers)
	assertDecimal(t, "35", summary.Pricing.TotalAmount)

	_, err = h.service.RemoveVoucher(t.Context(), "s", "v")
	assert.NoError(t, err)
}

func TestPlaceOrder(t *testing.T) {
	h := newHarness(t, activeVoucher("v", "FIVE", voucher.TypeFixedAmount, "5"))
	store := h.add(t, "s", "a", "10", 3)
	h.add(t, "s", "b", "4", 1)
	require.NoError(t, store.ToggleItemSelection(t.Context(), "b"))
	_, err := h.service.ApplyVoucher(t.Context(), "s", "FIVE")
	require.NoError(t, err)

	o, err := h.service.PlaceOrder(t.Context(), "s", &PlaceOrderRequest{
		Email:        "guest@example.com",
		CustomerName: "Sam Guest",
		ShippingAddress: order.Address{
			AddressLine1: "1 Main St",
			City:         "Springfield",
			PostalCode:   "12345",
			Country:      "US",
		},
	})
	require.NoError(t, err)
	require.Len(t, h.orders.created, 1)

	require.Len(t, o.Items, 1)
	assert.Equal(t, "a", o.Items[0].ProductID)
	assert.Equal(t, 3, o.Items[0].Quantity)
	assertDecimal(t, "30", o.SubtotalAmount)
	assertDecimal(t, "5", o.DiscountAmount)
	assertDecimal(t, "30", o.TotalAmount)
	require.Len(t, o.Vouchers, 1)
	assert.Equal(t, "FIVE", o.Vouchers[0].Code)

	// the unselected line stays in the cart
	cartAfter := store.Cart()
	require.NotNil(t, cartAfter)
	require.Len(t, cartAfter.Items, 1)
	assert.Equal(t, "b", cartAfter.Items[0].ProductID)

	ids, err := h.applied.Load(t.Context(), "s")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPlaceOrder_Errors(t *testing.T) {
	h := newHarness(t)
	valid := PlaceOrderRequest{
		Email:           "guest@example.com",
		CustomerName:    "Sam",
		ShippingAddress: order.Address{AddressLine1: "1 Main St", City: "X", PostalCode: "1", Country: "US"},
	}

	_, err := h.service.PlaceOrder(t.Context(), "s", &valid)
	assert.ErrorIs(t, err, ErrNoItemsSelected)

	h.add(t, "s", "a", "10", 1)
	bad := valid
	bad.Email = "not-an-email"
	_, err = h.service.PlaceOrder(t.Context(), "s", &bad)
	assert.ErrorIs(t, err, ErrInvalidContact)

	bad = valid
	bad.ShippingAddress.City = " "
	_, err = h.service.PlaceOrder(t.Context(), "s", &bad)
	assert.ErrorIs(t, err, ErrInvalidContact)
	assert.Empty(t, h.orders.created)
}

func validRequest() *PlaceOrderRequest {
	return &PlaceOrderRequest{
		Email:           "guest@example.com",
		CustomerName:    "Sam",
		ShippingAddress: order.Address{AddressLine1: "1 Main St", City: "X", PostalCode: "1", Country: "US"},
	}
}

func TestPlaceOrder_CreateFailureKeepsCart(t *testing.T) {
	h := newHarness(t, activeVoucher("v", "FIVE", voucher.TypeFixedAmount, "5"))
	store := h.add(t, "s", "a", "10", 2)
	_, err := h.service.ApplyVoucher(t.Context(), "s", "FIVE")
	require.NoError(t, err)

	h.orders.err = errors.New("database unavailable")
	_, err = h.service.PlaceOrder(t.Context(), "s", validRequest())
	require.ErrorIs(t, err, h.orders.err)

	require.NotNil(t, store.Cart())
	assert.Equal(t, 2, store.TotalItems())
	assert.Equal(t, 1, store.SelectedItemsCount())
	ids, err := h.applied.Load(t.Context(), "s")
	require.NoError(t, err)
	assert.Equal(t, []string{"v"}, ids)
}

func TestPlaceOrder_ConcurrentSubmitPlacesOneOrder(t *testing.T) {
	h := newHarness(t)
	h.orders.delay = 20 * time.Millisecond
	h.add(t, "s", "a", "10", 2)

	start := make(chan struct{})
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = h.service.PlaceOrder(context.Background(), "s", validRequest())
		}()
	}
	close(start)
	wg.Wait()

	require.Len(t, h.orders.created, 1)
	var placed, empty int
	for _, err := range errs {
		switch {
		case err == nil:
			placed++
		case errors.Is(err, ErrNoItemsSelected):
			empty++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, placed)
	assert.Equal(t, 1, empty)
	assert.Equal(t, 2, h.orders.created[0].Items[0].Quantity)
}

func TestPlaceOrder_CartChangesWaitForCheckout(t *testing.T) {
	h := newHarness(t)
	store := h.add(t, "s", "a", "10", 2)
	h.add(t, "s", "b", "4", 1)
	require.NoError(t, store.ToggleItemSelection(t.Context(), "b"))

	updated := make(chan error, 1)
	h.orders.onCreate = func() {
		go func() { updated <- store.UpdateQuantity(context.Background(), "a", 5) }()
		select {
		case <-updated:
			t.Error("quantity update ran while the order was being placed")
		case <-time.After(50 * time.Millisecond):
		}
	}

	o, err := h.service.PlaceOrder(t.Context(), "s", validRequest())
	require.NoError(t, err)
	require.NoError(t, <-updated)

	assert.Equal(t, 2, o.Items[0].Quantity)
	after := store.Cart()
	require.NotNil(t, after)
	require.Len(t, after.Items, 1)
	assert.Equal(t, "b", after.Items[0].ProductID)
}
