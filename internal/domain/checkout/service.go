// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/voucher"
	"github.com/your-org/storefront/internal/pkg/logger"
)

var (
	ErrNoItemsSelected = errors.New("no cart items selected for checkout")
	ErrInvalidContact  = errors.New("a valid email, name and delivery address are required")
)

// VoucherRepository looks vouchers up
type VoucherRepository interface {
	GetByCode(ctx context.Context, code string) (*voucher.Voucher, error)
	GetByIDs(ctx context.Context, ids []string) ([]voucher.Voucher, error)
}

// AppliedVoucherStore keeps the vouchers each session has applied
type AppliedVoucherStore interface {
	Load(ctx context.Context, sessionID string) ([]string, error)
	Save(ctx context.Context, sessionID string, ids []string) error
	Clear(ctx context.Context, sessionID string) error
}

// OrderCreator stores placed orders
type OrderCreator interface {
	Create(ctx context.Context, o *order.Order) error
}

// Service handles checkout business logic
type Service struct {
	carts    *cart.Registry
	vouchers VoucherRepository
	applied  AppliedVoucherStore
	orders   OrderCreator
	store    config.StoreConfig
	log      *logrus.Entry
	now      func() time.Time
}

// NewService creates a new checkout service
func NewService(carts *cart.Registry, vouchers VoucherRepository, applied AppliedVoucherStore, orders OrderCreator, store config.StoreConfig, log logrus.FieldLogger) *Service {
	return &Service{
		carts:    carts,
		vouchers: vouchers,
		applied:  applied,
		orders:   orders,
		store:    store,
		log:      logger.Component(log, "checkout_service"),
		now:      time.Now,
	}
}

// AppliedVoucher is a voucher as it applies to the current selection
type AppliedVoucher struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	Type           voucher.Type    `json:"type"`
	Description    string          `json:"description"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Eligible       bool            `json:"eligible"`
	Reason         string          `json:"reason,omitempty"` // Why an applied voucher does not count
}

// Pricing represents pricing breakdown
type Pricing struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingFee    decimal.Decimal `json:"shipping_fee"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	FreeShipping   bool            `json:"free_shipping"`
}

// Summary represents the checkout page: selected lines, vouchers and totals
type Summary struct {
	Items    []cart.CartItem  `json:"items"`
	Vouchers []AppliedVoucher `json:"vouchers"`
	Pricing  Pricing          `json:"pricing"`
	Currency string           `json:"currency"`

	eligible []voucher.Voucher
}

// PlaceOrderRequest represents the delivery details of an order
type PlaceOrderRequest struct {
	Email           string        `json:"email" binding:"required,email"`
	CustomerName    string        `json:"customer_name" binding:"required"`
	Phone           string        `json:"phone"`
	ShippingAddress order.Address `json:"shipping_address" binding:"required"`
	Notes           string        `json:"notes" binding:"max=1000"`
}

func (r *PlaceOrderRequest) validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return ErrInvalidContact
	}
	a := r.ShippingAddress
	for _, field := range []string{r.CustomerName, a.AddressLine1, a.City, a.PostalCode, a.Country} {
		if strings.TrimSpace(field) == "" {
			return ErrInvalidContact
		}
	}
	return nil
}

// Summary prices the selected cart lines with the applied vouchers
func (s *Service) Summary(ctx context.Context, sessionID string) (*Summary, error) {
	store, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	ids, err := s.applied.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load applied vouchers: %w", err)
	}
	vouchers, err := s.vouchers.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return s.price(store.SelectedItems(), voucher.NewApplied(vouchers...)), nil
}

func (s *Service) price(items []cart.CartItem, applied *voucher.Applied) *Summary {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	summary := &Summary{
		Items:    items,
		Vouchers: []AppliedVoucher{},
		Currency: s.store.Currency,
	}

	now := s.now()
	for _, v := range applied.Vouchers() {
		view := AppliedVoucher{
			ID:          v.ID,
			Code:        v.Code,
			Type:        v.Type,
			Description: v.Description,
		}
		if err := v.CheckEligibility(now, subtotal); err != nil {
			view.Reason = err.Error()
			view.DiscountAmount = decimal.Zero
		} else {
			view.Eligible = true
			view.DiscountAmount = voucher.CalculateDiscount(v, subtotal)
			summary.eligible = append(summary.eligible, v)
		}
		summary.Vouchers = append(summary.Vouchers, view)
	}

	discount := decimal.Min(voucher.AggregateDiscount(summary.eligible, subtotal), subtotal)

	shipping := decimal.Zero
	freeShipping := false
	if len(items) > 0 {
		shipping = s.store.ShippingFee
		threshold := s.store.FreeShippingThreshold
		if voucher.WaivesShipping(summary.eligible) || (threshold.IsPositive() && subtotal.GreaterThanOrEqual(threshold)) {
			shipping = decimal.Zero
			freeShipping = true
		}
	}

	summary.Pricing = Pricing{
		Subtotal:       subtotal,
		ShippingFee:    shipping,
		DiscountAmount: discount,
		TotalAmount:    subtotal.Sub(discount).Add(shipping),
		FreeShipping:   freeShipping,
	}
	return summary
}

// ApplyVoucher applies a voucher code to the session's checkout. The voucher
// must be eligible for the current selection.
func (s *Service) ApplyVoucher(ctx context.Context, sessionID, code string) (*Summary, error) {
	store, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if store.SelectedItemsCount() == 0 {
		return nil, ErrNoItemsSelected
	}

	v, err := s.vouchers.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := v.CheckEligibility(s.now(), store.SelectedItemsTotal()); err != nil {
		return nil, err
	}

	applied, err := s.loadApplied(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if replaced := applied.Apply(*v); replaced != nil {
		s.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"replaced":   replaced.Code,
			"applied":    v.Code,
		}).Debug("free shipping voucher replaced")
	}
	if err := s.applied.Save(ctx, sessionID, applied.IDs()); err != nil {
		return nil, fmt.Errorf("failed to save applied vouchers: %w", err)
	}

	return s.price(store.SelectedItems(), applied), nil
}

// RemoveVoucher removes an applied voucher. Removing one that is not applied is a no-op.
func (s *Service) RemoveVoucher(ctx context.Context, sessionID, voucherID string) (*Summary, error) {
	store, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	applied, err := s.loadApplied(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if applied.Remove(voucherID) {
		if err := s.applied.Save(ctx, sessionID, applied.IDs()); err != nil {
			return nil, fmt.Errorf("failed to save applied vouchers: %w", err)
		}
	}

	return s.price(store.SelectedItems(), applied), nil
}

func (s *Service) loadApplied(ctx context.Context, sessionID string) (*voucher.Applied, error) {
	ids, err := s.applied.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load applied vouchers: %w", err)
	}
	vouchers, err := s.vouchers.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return voucher.NewApplied(vouchers...), nil
}

// PlaceOrder turns the selected lines into an order. Ordered lines leave the
// cart, unselected lines stay, and the applied vouchers are cleared. The
// cart stays locked from reading the selection until the lines are removed,
// so a repeated submit finds nothing selected.
func (s *Service) PlaceOrder(ctx context.Context, sessionID string, req *PlaceOrderRequest) (*order.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	store, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var placed *order.Order
	err = store.CheckoutSelected(ctx, func(items []cart.CartItem) error {
		if len(items) == 0 {
			return ErrNoItemsSelected
		}
		applied, err := s.loadApplied(ctx, sessionID)
		if err != nil {
			return err
		}

		o := newOrder(sessionID, req, s.price(items, applied))
		if err := s.orders.Create(ctx, o); err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.applied.Clear(ctx, sessionID); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("failed to clear applied vouchers")
	}

	return placed, nil
}

func newOrder(sessionID string, req *PlaceOrderRequest, summary *Summary) *order.Order {
	o := &order.Order{
		SessionID:       sessionID,
		Email:           strings.TrimSpace(req.Email),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		Phone:           req.Phone,
		ShippingAddress: req.ShippingAddress,
		Currency:        summary.Currency,
		SubtotalAmount:  summary.Pricing.Subtotal,
		ShippingAmount:  summary.Pricing.ShippingFee,
		DiscountAmount:  summary.Pricing.DiscountAmount,
		TotalAmount:     summary.Pricing.TotalAmount,
		Notes:           req.Notes,
	}
	for _, item := range summary.Items {
		o.Items = append(o.Items, order.OrderItem{
			ProductID: item.ProductID,
			Variant:   item.SelectedVariant,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	for _, v := range summary.Vouchers {
		if !v.Eligible {
			continue
		}
		o.Vouchers = append(o.Vouchers, order.AppliedVoucher{
			VoucherID:      v.ID,
			Code:           v.Code,
			Type:           v.Type,
			DiscountAmount: v.DiscountAmount,
		})
	}
	return o
}
