// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/voucher"
	"gorm.io/gorm"
)

// Status represents the fulfilment status of an order item, and the status
// derived for the whole order
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipping   Status = "shipping"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// progress orders the non-cancelled statuses from least to most advanced
var progress = map[Status]int{
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusProcessing: 2,
	StatusShipping:   3,
	StatusDelivered:  4,
}

var validTransitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipping, StatusCancelled},
	StatusShipping:   {StatusDelivered},
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	_, ok := progress[s]
	return ok || s == StatusCancelled
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an item may move from one status to another
func CanTransition(from, to Status) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Order is the frozen snapshot of what a guest bought
type Order struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	SessionID   string `gorm:"not null;index;size:64" json:"-"`
	Status      Status `gorm:"not null;size:20;index" json:"status"` // Derived from the items

	// Contact
	Email           string  `gorm:"not null;size:255" json:"email"`
	CustomerName    string  `gorm:"not null;size:255" json:"customer_name"`
	Phone           string  `gorm:"size:20" json:"phone"`
	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`

	// Financial Information
	Currency       string          `gorm:"size:3;not null" json:"currency"`
	SubtotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal_amount"`
	ShippingAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`

	Notes     string         `gorm:"type:text" json:"notes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items    []OrderItem      `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	Vouchers []AppliedVoucher `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"vouchers"`
}

// OrderItem represents one purchased cart line
type OrderItem struct {
	ID         string          `gorm:"primaryKey;size:36" json:"id"`
	OrderID    string          `gorm:"not null;index;size:36" json:"order_id"`
	Position   int             `gorm:"not null" json:"-"`
	ProductID  string          `gorm:"not null;index;size:36" json:"product_id"`
	Variant    string          `gorm:"size:100" json:"variant,omitempty"`
	Name       string          `gorm:"not null;size:255" json:"name"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"` // Quantity * UnitPrice
	Status     Status          `gorm:"not null;size:20" json:"status"`                 // Latest history entry
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	History []StatusEntry `gorm:"foreignKey:OrderItemID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"history"`
}

// StatusEntry is one append-only step in an item's status history
type StatusEntry struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	OrderItemID string    `gorm:"not null;index;size:36" json:"-"`
	Status      Status    `gorm:"not null;size:20" json:"status"`
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AppliedVoucher freezes a voucher used on the order
type AppliedVoucher struct {
	ID             uint            `gorm:"primaryKey" json:"-"`
	OrderID        string          `gorm:"not null;index;size:36" json:"-"`
	VoucherID      string          `gorm:"not null;size:36" json:"voucher_id"`
	Code           string          `gorm:"not null;size:50" json:"code"`
	Type           voucher.Type    `gorm:"not null;size:20" json:"type"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
}

// Address represents the delivery address (embedded in Order)
type Address struct {
	AddressLine1 string `gorm:"size:255" json:"address_line1" binding:"required"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
	City         string `gorm:"size:100" json:"city" binding:"required"`
	State        string `gorm:"size:100" json:"state"`
	PostalCode   string `gorm:"size:20" json:"postal_code" binding:"required"`
	Country      string `gorm:"size:2" json:"country" binding:"required,len=2"`
}

// TableName overrides
func (Order) TableName() string          { return "orders" }
func (OrderItem) TableName() string      { return "order_items" }
func (StatusEntry) TableName() string    { return "order_item_status_history" }
func (AppliedVoucher) TableName() string { return "order_vouchers" }

// Business methods

// GenerateOrderNumber returns a number in the ORD-YYYYMMDD-XXXXXXXX format
func GenerateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

// CurrentStatus returns the status of the latest history entry
func (i *OrderItem) CurrentStatus() Status {
	if n := len(i.History); n > 0 {
		return i.History[n-1].Status
	}
	return i.Status
}

// Transition appends a history entry moving the item to a new status
func (i *OrderItem) Transition(to Status, notes string, at time.Time) (StatusEntry, error) {
	from := i.CurrentStatus()
	if !CanTransition(from, to) {
		return StatusEntry{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}

	entry := StatusEntry{
		OrderItemID: i.ID,
		Status:      to,
		Notes:       notes,
		CreatedAt:   at,
	}
	i.History = append(i.History, entry)
	i.Status = to
	return entry, nil
}

// DeriveStatus computes the order status from its items: cancelled when every
// item is cancelled, otherwise the least advanced status among the rest.
func DeriveStatus(items []OrderItem) Status {
	derived := StatusCancelled
	for i := range items {
		status := items[i].CurrentStatus()
		if status == StatusCancelled {
			continue
		}
		if derived == StatusCancelled || progress[status] < progress[derived] {
			derived = status
		}
	}
	return derived
}

// RefreshStatus recomputes the denormalised order status
func (o *Order) RefreshStatus() {
	o.Status = DeriveStatus(o.Items)
}

// CanBeCancelled checks whether every remaining item can still be cancelled
func (o *Order) CanBeCancelled() bool {
	open := 0
	for i := range o.Items {
		status := o.Items[i].CurrentStatus()
		if status == StatusCancelled {
			continue
		}
		if !CanTransition(status, StatusCancelled) {
			return false
		}
		open++
	}
	return open > 0
}

// Item returns the item with the given id
func (o *Order) Item(id string) (*OrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i], true
		}
	}
	return nil, false
}

// ItemCount returns the number of units ordered
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}
