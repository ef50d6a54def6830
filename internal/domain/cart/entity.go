// internal/domain/cart/entity.go
package cart

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LineID identifies one cart line: the product id, plus the variant when one is selected
type LineID string

const variantSeparator = "#"

// NewLineID builds the line key for a product and optional variant
func NewLineID(productID, variant string) LineID {
	if variant == "" {
		return LineID(productID)
	}
	return LineID(productID + variantSeparator + variant)
}

// ProductID returns the product part of the line key
func (id LineID) ProductID() string {
	productID, _, _ := strings.Cut(string(id), variantSeparator)
	return productID
}

// Product is what the catalog hands the cart when a shopper adds something
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// CartItem represents one line of a guest cart
type CartItem struct {
	ProductID       string          `json:"product_id"`
	Name            string          `json:"name"`
	UnitPrice       decimal.Decimal `json:"unit_price"` // Price at time of adding
	Quantity        int             `json:"quantity"`
	SelectedVariant string          `json:"selected_variant,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LineID returns the key of this line
func (i CartItem) LineID() LineID {
	return NewLineID(i.ProductID, i.SelectedVariant)
}

// LineTotal returns unit price times quantity
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart represents the shopping cart of one guest session
type Cart struct {
	ID          string          `json:"id"`
	Items       []CartItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (c *Cart) indexOf(id LineID) int {
	for i := range c.Items {
		if c.Items[i].LineID() == id {
			return i
		}
	}
	return -1
}

func (c *Cart) recalculate() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	c.TotalAmount = total
}

func (c *Cart) clone() *Cart {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Items = append([]CartItem(nil), c.Items...)
	return &cp
}

// Snapshot is an immutable copy of the store state handed to listeners and persisters.
// Cart is nil while the cart is absent.
type Snapshot struct {
	Cart     *Cart
	Selected []LineID
}

// CartTotals represents calculated cart totals
type CartTotals struct {
	ItemCount     int             `json:"item_count"`     // Number of lines
	TotalQuantity int             `json:"total_quantity"` // Sum of all quantities
	SubTotal      decimal.Decimal `json:"sub_total"`
	SelectedCount int             `json:"selected_count"`
	SelectedTotal decimal.Decimal `json:"selected_total"`
	AllSelected   bool            `json:"all_selected"`
}
