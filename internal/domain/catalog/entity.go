// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product the store sells
type Product struct {
	ID           string          `gorm:"primaryKey;size:36" json:"id"`
	SKU          string          `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name         string          `gorm:"not null;size:255" json:"name"`
	Slug         string          `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description  string          `gorm:"type:text" json:"description"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	ComparePrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"compare_price"` // Original price for discounts
	ImageURL     string          `gorm:"size:500" json:"image_url"`
	IsActive     bool            `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"variants,omitempty"`
}

// ProductVariant represents a product variant such as a size or colour
type ProductVariant struct {
	ID        string              `gorm:"primaryKey;size:36" json:"id"`
	ProductID string              `gorm:"not null;index;size:36" json:"product_id"`
	Name      string              `gorm:"not null;size:100" json:"name"` // What the shopper picks, e.g. "black"
	SKU       string              `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Price     decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"price"` // Overrides the product price if set
	IsActive  bool                `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// TableName overrides
func (Product) TableName() string        { return "products" }
func (ProductVariant) TableName() string { return "product_variants" }

// DiscountPercentage returns how far the price is below the compare price
func (p *Product) DiscountPercentage() int {
	if p.ComparePrice.IsPositive() && p.Price.LessThan(p.ComparePrice) {
		return int(p.ComparePrice.Sub(p.Price).Mul(decimal.NewFromInt(100)).Div(p.ComparePrice).IntPart())
	}
	return 0
}

// Variant returns the active variant with the given name
func (p *Product) Variant(name string) (*ProductVariant, bool) {
	for i := range p.Variants {
		if p.Variants[i].Name == name && p.Variants[i].IsActive {
			return &p.Variants[i], true
		}
	}
	return nil, false
}
