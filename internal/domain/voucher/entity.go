// internal/domain/voucher/entity.go
package voucher

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type is the kind of discount a voucher grants
type Type string

const (
	TypePercentage   Type = "percentage"
	TypeFixedAmount  Type = "fixed_amount"
	TypeFreeShipping Type = "free_shipping"
)

// Valid reports whether t is a known voucher type
func (t Type) Valid() bool {
	switch t {
	case TypePercentage, TypeFixedAmount, TypeFreeShipping:
		return true
	}
	return false
}

// Status represents whether the seller has the voucher switched on
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Voucher represents a discount definition created by the seller
type Voucher struct {
	ID          string `gorm:"primaryKey;size:36" json:"id"`
	Code        string `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Description string `gorm:"size:255" json:"description"`
	Type        Type   `gorm:"not null;size:20" json:"type"`

	// Percent points for percentage vouchers, currency units for fixed_amount,
	// ignored for free_shipping
	Discount          decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"discount"`
	MinOrderAmount    decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0" json:"min_order_amount"`
	MaxDiscountAmount decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"max_discount_amount"` // percentage only

	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`
	Status    Status    `gorm:"not null;size:20;default:'active'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Voucher) TableName() string {
	return "vouchers"
}

// CheckEligibility returns nil when the voucher can be used for an order of
// the given amount at the given time, or the reason it cannot.
func (v *Voucher) CheckEligibility(now time.Time, orderAmount decimal.Decimal) error {
	if v.Status != StatusActive {
		return ErrVoucherInactive
	}
	if !v.StartDate.IsZero() && now.Before(v.StartDate) {
		return ErrVoucherNotStarted
	}
	if !v.EndDate.IsZero() && now.After(v.EndDate) {
		return ErrVoucherExpired
	}
	if orderAmount.LessThan(v.MinOrderAmount) {
		return ErrMinOrderNotMet
	}
	return nil
}

// IsEligible reports whether CheckEligibility passes
func (v *Voucher) IsEligible(now time.Time, orderAmount decimal.Decimal) bool {
	return v.CheckEligibility(now, orderAmount) == nil
}
