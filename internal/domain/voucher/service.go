// internal/domain/voucher/service.go
package voucher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/pkg/logger"
	"gorm.io/gorm"
)

// Service handles voucher business logic
type Service struct {
	db  *gorm.DB
	log *logrus.Entry
	now func() time.Time
}

// NewService creates a new voucher service
func NewService(db *gorm.DB, log logrus.FieldLogger) *Service {
	return &Service{
		db:  db,
		log: logger.Component(log, "voucher_service"),
		now: time.Now,
	}
}

// CreateVoucherRequest represents voucher creation request
type CreateVoucherRequest struct {
	Code              string           `json:"code" binding:"required,min=3,max=50"`
	Description       string           `json:"description" binding:"max=255"`
	Type              Type             `json:"type" binding:"required,voucher_type"`
	Discount          decimal.Decimal  `json:"discount"`
	MinOrderAmount    decimal.Decimal  `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	StartDate         time.Time        `json:"start_date" binding:"required"`
	EndDate           time.Time        `json:"end_date" binding:"required"`
}

// Validate checks the request against the voucher rules
func (r *CreateVoucherRequest) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: invalid voucher type %q", ErrInvalidVoucher, r.Type)
	}
	if r.MinOrderAmount.IsNegative() {
		return fmt.Errorf("%w: min order amount cannot be negative", ErrInvalidVoucher)
	}
	if !r.EndDate.After(r.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", ErrInvalidVoucher)
	}

	switch r.Type {
	case TypePercentage:
		if !r.Discount.IsPositive() || r.Discount.GreaterThan(hundred) {
			return fmt.Errorf("%w: percentage discount must be between 0 and 100", ErrInvalidVoucher)
		}
		if r.MaxDiscountAmount != nil && r.MaxDiscountAmount.IsNegative() {
			return fmt.Errorf("%w: max discount amount cannot be negative", ErrInvalidVoucher)
		}
	case TypeFixedAmount:
		if !r.Discount.IsPositive() {
			return fmt.Errorf("%w: fixed discount must be positive", ErrInvalidVoucher)
		}
	}
	return nil
}

// ListRequest filters the voucher list
type ListRequest struct {
	Status Status `form:"status"`
	// Only vouchers a shopper could use right now
	AvailableOnly bool `form:"available"`
}

// Create stores a new voucher. Codes are normalised to upper case.
func (s *Service) Create(ctx context.Context, req *CreateVoucherRequest) (*Voucher, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	code := NormalizeCode(req.Code)
	var count int64
	if err := s.db.WithContext(ctx).Model(&Voucher{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check voucher code: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateCode
	}

	v := &Voucher{
		ID:             uuid.New().String(),
		Code:           code,
		Description:    req.Description,
		Type:           req.Type,
		Discount:       req.Discount,
		MinOrderAmount: req.MinOrderAmount,
		StartDate:      req.StartDate.UTC(),
		EndDate:        req.EndDate.UTC(),
		Status:         StatusActive,
	}
	if req.Type == TypeFreeShipping {
		v.Discount = decimal.Zero
	}
	if req.MaxDiscountAmount != nil && req.Type == TypePercentage {
		v.MaxDiscountAmount = decimal.NewNullDecimal(*req.MaxDiscountAmount)
	}

	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		return nil, fmt.Errorf("failed to create voucher: %w", err)
	}

	s.log.WithFields(logrus.Fields{"voucher_id": v.ID, "code": v.Code, "type": v.Type}).Info("voucher created")
	return v, nil
}

// GetByID retrieves a voucher by id
func (s *Service) GetByID(ctx context.Context, id string) (*Voucher, error) {
	var v Voucher
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoucherNotFound
		}
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}
	return &v, nil
}

// GetByCode retrieves a voucher by its code, case-insensitively
func (s *Service) GetByCode(ctx context.Context, code string) (*Voucher, error) {
	var v Voucher
	if err := s.db.WithContext(ctx).Where("code = ?", NormalizeCode(code)).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoucherNotFound
		}
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}
	return &v, nil
}

// GetByIDs loads vouchers in the order of ids, skipping ids that no longer exist
func (s *Service) GetByIDs(ctx context.Context, ids []string) ([]Voucher, error) {
	if len(ids) == 0 {
		return []Voucher{}, nil
	}

	var found []Voucher
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to get vouchers: %w", err)
	}

	byID := make(map[string]Voucher, len(found))
	for _, v := range found {
		byID[v.ID] = v
	}
	vouchers := make([]Voucher, 0, len(found))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			vouchers = append(vouchers, v)
		}
	}
	return vouchers, nil
}

// List retrieves vouchers, newest first
func (s *Service) List(ctx context.Context, req ListRequest) ([]Voucher, error) {
	query := s.db.WithContext(ctx).Model(&Voucher{})

	if req.AvailableOnly {
		now := s.now().UTC()
		query = query.Where("status = ? AND start_date <= ? AND end_date >= ?", StatusActive, now, now)
	} else if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var vouchers []Voucher
	if err := query.Order("created_at DESC").Find(&vouchers).Error; err != nil {
		return nil, fmt.Errorf("failed to list vouchers: %w", err)
	}
	return vouchers, nil
}

// SetStatus switches a voucher on or off
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (*Voucher, error) {
	if status != StatusActive && status != StatusInactive {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidVoucher, status)
	}

	v, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(v).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("failed to update voucher status: %w", err)
	}
	v.Status = status

	s.log.WithFields(logrus.Fields{"voucher_id": id, "status": status}).Info("voucher status changed")
	return v, nil
}

// NormalizeCode returns the canonical form of a voucher code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
