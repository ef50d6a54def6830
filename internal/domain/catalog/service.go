// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/pkg/pagination"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("product variant not found")
	ErrInvalidFilter   = errors.New("invalid product filter")
)

// Service handles product catalog queries
type Service struct {
	db *gorm.DB
}

// NewService creates a new catalog service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=20"`
	Search    string `form:"search"`
	SortBy    string `form:"sort_by,default=created_at"`
	SortOrder string `form:"sort_order,default=desc"`
	MinPrice  string `form:"min_price"`
	MaxPrice  string `form:"max_price"`
}

// ProductResponse represents product response with pagination
type ProductResponse struct {
	Products   []Product             `json:"products"`
	Pagination pagination.Pagination `json:"pagination"`
}

// List retrieves active products with filtering and pagination
func (s *Service) List(ctx context.Context, req *ProductListRequest) (*ProductResponse, error) {
	var products []Product
	var total int64

	page, limit := pagination.Normalize(req.Page, req.Limit)

	query := s.db.WithContext(ctx).Model(&Product{}).Where("is_active = ?", true)

	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", search, search)
	}
	if req.MinPrice != "" {
		minPrice, err := decimal.NewFromString(req.MinPrice)
		if err != nil {
			return nil, fmt.Errorf("%w: min_price %q", ErrInvalidFilter, req.MinPrice)
		}
		query = query.Where("price >= ?", minPrice)
	}
	if req.MaxPrice != "" {
		maxPrice, err := decimal.NewFromString(req.MaxPrice)
		if err != nil {
			return nil, fmt.Errorf("%w: max_price %q", ErrInvalidFilter, req.MaxPrice)
		}
		query = query.Where("price <= ?", maxPrice)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	err := query.
		Preload("Variants", "is_active = ?", true).
		Order(buildOrderClause(req.SortBy, req.SortOrder)).
		Offset(pagination.Offset(page, limit)).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return &ProductResponse{
		Products:   products,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// Get retrieves a single active product by ID
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	return s.first(ctx, "id = ?", id)
}

// GetBySlug retrieves a single active product by slug
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	return s.first(ctx, "slug = ?", slug)
}

func (s *Service) first(ctx context.Context, cond string, arg any) (*Product, error) {
	var product Product
	result := s.db.WithContext(ctx).
		Preload("Variants", "is_active = ?", true).
		Where(cond, arg).
		Where("is_active = ?", true).
		First(&product)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}
	return &product, nil
}

// Resolve returns what the cart stores for a product and optional variant.
// The variant price overrides the product price when set.
func (s *Service) Resolve(ctx context.Context, productID, variant string) (cart.Product, error) {
	product, err := s.Get(ctx, productID)
	if err != nil {
		return cart.Product{}, err
	}

	resolved := cart.Product{
		ID:    product.ID,
		Name:  product.Name,
		Price: product.Price,
	}
	if variant == "" {
		return resolved, nil
	}

	v, ok := product.Variant(variant)
	if !ok {
		return cart.Product{}, fmt.Errorf("%s of %s: %w", variant, productID, ErrVariantNotFound)
	}
	if v.Price.Valid {
		resolved.Price = v.Price.Decimal
	}
	return resolved, nil
}

// buildOrderClause builds ORDER BY clause for sorting
func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"name":       true,
		"price":      true,
		"created_at": true,
		"updated_at": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}

// Slugify turns a product name into a URL-friendly slug
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
