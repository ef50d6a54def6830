// internal/infrastructure/database/sqlstore/migration.go
package sqlstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/order"
	"github.com/your-org/storefront/internal/domain/voucher"
	"github.com/your-org/storefront/internal/pkg/logger"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db  *gorm.DB
	log *logrus.Entry
	now func() time.Time
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, log logrus.FieldLogger) *Migration {
	return &Migration{
		db:  db,
		log: logger.Component(log, "migration"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.log.Info("🔄 Running database auto-migrations...")

	// Define all models that need migration in dependency order
	models := []interface{}{
		// Catalog
		&catalog.Product{},
		&catalog.ProductVariant{},

		// Vouchers
		&voucher.Voucher{},

		// Orders
		&order.Order{},
		&order.OrderItem{},
		&order.StatusEntry{},
		&order.AppliedVoucher{},
	}

	for _, model := range models {
		m.log.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	m.log.Info("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for the common list queries
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_active_price ON products(is_active, price)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_product_variants_product_active ON product_variants(product_id, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_vouchers_status_dates ON vouchers(status, start_date, end_date)",
		"CREATE INDEX IF NOT EXISTS idx_orders_session_created ON orders(session_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order_position ON order_items(order_id, position)",
		"CREATE INDEX IF NOT EXISTS idx_order_item_history_item_created ON order_item_status_history(order_item_id, created_at)",
	}

	successCount := 0
	failCount := 0
	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			m.log.WithError(err).Warn("⚠️ Failed to create index")
			failCount++
		} else {
			successCount++
		}
	}

	m.log.Infof("✅ Created %d indexes successfully (%d failed)", successCount, failCount)
	if failCount > 0 {
		return fmt.Errorf("%d indexes could not be created", failCount)
	}
	return nil
}

// SeedInitialData inserts demo products and vouchers
func (m *Migration) SeedInitialData() error {
	m.log.Info("🌱 Seeding initial data...")

	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	if err := m.seedVouchers(); err != nil {
		return fmt.Errorf("failed to seed vouchers: %w", err)
	}

	m.log.Info("✅ Initial data seeded successfully")
	return nil
}

func (m *Migration) seedProducts() error {
	products := []catalog.Product{
		{
			SKU:          "DESK-LAMP-001",
			Name:         "Adjustable Desk Lamp",
			Description:  "LED desk lamp with three colour temperatures and a weighted base.",
			Price:        decimal.RequireFromString("34.90"),
			ComparePrice: decimal.RequireFromString("44.90"),
			IsActive:     true,
		},
		{
			SKU:         "MUG-CER-002",
			Name:        "Stoneware Coffee Mug",
			Description: "Hand glazed 350ml mug, dishwasher safe.",
			Price:       decimal.RequireFromString("12.50"),
			IsActive:    true,
			Variants: []catalog.ProductVariant{
				{Name: "sand", SKU: "MUG-CER-002-SND", IsActive: true},
				{Name: "slate", SKU: "MUG-CER-002-SLT", IsActive: true},
			},
		},
		{
			SKU:         "TEE-ORG-003",
			Name:        "Organic Cotton T-Shirt",
			Description: "Relaxed fit tee made from certified organic cotton.",
			Price:       decimal.RequireFromString("24.00"),
			IsActive:    true,
			Variants: []catalog.ProductVariant{
				{Name: "m", SKU: "TEE-ORG-003-M", IsActive: true},
				{Name: "l", SKU: "TEE-ORG-003-L", IsActive: true},
				{Name: "xxl", SKU: "TEE-ORG-003-XXL", Price: decimal.NewNullDecimal(decimal.RequireFromString("27.00")), IsActive: true},
			},
		},
	}

	for _, prod := range products {
		var existing catalog.Product
		err := m.db.Where("sku = ?", prod.SKU).First(&existing).Error
		if err == nil {
			m.log.Debugf("⏭️ Product already exists: %s", prod.Name)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		prod.ID = uuid.New().String()
		prod.Slug = catalog.Slugify(prod.Name)
		for i := range prod.Variants {
			prod.Variants[i].ID = uuid.New().String()
		}
		if err := m.db.Create(&prod).Error; err != nil {
			return fmt.Errorf("failed to create product %s: %w", prod.SKU, err)
		}
		m.log.Infof("✅ Created product: %s", prod.Name)
	}
	return nil
}

func (m *Migration) seedVouchers() error {
	now := m.now()
	vouchers := []voucher.Voucher{
		{
			Code:              "WELCOME10",
			Description:       "10% off your order, up to 20",
			Type:              voucher.TypePercentage,
			Discount:          decimal.NewFromInt(10),
			MaxDiscountAmount: decimal.NewNullDecimal(decimal.NewFromInt(20)),
		},
		{
			Code:           "SAVE5",
			Description:    "5 off orders over 40",
			Type:           voucher.TypeFixedAmount,
			Discount:       decimal.NewFromInt(5),
			MinOrderAmount: decimal.NewFromInt(40),
		},
		{
			Code:        "FREESHIP",
			Description: "Free shipping",
			Type:        voucher.TypeFreeShipping,
		},
	}

	for _, v := range vouchers {
		var count int64
		if err := m.db.Model(&voucher.Voucher{}).Where("code = ?", v.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			m.log.Debugf("⏭️ Voucher already exists: %s", v.Code)
			continue
		}

		v.ID = uuid.New().String()
		v.Status = voucher.StatusActive
		v.StartDate = now
		v.EndDate = now.AddDate(1, 0, 0)
		if err := m.db.Create(&v).Error; err != nil {
			return fmt.Errorf("failed to create voucher %s: %w", v.Code, err)
		}
		m.log.Infof("✅ Created voucher: %s", v.Code)
	}
	return nil
}
