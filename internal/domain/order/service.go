// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/pkg/logger"
	"github.com/your-org/storefront/internal/pkg/pagination"
	"gorm.io/gorm"
)

// Service handles order business logic
type Service struct {
	db  *gorm.DB
	log *logrus.Entry
	now func() time.Time
}

// NewService creates a new order service
func NewService(db *gorm.DB, log logrus.FieldLogger) *Service {
	return &Service{
		db:  db,
		log: logger.Component(log, "order_service"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=20"`
	Status    Status `form:"status"`
	SessionID string `form:"-"`
	SortBy    string `form:"sort_by,default=created_at"`
	SortOrder string `form:"sort_order,default=desc"`
}

// OrderResponse represents order list response
type OrderResponse struct {
	Orders     []Order               `json:"orders"`
	Pagination pagination.Pagination `json:"pagination"`
}

// Create stores a new order. Ids, the order number and the initial pending
// history of every item are assigned here.
func (s *Service) Create(ctx context.Context, o *Order) error {
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}

	now := s.now()
	o.ID = uuid.New().String()
	o.OrderNumber = GenerateOrderNumber(now)

	for i := range o.Items {
		item := &o.Items[i]
		item.ID = uuid.New().String()
		item.OrderID = o.ID
		item.Position = i
		item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		item.Status = StatusPending
		item.History = []StatusEntry{{
			OrderItemID: item.ID,
			Status:      StatusPending,
			Notes:       "Order placed",
			CreatedAt:   now,
		}}
	}
	for i := range o.Vouchers {
		o.Vouchers[i].OrderID = o.ID
	}
	o.RefreshStatus()

	if err := s.db.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"items":        len(o.Items),
		"total":        o.TotalAmount.String(),
	}).Info("order created")
	return nil
}

func (s *Service) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Items.History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Vouchers")
}

func (s *Service) first(db *gorm.DB, cond string, args ...any) (*Order, error) {
	var order Order
	if err := s.withRelations(db).Where(cond, args...).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &order, nil
}

// Get retrieves a single order by ID
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.first(s.db.WithContext(ctx), "id = ?", id)
}

// GetForSession retrieves an order only if it was placed by the session
func (s *Service) GetForSession(ctx context.Context, id, sessionID string) (*Order, error) {
	return s.first(s.db.WithContext(ctx), "id = ? AND session_id = ?", id, sessionID)
}

// GetByNumber retrieves a single order by order number
func (s *Service) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return s.first(s.db.WithContext(ctx), "order_number = ?", orderNumber)
}

// List retrieves orders with filtering and pagination
func (s *Service) List(ctx context.Context, req *OrderListRequest) (*OrderResponse, error) {
	var orders []Order
	var total int64

	page, limit := pagination.Normalize(req.Page, req.Limit)
	query := s.db.WithContext(ctx).Model(&Order{})

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.SessionID != "" {
		query = query.Where("session_id = ?", req.SessionID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	err := s.withRelations(query).
		Order(buildOrderClause(req.SortBy, req.SortOrder)).
		Offset(pagination.Offset(page, limit)).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return &OrderResponse{
		Orders:     orders,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// UpdateItemStatus moves one item along its status flow and recomputes the
// order status
func (s *Service) UpdateItemStatus(ctx context.Context, orderID, itemID string, status Status, notes string) (*Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}

	var updated *Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := s.first(tx, "id = ?", orderID)
		if err != nil {
			return err
		}
		item, ok := o.Item(itemID)
		if !ok {
			return ErrItemNotFound
		}

		entry, err := item.Transition(status, notes, s.now())
		if err != nil {
			return err
		}
		if err := s.saveTransition(tx, o, item, entry); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":     orderID,
		"item_id":      itemID,
		"item_status":  status,
		"order_status": updated.Status,
	}).Info("order item status updated")
	return updated, nil
}

// Cancel cancels every item that is not cancelled yet. It fails when any item
// is already past processing.
func (s *Service) Cancel(ctx context.Context, orderID, notes string) (*Order, error) {
	var cancelled *Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := s.first(tx, "id = ?", orderID)
		if err != nil {
			return err
		}
		if !o.CanBeCancelled() {
			return fmt.Errorf("%w: %s", ErrNotCancellable, o.Status)
		}

		now := s.now()
		for i := range o.Items {
			item := &o.Items[i]
			if item.CurrentStatus() == StatusCancelled {
				continue
			}
			entry, err := item.Transition(StatusCancelled, notes, now)
			if err != nil {
				return err
			}
			if err := s.saveTransition(tx, o, item, entry); err != nil {
				return err
			}
		}
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithField("order_id", orderID).Info("order cancelled")
	return cancelled, nil
}

func (s *Service) saveTransition(tx *gorm.DB, o *Order, item *OrderItem, entry StatusEntry) error {
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to create status history: %w", err)
	}
	item.History[len(item.History)-1] = entry

	if err := tx.Model(&OrderItem{}).Where("id = ?", item.ID).Update("status", item.Status).Error; err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}

	o.RefreshStatus()
	if err := tx.Model(&Order{}).Where("id = ?", o.ID).Update("status", o.Status).Error; err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

func buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"total_amount": true,
		"status":       true,
		"order_number": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}
