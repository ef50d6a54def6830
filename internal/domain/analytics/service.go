// internal/domain/analytics/service.go
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront/internal/domain/order"
	"gorm.io/gorm"
)

const (
	defaultReportDays = 30
	maxReportDays     = 365
	topProductsLimit  = 10
)

// Service computes seller dashboard figures from stored orders
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService creates a new analytics service
func NewService(db *gorm.DB) *Service {
	return &Service{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// DashboardStats represents overall dashboard statistics.
// Revenue figures exclude cancelled orders.
type DashboardStats struct {
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	RevenueToday     decimal.Decimal `json:"revenue_today"`
	RevenueThisMonth decimal.Decimal `json:"revenue_this_month"`
	AvgOrderValue    decimal.Decimal `json:"avg_order_value"`

	TotalOrders     int64 `json:"total_orders"`
	OrdersToday     int64 `json:"orders_today"`
	OrdersThisMonth int64 `json:"orders_this_month"`

	OrdersByStatus []StatusData       `json:"orders_by_status"`
	TopProducts    []ProductSalesData `json:"top_products"`
	VoucherUsage   []VoucherUsageData `json:"voucher_usage"`
}

// SalesReport is the daily revenue series for the last Days days
type SalesReport struct {
	Days          int              `json:"days"`
	DailyRevenue  []TimeSeriesData `json:"daily_revenue"`
	TotalSales    int64            `json:"total_sales"`
	TotalRevenue  decimal.Decimal  `json:"total_revenue"`
	AvgOrderValue decimal.Decimal  `json:"avg_order_value"`
}

// Supporting data structures
type TimeSeriesData struct {
	Date  string          `json:"date"`
	Value decimal.Decimal `json:"value"`
	Count int64           `json:"count"`
}

type StatusData struct {
	Status order.Status    `json:"status"`
	Count  int64           `json:"count"`
	Value  decimal.Decimal `json:"value"`
}

type ProductSalesData struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	UnitsSold  int64           `json:"units_sold"`
	Revenue    decimal.Decimal `json:"revenue"`
	OrderCount int64           `json:"order_count"`
}

type VoucherUsageData struct {
	Code          string          `json:"code"`
	Uses          int64           `json:"uses"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
}

// GetDashboardStats retrieves overall dashboard statistics
func (s *Service) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	db := s.db.WithContext(ctx)
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	stats := &DashboardStats{}

	var err error
	if stats.TotalOrders, stats.TotalRevenue, err = s.totals(db, time.Time{}); err != nil {
		return nil, err
	}
	if stats.OrdersToday, stats.RevenueToday, err = s.totals(db, today); err != nil {
		return nil, err
	}
	if stats.OrdersThisMonth, stats.RevenueThisMonth, err = s.totals(db, thisMonth); err != nil {
		return nil, err
	}
	billable, err := s.countBillable(db)
	if err != nil {
		return nil, err
	}
	stats.AvgOrderValue = average(stats.TotalRevenue, billable)

	err = db.Model(&order.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS value").
		Group("status").
		Order("status").
		Scan(&stats.OrdersByStatus).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders by status: %w", err)
	}

	err = db.Model(&order.OrderItem{}).
		Select("product_id, MAX(name) AS name, SUM(quantity) AS units_sold, SUM(total_price) AS revenue, COUNT(DISTINCT order_id) AS order_count").
		Where("status <> ?", order.StatusCancelled).
		Group("product_id").
		Order("revenue DESC, product_id").
		Limit(topProductsLimit).
		Scan(&stats.TopProducts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top products: %w", err)
	}

	err = db.Model(&order.AppliedVoucher{}).
		Select("code, COUNT(*) AS uses, COALESCE(SUM(discount_amount), 0) AS total_discount").
		Group("code").
		Order("uses DESC, code").
		Scan(&stats.VoucherUsage).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get voucher usage: %w", err)
	}

	for i := range stats.OrdersByStatus {
		stats.OrdersByStatus[i].Value = stats.OrdersByStatus[i].Value.Round(2)
	}
	for i := range stats.TopProducts {
		stats.TopProducts[i].Revenue = stats.TopProducts[i].Revenue.Round(2)
	}
	for i := range stats.VoucherUsage {
		stats.VoucherUsage[i].TotalDiscount = stats.VoucherUsage[i].TotalDiscount.Round(2)
	}

	return stats, nil
}

type dailyRow struct {
	CreatedAt   time.Time
	TotalAmount decimal.Decimal
}

// GetSalesReport retrieves the daily revenue of the last days, one entry per
// day including days without sales
func (s *Service) GetSalesReport(ctx context.Context, days int) (*SalesReport, error) {
	if days <= 0 {
		days = defaultReportDays
	}
	days = min(days, maxReportDays)

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := today.AddDate(0, 0, -(days - 1))

	var rows []dailyRow
	err := s.db.WithContext(ctx).Model(&order.Order{}).
		Select("created_at, total_amount").
		Where("status <> ? AND created_at >= ?", order.StatusCancelled, start).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get daily revenue: %w", err)
	}

	report := &SalesReport{
		Days:         days,
		DailyRevenue: make([]TimeSeriesData, days),
		TotalRevenue: decimal.Zero,
	}
	index := make(map[string]int, days)
	for i := range days {
		date := start.AddDate(0, 0, i).Format(time.DateOnly)
		report.DailyRevenue[i] = TimeSeriesData{Date: date, Value: decimal.Zero}
		index[date] = i
	}

	for _, row := range rows {
		i, ok := index[row.CreatedAt.In(now.Location()).Format(time.DateOnly)]
		if !ok {
			continue
		}
		report.DailyRevenue[i].Value = report.DailyRevenue[i].Value.Add(row.TotalAmount)
		report.DailyRevenue[i].Count++
		report.TotalSales++
		report.TotalRevenue = report.TotalRevenue.Add(row.TotalAmount)
	}
	for i := range report.DailyRevenue {
		report.DailyRevenue[i].Value = report.DailyRevenue[i].Value.Round(2)
	}
	report.TotalRevenue = report.TotalRevenue.Round(2)
	report.AvgOrderValue = average(report.TotalRevenue, report.TotalSales)

	return report, nil
}

// totals counts every order since the given time and sums the revenue of the
// ones not cancelled
func (s *Service) totals(db *gorm.DB, since time.Time) (int64, decimal.Decimal, error) {
	scope := db.Model(&order.Order{})
	if !since.IsZero() {
		scope = scope.Where("created_at >= ?", since)
	}

	var count int64
	if err := scope.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to count orders: %w", err)
	}

	revenue := decimal.Zero
	err := scope.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total_amount), 0)").
		Where("status <> ?", order.StatusCancelled).
		Row().Scan(&revenue)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return count, revenue.Round(2), nil
}

func (s *Service) countBillable(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&order.Order{}).Where("status <> ?", order.StatusCancelled).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count billable orders: %w", err)
	}
	return count, nil
}

func average(total decimal.Decimal, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(count)).Round(2)
}
