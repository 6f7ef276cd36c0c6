package service

import (
	"time"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"
	"lucent-shop-api/pkg/clock"
)

// LowStockThreshold marks tracked products that need restocking.
const LowStockThreshold = 5

type DashboardStats struct {
	OrdersByStatus map[model.OrderStatus]int64 `json:"orders_by_status"`
	TotalOrders    int64                       `json:"total_orders"`
	PendingOrders  int64                       `json:"pending_orders"`
	Revenue        int64                       `json:"revenue"`
	LowStockCount  int64                       `json:"low_stock_count"`
}

type DashboardService interface {
	GetDashboardStats() (*DashboardStats, error)
	GetSalesMovement(days int) ([]repository.SalesData, error)
	GetStockMovement(days int) ([]repository.StockMovementData, error)
}

type dashboardService struct {
	store repository.Store
	clock clock.Clock
}

func NewDashboardService(store repository.Store, clk clock.Clock) DashboardService {
	return &dashboardService{store: store, clock: clk}
}

func (s *dashboardService) window(days int) (time.Time, time.Time) {
	if days <= 0 || days > 365 {
		days = 7
	}
	endDate := s.clock.Now()
	return endDate.AddDate(0, 0, -days), endDate
}

func (s *dashboardService) GetDashboardStats() (*DashboardStats, error) {
	counts, err := s.store.Orders().CountByStatus()
	if err != nil {
		return nil, err
	}
	revenue, err := s.store.Orders().SumRevenue()
	if err != nil {
		return nil, err
	}
	lowStock, err := s.store.Products().CountLowStock(LowStockThreshold)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		OrdersByStatus: make(map[model.OrderStatus]int64),
		PendingOrders:  counts[model.StatusPending],
		Revenue:        revenue,
		LowStockCount:  lowStock,
	}
	for status, n := range counts {
		stats.OrdersByStatus[status] = n
		stats.TotalOrders += n
	}
	return stats, nil
}

func (s *dashboardService) GetSalesMovement(days int) ([]repository.SalesData, error) {
	startDate, endDate := s.window(days)
	return s.store.Orders().GetDailySales(startDate, endDate)
}

func (s *dashboardService) GetStockMovement(days int) ([]repository.StockMovementData, error) {
	startDate, endDate := s.window(days)
	return s.store.StockMovements().GetStockMovement(startDate, endDate)
}
