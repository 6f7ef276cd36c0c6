package repository

import (
	"time"

	"lucent-shop-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderFilter struct {
	UserID      *uuid.UUID
	Status      model.OrderStatus
	OrderNumber string
	Page        Page
}

// StatusChange moves an order from an observed status to a new one. The
// update only applies while the row still holds From.
type StatusChange struct {
	From         model.OrderStatus
	To           model.OrderStatus
	CancelReason *string
	CancelledAt  *time.Time
	UpdatedBy    string
}

// SalesData is one day of the sales chart.
type SalesData struct {
	Date    string `json:"date"`
	Orders  int64  `json:"orders"`
	Revenue int64  `json:"revenue"`
}

type OrderRepository interface {
	Create(order *model.Order) error
	FindByID(id uuid.UUID) (*model.Order, error)
	FindAll(filter OrderFilter) ([]model.Order, int64, error)
	ExistsByOrderNumber(orderNumber string) (bool, error)
	UpdateStatus(id uuid.UUID, change StatusChange) error
	UpdateItemStatus(itemID uuid.UUID, from, to model.OrderStatus) error
	UpdateAdminMemo(id uuid.UUID, memo, updatedBy string) error
	RecordDownload(itemID uuid.UUID, at time.Time) error
	CountByStatus() (map[model.OrderStatus]int64, error)
	SumRevenue() (int64, error)
	GetDailySales(startDate, endDate time.Time) ([]SalesData, error)
}

// revenueStatuses are the states in which payment has been confirmed.
var revenueStatuses = []model.OrderStatus{
	model.StatusPaid, model.StatusMaking, model.StatusReadyToShip, model.StatusShipping, model.StatusDone,
}

type orderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db}
}

func (r *orderRepo) Create(order *model.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepo) FindByID(id uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC")
	}).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (r *orderRepo) FindAll(filter OrderFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	q := r.db.Model(&model.Order{})
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.OrderNumber != "" {
		q = q.Where("order_number = ?", filter.OrderNumber)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *orderRepo) ExistsByOrderNumber(orderNumber string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&model.Order{}).Where("order_number = ?", orderNumber).Count(&count).Error
	return count > 0, err
}

func (r *orderRepo) UpdateStatus(id uuid.UUID, change StatusChange) error {
	updates := map[string]interface{}{
		"status":     change.To,
		"updated_by": change.UpdatedBy,
	}
	if change.CancelReason != nil {
		updates["cancel_reason"] = *change.CancelReason
	}
	if change.CancelledAt != nil {
		updates["cancelled_at"] = *change.CancelledAt
	}

	res := r.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", id, change.From).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *orderRepo) UpdateItemStatus(itemID uuid.UUID, from, to model.OrderStatus) error {
	res := r.db.Model(&model.OrderItem{}).
		Where("id = ? AND item_status = ?", itemID, from).
		Update("item_status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *orderRepo) UpdateAdminMemo(id uuid.UUID, memo, updatedBy string) error {
	res := r.db.Model(&model.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"admin_memo": memo,
		"updated_by": updatedBy,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *orderRepo) RecordDownload(itemID uuid.UUID, at time.Time) error {
	return r.db.Model(&model.OrderItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"download_count":     gorm.Expr("download_count + 1"),
			"last_downloaded_at": at,
		}).Error
}

func (r *orderRepo) CountByStatus() (map[model.OrderStatus]int64, error) {
	var rows []struct {
		Status model.OrderStatus
		Count  int64
	}
	err := r.db.Model(&model.Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *orderRepo) SumRevenue() (int64, error) {
	var revenue int64
	err := r.db.Model(&model.Order{}).
		Where("status IN ?", revenueStatuses).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&revenue).Error
	return revenue, err
}

func (r *orderRepo) GetDailySales(startDate, endDate time.Time) ([]SalesData, error) {
	var results []SalesData

	rows, err := r.db.Model(&model.Order{}).
		Select(`
			TO_CHAR(DATE(created_at), 'YYYY-MM-DD') as date,
			COUNT(*) as orders,
			COALESCE(SUM(total_price), 0) as revenue
		`).
		Where("status IN ? AND created_at BETWEEN ? AND ?", revenueStatuses, startDate, endDate).
		Group("DATE(created_at)").
		Order("DATE(created_at) ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var data SalesData
		if err := rows.Scan(&data.Date, &data.Orders, &data.Revenue); err != nil {
			return nil, err
		}
		results = append(results, data)
	}

	return results, rows.Err()
}
