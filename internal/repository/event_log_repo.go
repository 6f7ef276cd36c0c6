package repository

import (
	"lucent-shop-api/internal/model"

	"gorm.io/gorm"
)

type EventLogFilter struct {
	EventType model.EventType
	Page      Page
}

type EventLogRepository interface {
	Create(entry *model.EventLog) error
	FindAll(filter EventLogFilter) ([]model.EventLog, int64, error)
}

type eventLogRepo struct {
	db *gorm.DB
}

func NewEventLogRepo(db *gorm.DB) EventLogRepository {
	return &eventLogRepo{db}
}

func (r *eventLogRepo) Create(entry *model.EventLog) error {
	return r.db.Create(entry).Error
}

func (r *eventLogRepo) FindAll(filter EventLogFilter) ([]model.EventLog, int64, error) {
	var entries []model.EventLog
	var total int64

	q := r.db.Model(&model.EventLog{})
	if filter.EventType != "" {
		q = q.Where("event_type = ?", filter.EventType)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&entries).Error
	return entries, total, err
}
