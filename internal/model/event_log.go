package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventType string

const (
	EventOrderCreated       EventType = "ORDER_CREATED"
	EventOrderStatusChanged EventType = "ORDER_STATUS_CHANGED"
	EventOrderCancelled     EventType = "ORDER_CANCELLED"
	EventItemStatusChanged  EventType = "ORDER_ITEM_STATUS_CHANGED"
	EventAdminMemoUpdated   EventType = "ORDER_MEMO_UPDATED"
	EventDownloadIssued     EventType = "DOWNLOAD_ISSUED"
	EventProductCreated     EventType = "PRODUCT_CREATED"
	EventProductUpdated     EventType = "PRODUCT_UPDATED"
	EventStockAdjusted      EventType = "STOCK_ADJUSTED"
	EventSampleGenerated    EventType = "SAMPLE_GENERATED"
)

// EventLog is append-only; there is no update or delete path.
type EventLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;" json:"id"`
	EventType EventType  `gorm:"type:varchar(40);not null;index" json:"event_type"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	Metadata  string     `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	AdminID   *uuid.UUID `gorm:"type:uuid;index" json:"admin_id,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (e *EventLog) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}
