package model

import "github.com/google/uuid"

type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

type MovementReason string

const (
	ReasonOrder      MovementReason = "ORDER"
	ReasonCancel     MovementReason = "CANCEL"
	ReasonAdjustment MovementReason = "ADJUSTMENT"
)

// StockMovement is the ledger line written whenever a tracked product's
// stock changes.
type StockMovement struct {
	BaseModel
	ProductID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product       `json:"product,omitempty"`
	Type       MovementType   `gorm:"type:varchar(10);not null" json:"type"`
	Reason     MovementReason `gorm:"type:varchar(20);not null" json:"reason"`
	Quantity   int            `gorm:"not null" json:"quantity"`
	StockAfter int            `gorm:"not null" json:"stock_after"`
	OrderID    *uuid.UUID     `gorm:"type:uuid;index" json:"order_id,omitempty"`
	Note       string         `json:"note"`
}
