package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	StatusPending     OrderStatus = "PENDING"
	StatusPaid        OrderStatus = "PAID"
	StatusMaking      OrderStatus = "MAKING"
	StatusReadyToShip OrderStatus = "READY_TO_SHIP"
	StatusShipping    OrderStatus = "SHIPPING"
	StatusDone        OrderStatus = "DONE"
	StatusCancelled   OrderStatus = "CANCELLED"
)

// statusTransitions lists every forward edge of the lifecycle. Anything not
// listed, including all edges out of DONE and CANCELLED, is rejected.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:     {StatusPaid, StatusCancelled},
	StatusPaid:        {StatusMaking, StatusDone, StatusCancelled},
	StatusMaking:      {StatusReadyToShip},
	StatusReadyToShip: {StatusShipping},
	StatusShipping:    {StatusDone},
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusMaking, StatusReadyToShip, StatusShipping, StatusDone, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// IsCancellable reports whether the order can still leave through the
// cancellation exit.
func (s OrderStatus) IsCancellable() bool {
	return s == StatusPending || s == StatusPaid
}

func isFulfillmentPhase(s OrderStatus) bool {
	return s == StatusMaking || s == StatusReadyToShip || s == StatusShipping
}

// CanTransition reports whether from -> to is an edge of the lifecycle.
// Orders or items without physical goods skip the making/shipping phase and
// go PAID -> DONE; physical ones must pass through it.
func CanTransition(from, to OrderStatus, physical bool) bool {
	if !to.IsValid() || from == to {
		return false
	}
	if physical && from == StatusPaid && to == StatusDone {
		return false
	}
	if !physical && (isFulfillmentPhase(from) || isFulfillmentPhase(to)) {
		return false
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Order struct {
	BaseModel
	OrderNumber string      `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`
	UserID      uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	Status      OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Subtotal    int64       `gorm:"not null" json:"subtotal"`
	ShippingFee int64       `gorm:"not null;default:0" json:"shipping_fee"`
	TotalPrice  int64       `gorm:"not null" json:"total_price"`

	BuyerName     string `gorm:"type:varchar(100);not null" json:"buyer_name"`
	BuyerEmail    string `gorm:"type:varchar(255);not null" json:"buyer_email"`
	BuyerPhone    string `gorm:"type:varchar(30)" json:"buyer_phone"`
	DepositorName string `gorm:"type:varchar(100)" json:"depositor_name"`

	ShippingRecipient     *string `gorm:"type:varchar(100)" json:"shipping_recipient,omitempty"`
	ShippingPhone         *string `gorm:"type:varchar(30)" json:"shipping_phone,omitempty"`
	ShippingPostalCode    *string `gorm:"type:varchar(10)" json:"shipping_postal_code,omitempty"`
	ShippingAddress       *string `gorm:"type:text" json:"shipping_address,omitempty"`
	ShippingAddressDetail *string `gorm:"type:text" json:"shipping_address_detail,omitempty"`
	ShippingMemo          *string `gorm:"type:text" json:"shipping_memo,omitempty"`

	AdminMemo    string     `gorm:"type:text" json:"admin_memo,omitempty"`
	CancelReason *string    `gorm:"type:text" json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// HasPhysicalItems reports whether any line ships, which decides both the
// shipping fee and whether shipping fields are required.
func (o *Order) HasPhysicalItems() bool {
	for i := range o.Items {
		if o.Items[i].IsPhysical() {
			return true
		}
	}
	return false
}

// ItemsTotal is the sum of price_snapshot * quantity over all lines.
func (o *Order) ItemsTotal() int64 {
	var total int64
	for i := range o.Items {
		total += o.Items[i].PriceSnapshot * int64(o.Items[i].Quantity)
	}
	return total
}

func (o *Order) FindItem(itemID uuid.UUID) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// OrderItem snapshots the product at order time; later catalog edits never
// reach it.
type OrderItem struct {
	ID               uuid.UUID   `gorm:"type:uuid;primary_key;" json:"id"`
	OrderID          uuid.UUID   `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID        uuid.UUID   `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName      string      `gorm:"type:varchar(255);not null" json:"product_name"`
	ProductType      ProductType `gorm:"type:varchar(20);not null" json:"product_type"`
	PriceSnapshot    int64       `gorm:"not null" json:"price_snapshot"`
	Quantity         int         `gorm:"not null" json:"quantity"`
	Subtotal         int64       `gorm:"not null" json:"subtotal"`
	ItemStatus       OrderStatus `gorm:"type:varchar(20);not null" json:"item_status"`
	DownloadCount    int         `gorm:"not null;default:0" json:"download_count"`
	LastDownloadedAt *time.Time  `json:"last_downloaded_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

func (i *OrderItem) IsPhysical() bool {
	return i.ProductType.IsPhysical()
}

// IsDownloadable is true once a voice pack line has been fulfilled.
func (i *OrderItem) IsDownloadable() bool {
	return i.ProductType == ProductVoicePack && i.ItemStatus == StatusDone
}

// CascadeStatus returns the status this item takes when its order moves to
// orderStatus, and false when the item stays where it is.
func (i *OrderItem) CascadeStatus(orderStatus OrderStatus) (OrderStatus, bool) {
	if i.ItemStatus.IsTerminal() {
		return i.ItemStatus, false
	}
	switch orderStatus {
	case StatusCancelled, StatusDone:
		return orderStatus, true
	case StatusPaid:
		if i.ItemStatus == StatusPending {
			return StatusPaid, true
		}
	case StatusMaking, StatusReadyToShip, StatusShipping:
		if i.IsPhysical() && CanTransition(i.ItemStatus, orderStatus, true) {
			return orderStatus, true
		}
	}
	return i.ItemStatus, false
}
