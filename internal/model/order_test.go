package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCanTransition walks the full lifecycle matrix:
//
//	From\To       | PAID | MAKING | READY | SHIPPING | DONE | CANCELLED
//	PENDING       |  ✓   |        |       |          |      |    ✓
//	PAID          |      |   ✓p   |       |          |  ✓d  |    ✓
//	MAKING        |      |        |   ✓p  |          |      |
//	READY_TO_SHIP |      |        |       |    ✓p    |      |
//	SHIPPING      |      |        |       |          |  ✓p  |
//	DONE          |  terminal
//	CANCELLED     |  terminal
//
// p = physical only, d = digital only.
func TestCanTransition(t *testing.T) {
	all := []OrderStatus{StatusPending, StatusPaid, StatusMaking, StatusReadyToShip, StatusShipping, StatusDone, StatusCancelled}

	allowedPhysical := map[OrderStatus][]OrderStatus{
		StatusPending:     {StatusPaid, StatusCancelled},
		StatusPaid:        {StatusMaking, StatusCancelled},
		StatusMaking:      {StatusReadyToShip},
		StatusReadyToShip: {StatusShipping},
		StatusShipping:    {StatusDone},
	}
	allowedDigital := map[OrderStatus][]OrderStatus{
		StatusPending: {StatusPaid, StatusCancelled},
		StatusPaid:    {StatusDone, StatusCancelled},
	}

	check := func(t *testing.T, physical bool, allowed map[OrderStatus][]OrderStatus) {
		for _, from := range all {
			for _, to := range all {
				want := false
				for _, a := range allowed[from] {
					if a == to {
						want = true
					}
				}
				assert.Equal(t, want, CanTransition(from, to, physical), "%s -> %s (physical=%v)", from, to, physical)
			}
		}
	}

	t.Run("physical", func(t *testing.T) { check(t, true, allowedPhysical) })
	t.Run("digital", func(t *testing.T) { check(t, false, allowedDigital) })

	t.Run("digital never leaves a fulfillment phase", func(t *testing.T) {
		assert.True(t, CanTransition(StatusShipping, StatusDone, true))
		assert.False(t, CanTransition(StatusShipping, StatusDone, false))
		assert.False(t, CanTransition(StatusReadyToShip, StatusShipping, false))
	})

	t.Run("unknown target", func(t *testing.T) {
		assert.False(t, CanTransition(StatusPending, OrderStatus("SHIPPED"), true))
	})
}

func TestOrderStatus_Predicates(t *testing.T) {
	assert.True(t, StatusPending.IsCancellable())
	assert.True(t, StatusPaid.IsCancellable())
	assert.False(t, StatusMaking.IsCancellable())
	assert.False(t, StatusDone.IsCancellable())

	assert.True(t, StatusDone.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusShipping.IsTerminal())

	assert.False(t, OrderStatus("done").IsValid())
}

func TestOrder_Totals(t *testing.T) {
	order := &Order{Items: []OrderItem{
		{ProductType: ProductVoicePack, PriceSnapshot: 5000, Quantity: 1},
		{ProductType: ProductPhysicalGoods, PriceSnapshot: 15000, Quantity: 2},
	}}

	assert.Equal(t, int64(35000), order.ItemsTotal())
	assert.True(t, order.HasPhysicalItems())

	digital := &Order{Items: []OrderItem{{ProductType: ProductVoicePack, PriceSnapshot: 5000, Quantity: 3}}}
	assert.False(t, digital.HasPhysicalItems())
}

func TestOrderItem_CascadeStatus(t *testing.T) {
	tests := []struct {
		name   string
		item   OrderItem
		to     OrderStatus
		want   OrderStatus
		change bool
	}{
		{"pending item paid", OrderItem{ProductType: ProductVoicePack, ItemStatus: StatusPending}, StatusPaid, StatusPaid, true},
		{"physical item making", OrderItem{ProductType: ProductPhysicalGoods, ItemStatus: StatusPaid}, StatusMaking, StatusMaking, true},
		{"digital item ignores making", OrderItem{ProductType: ProductVoicePack, ItemStatus: StatusPaid}, StatusMaking, StatusPaid, false},
		{"delivered voice pack stays done on cancel", OrderItem{ProductType: ProductVoicePack, ItemStatus: StatusDone}, StatusCancelled, StatusDone, false},
		{"bundle shipping", OrderItem{ProductType: ProductBundle, ItemStatus: StatusReadyToShip}, StatusShipping, StatusShipping, true},
		{"order done completes item", OrderItem{ProductType: ProductPhysicalGoods, ItemStatus: StatusShipping}, StatusDone, StatusDone, true},
		{"cancel pending item", OrderItem{ProductType: ProductPhysicalGoods, ItemStatus: StatusPending}, StatusCancelled, StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := tt.item.CascadeStatus(tt.to)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.change, changed)
		})
	}
}

func TestOrderItem_IsDownloadable(t *testing.T) {
	assert.True(t, (&OrderItem{ProductType: ProductVoicePack, ItemStatus: StatusDone}).IsDownloadable())
	assert.False(t, (&OrderItem{ProductType: ProductVoicePack, ItemStatus: StatusPaid}).IsDownloadable())
	assert.False(t, (&OrderItem{ProductType: ProductPhysicalGoods, ItemStatus: StatusDone}).IsDownloadable())
}

func TestProduct_Stock(t *testing.T) {
	three := 3

	physical := &Product{Type: ProductPhysicalGoods, Stock: &three}
	assert.True(t, physical.TracksStock())
	assert.True(t, physical.HasStockFor(3))
	assert.False(t, physical.HasStockFor(4))

	unlimited := &Product{Type: ProductBundle}
	assert.False(t, unlimited.TracksStock())
	assert.True(t, unlimited.HasStockFor(1000))

	voice := &Product{Type: ProductVoicePack, Stock: &three}
	assert.False(t, voice.TracksStock())
	assert.True(t, voice.HasStockFor(10))
}
