package service

import (
	"testing"
	"time"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService(t *testing.T) {
	env := newTestEnv(t)
	dashboard := NewDashboardService(env.store, env.clock)

	voice := testutil.SeedVoicePack(t, env.store)
	goods := testutil.SeedGoods(t, env.store, 6)

	env.placeOrder(t, uuid.New(), line(voice, 1))
	paid := env.advance(t, env.placeOrder(t, uuid.New(), line(goods, 2)), model.StatusPaid)
	env.advance(t, env.placeOrder(t, uuid.New(), line(voice, 2)), model.StatusCancelled)

	stats, err := dashboard.GetDashboardStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, int64(1), stats.PendingOrders)
	assert.Equal(t, int64(1), stats.OrdersByStatus[model.StatusPaid])
	assert.Equal(t, int64(1), stats.OrdersByStatus[model.StatusCancelled])
	assert.Equal(t, paid.TotalPrice, stats.Revenue, "only confirmed, uncancelled orders count")
	assert.Equal(t, int64(1), stats.LowStockCount, "goods dropped to 4")

	// The in-memory store stamps rows on 2026-01-01.
	env.clock.Set(time.Date(2026, 1, 3, 12, 0, 0, 0, time.UTC))

	sales, err := dashboard.GetSalesMovement(7)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "2026-01-01", sales[0].Date)
	assert.Equal(t, int64(1), sales[0].Orders)
	assert.Equal(t, paid.TotalPrice, sales[0].Revenue)

	movement, err := dashboard.GetStockMovement(7)
	require.NoError(t, err)
	require.Len(t, movement, 1)
	assert.Equal(t, 0, movement[0].Inbound)
	assert.Equal(t, 2, movement[0].Outbound)

	env.clock.Set(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	sales, err = dashboard.GetSalesMovement(7)
	require.NoError(t, err)
	assert.Empty(t, sales)
}
