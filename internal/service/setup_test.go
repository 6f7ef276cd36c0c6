package service

import (
	"sync"
	"testing"
	"time"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"
	"lucent-shop-api/internal/testutil"
	"lucent-shop-api/pkg/clock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://shop.test"

var testPricing = Pricing{ShippingFee: 3000}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Publish(eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventType)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type testEnv struct {
	store    *testutil.MemoryStore
	clock    *clock.MockClock
	notifier *recordingNotifier
	events   EventLogger
	carts    CartService
	orders   OrderService
	catalog  CatalogService
	delivery DeliveryService
	admin    uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := testutil.NewMemoryStore()
	clk := clock.NewMockClock(time.Now().UTC().Truncate(time.Second))
	notifier := &recordingNotifier{}
	events := NewEventLogger(store.Events(), notifier)

	return &testEnv{
		store:    store,
		clock:    clk,
		notifier: notifier,
		events:   events,
		carts:    NewCartService(store, testPricing),
		orders:   NewOrderService(store, events, NewOrderNumberGenerator(), testPricing, clk),
		catalog:  NewCatalogService(store, events),
		delivery: NewDeliveryService(store, NewURLSigner(testBaseURL, 10*time.Minute, clk), events, clk),
		admin:    uuid.New(),
	}
}

func testBuyer() BuyerInfo {
	return BuyerInfo{Name: "김루센", Email: "fan@example.com", Phone: "010-1234-5678"}
}

func testShipping() *ShippingInfo {
	return &ShippingInfo{
		Recipient:  "김루센",
		Phone:      "010-1234-5678",
		PostalCode: "04524",
		Address:    "서울특별시 중구 세종대로 110",
	}
}

// placeOrder creates an order for userID; shipping is filled in whenever a
// line is physical.
func (e *testEnv) placeOrder(t *testing.T, userID uuid.UUID, lines ...OrderItemRequest) *model.Order {
	t.Helper()

	req := &CreateOrderRequest{Items: lines, Buyer: testBuyer(), Shipping: testShipping()}
	order, err := e.orders.CreateOrder(userID, req)
	require.NoError(t, err)
	return order
}

// advance walks an order through the given statuses as an admin.
func (e *testEnv) advance(t *testing.T, order *model.Order, statuses ...model.OrderStatus) *model.Order {
	t.Helper()

	for _, status := range statuses {
		var err error
		order, err = e.orders.UpdateStatus(order.ID, &UpdateStatusRequest{Status: status}, e.admin)
		require.NoError(t, err, "advance to %s", status)
	}
	return order
}

func line(p *model.Product, qty int) OrderItemRequest {
	return OrderItemRequest{ProductID: p.ID, Quantity: qty}
}

func testPage() repository.Page {
	return repository.Page{Page: 1, Limit: 20}
}

func orderFilter(status model.OrderStatus, number string) repository.OrderFilter {
	return repository.OrderFilter{Status: status, OrderNumber: number, Page: testPage()}
}

func eventTypes(logs []model.EventLog) []model.EventType {
	out := make([]model.EventType, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.EventType)
	}
	return out
}
