package service

import (
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"
	"lucent-shop-api/internal/testutil"
	"lucent-shop-api/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemOfType(t *testing.T, order *model.Order, typ model.ProductType) model.OrderItem {
	t.Helper()
	for _, item := range order.Items {
		if item.ProductType == typ {
			return item
		}
	}
	t.Fatalf("order has no %s item", typ)
	return model.OrderItem{}
}

func TestRequestDownload_Success(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	voice := testutil.SeedVoicePack(t, env.store)
	order := env.placeOrder(t, user, line(voice, 1))
	order = env.advance(t, order, model.StatusPaid, model.StatusDone)
	item := order.Items[0]

	link, err := env.delivery.RequestDownload(order.ID, item.ID, user)
	require.NoError(t, err)

	prefix := testBaseURL + "/api/v1/assets/download?token="
	require.True(t, strings.HasPrefix(link.URL, prefix), link.URL)
	assert.True(t, env.clock.Now().Add(10*time.Minute).Equal(link.ExpiresAt))

	u, err := url.Parse(link.URL)
	require.NoError(t, err)
	claims, err := jwt.ValidateAssetToken(u.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, *voice.DigitalFileURL, claims.Path)
	assert.Equal(t, item.ID.String(), claims.ItemID)

	reloaded, err := env.orders.GetOrder(order.ID, user)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Items[0].DownloadCount)
	require.NotNil(t, reloaded.Items[0].LastDownloadedAt)

	_, err = env.delivery.RequestDownload(order.ID, item.ID, user)
	require.NoError(t, err, "downloads are not capped")
	reloaded, _ = env.orders.GetOrder(order.ID, user)
	assert.Equal(t, 2, reloaded.Items[0].DownloadCount)

	logs := env.store.EventLogs()
	assert.Equal(t, model.EventDownloadIssued, logs[len(logs)-1].EventType)
}

// TestRequestDownload_Matrix: only owner + voice pack + fulfilled succeeds.
func TestRequestDownload_Matrix(t *testing.T) {
	env := newTestEnv(t)
	owner, stranger := uuid.New(), uuid.New()
	voice := testutil.SeedVoicePack(t, env.store)
	goods := testutil.SeedGoods(t, env.store, 10)

	fulfilled := env.advance(t, env.placeOrder(t, owner, line(voice, 1), line(goods, 1)),
		model.StatusPaid, model.StatusMaking, model.StatusReadyToShip, model.StatusShipping, model.StatusDone)
	paid := env.advance(t, env.placeOrder(t, owner, line(voice, 1)), model.StatusPaid)
	pending := env.placeOrder(t, owner, line(voice, 1))
	cancelled := env.advance(t, env.placeOrder(t, owner, line(voice, 1)), model.StatusCancelled)

	tests := []struct {
		name    string
		orderID uuid.UUID
		itemID  uuid.UUID
		userID  uuid.UUID
		ok      bool
	}{
		{"owner fulfilled voice pack", fulfilled.ID, itemOfType(t, fulfilled, model.ProductVoicePack).ID, owner, true},
		{"stranger", fulfilled.ID, itemOfType(t, fulfilled, model.ProductVoicePack).ID, stranger, false},
		{"physical item", fulfilled.ID, itemOfType(t, fulfilled, model.ProductPhysicalGoods).ID, owner, false},
		{"paid but not fulfilled", paid.ID, paid.Items[0].ID, owner, false},
		{"pending", pending.ID, pending.Items[0].ID, owner, false},
		{"cancelled", cancelled.ID, cancelled.Items[0].ID, owner, false},
		{"item from another order", fulfilled.ID, paid.Items[0].ID, owner, false},
		{"unknown item", fulfilled.ID, uuid.New(), owner, false},
		{"unknown order", uuid.New(), paid.Items[0].ID, owner, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := env.delivery.RequestDownload(tt.orderID, tt.itemID, tt.userID)
			if tt.ok {
				require.NoError(t, err)
				assert.NotEmpty(t, link.URL)
				return
			}
			assert.ErrorIs(t, err, ErrDownloadNotAvailable)
			assert.Nil(t, link)
		})
	}
}

func TestRequestDownload_ProductWithoutFile(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	voice := testutil.SeedProduct(t, env.store, "Unfinished Pack", model.ProductVoicePack, 5000, nil)
	voice.DigitalFileURL = nil
	require.NoError(t, env.store.Products().Update(voice))

	order := env.advance(t, env.placeOrder(t, user, line(voice, 1)), model.StatusPaid, model.StatusDone)

	_, err := env.delivery.RequestDownload(order.ID, order.Items[0].ID, user)
	assert.ErrorIs(t, err, ErrDownloadNotAvailable)
}

// wrappingStore annotates not-found errors the way a decorating repository
// would.
type wrappingStore struct {
	repository.Store
}

func (s wrappingStore) Orders() repository.OrderRepository {
	return wrappingOrders{s.Store.Orders()}
}

func (s wrappingStore) Products() repository.ProductRepository {
	return wrappingProducts{s.Store.Products()}
}

type wrappingOrders struct {
	repository.OrderRepository
}

func (r wrappingOrders) FindByID(id uuid.UUID) (*model.Order, error) {
	order, err := r.OrderRepository.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("load order %s: %w", id, err)
	}
	return order, nil
}

type wrappingProducts struct {
	repository.ProductRepository
}

func (r wrappingProducts) FindByID(id uuid.UUID) (*model.Product, error) {
	product, err := r.ProductRepository.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("load product %s: %w", id, err)
	}
	return product, nil
}

func TestRequestDownload_WrappedNotFound(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	voice := testutil.SeedVoicePack(t, env.store)
	order := env.advance(t, env.placeOrder(t, user, line(voice, 1)), model.StatusPaid, model.StatusDone)

	delivery := NewDeliveryService(wrappingStore{env.store}, NewURLSigner(testBaseURL, time.Minute, env.clock), env.events, env.clock)

	_, err := delivery.RequestDownload(uuid.New(), order.Items[0].ID, user)
	assert.ErrorIs(t, err, ErrDownloadNotAvailable, "missing order")

	// The product row vanished after the order was placed.
	broken := testutil.NewMemoryStore()
	placed := *order
	require.NoError(t, broken.Orders().Create(&placed))
	delivery = NewDeliveryService(wrappingStore{broken}, NewURLSigner(testBaseURL, time.Minute, env.clock), env.events, env.clock)

	_, err = delivery.RequestDownload(placed.ID, placed.Items[0].ID, user)
	assert.ErrorIs(t, err, ErrDownloadNotAvailable, "missing product")
}
