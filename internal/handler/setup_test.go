package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"lucent-shop-api/internal/middleware"
	"lucent-shop-api/internal/service"
	"lucent-shop-api/internal/testutil"
	"lucent-shop-api/pkg/clock"
	"lucent-shop-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://shop.test"

type nopNotifier struct{}

func (nopNotifier) Publish(string, interface{}) {}

type failingRunner struct{}

func (failingRunner) Run(context.Context, string, ...string) ([]byte, error) {
	return []byte("ffmpeg: not installed"), errors.New("exit status 1")
}

type testServer struct {
	app        *fiber.App
	store      *testutil.MemoryStore
	storageDir string
	customer   uuid.UUID
	admin      uuid.UUID
}

type envelope struct {
	Status     string          `json:"status"`
	Code       string          `json:"code"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
	Pagination *Pagination     `json:"pagination"`
	Fields     []struct {
		FailedField string `json:"field"`
		Tag         string `json:"tag"`
	} `json:"fields"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("JWT_SECRET", "handler-secret")
	t.Setenv("DOWNLOAD_SECRET", "handler-download-secret")

	store := testutil.NewMemoryStore()
	clk := clock.NewRealClock()
	pricing := service.Pricing{ShippingFee: 3000}
	events := service.NewEventLogger(store.Events(), nopNotifier{})
	storageDir := t.TempDir()

	orders := service.NewOrderService(store, events, service.NewOrderNumberGenerator(), pricing, clk)
	delivery := service.NewDeliveryService(store, service.NewURLSigner(testBaseURL, 10*time.Minute, clk), events, clk)
	samples := service.NewSampleService(store, failingRunner{}, events, service.SampleConfig{
		FFmpegPath:    "ffmpeg",
		StorageDir:    storageDir,
		PublicBaseURL: testBaseURL,
		Seconds:       20,
		Timeout:       time.Second,
	})

	app := fiber.New()
	SetupRoutes(app, Handlers{
		Cart:      NewCartHandler(service.NewCartService(store, pricing)),
		Order:     NewOrderHandler(orders, delivery, service.NewOrderExporter(store)),
		Catalog:   NewCatalogHandler(service.NewCatalogService(store, events), samples),
		Dashboard: NewDashboardHandler(service.NewDashboardService(store, clk)),
		EventLog:  NewEventLogHandler(events),
		Asset:     NewAssetHandler(storageDir),
	})

	return &testServer{
		app:        app,
		store:      store,
		storageDir: storageDir,
		customer:   uuid.New(),
		admin:      uuid.New(),
	}
}

func (s *testServer) customerToken(t *testing.T) string {
	t.Helper()
	token, err := jwt.GenerateToken(s.customer, "fan@example.com", "김루센", "customer", nil, time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) adminToken(t *testing.T, privileges ...string) string {
	t.Helper()
	if len(privileges) == 0 {
		privileges = []string{
			middleware.PrivProductCreate,
			middleware.PrivProductUpdate,
			middleware.PrivStockAdjust,
			middleware.PrivOrderView,
			middleware.PrivOrderUpdateStatus,
			middleware.PrivDashboardView,
			middleware.PrivEventView,
		}
	}
	token, err := jwt.GenerateToken(s.admin, "staff@lucent.local", "운영자", "ADMIN", privileges, time.Hour)
	require.NoError(t, err)
	return token
}

// do sends a JSON request and decodes the response envelope. A 204 yields an
// empty envelope.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), "body: %s", raw)
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
