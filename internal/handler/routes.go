package handler

import (
	"lucent-shop-api/internal/middleware"
	"lucent-shop-api/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Cart      *CartHandler
	Order     *OrderHandler
	Catalog   *CatalogHandler
	Dashboard *DashboardHandler
	EventLog  *EventLogHandler
	Asset     *AssetHandler
	Hub       *ws.Hub
}

// SetupRoutes registers every API route on app.
func SetupRoutes(app *fiber.App, h Handlers) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	api.Get("/health", func(c *fiber.Ctx) error {
		return success(c, fiber.StatusOK, fiber.Map{"ok": true})
	})
	api.Get("/products", h.Catalog.GetProducts)
	api.Get("/products/:slug", h.Catalog.GetProduct)
	api.Get("/assets/download", h.Asset.Download)

	// ============ CUSTOMER ROUTES ============
	protected := api.Group("", middleware.RequireAuth())

	protected.Get("/cart", h.Cart.GetCart)
	protected.Delete("/cart", h.Cart.Clear)
	protected.Post("/cart/items", h.Cart.AddItem)
	protected.Patch("/cart/items/:id", h.Cart.UpdateItem)
	protected.Delete("/cart/items/:id", h.Cart.RemoveItem)

	protected.Post("/orders", h.Order.CreateOrder)
	protected.Post("/orders/checkout", h.Order.Checkout)
	protected.Get("/orders", h.Order.ListMyOrders)
	protected.Get("/orders/:id", h.Order.GetMyOrder)
	protected.Post("/orders/:id/cancel", h.Order.CancelOrder)
	protected.Post("/orders/:id/items/:itemId/download", h.Order.RequestDownload)

	// ============ ADMIN ROUTES ============
	admin := api.Group("/admin", middleware.RequireAuth())

	admin.Get("/dashboard/stats", middleware.RequirePrivilege(middleware.PrivDashboardView), h.Dashboard.GetDashboardStats)
	admin.Get("/dashboard/sales-movement", middleware.RequirePrivilege(middleware.PrivDashboardView), h.Dashboard.GetSalesMovement)
	admin.Get("/dashboard/stock-movement", middleware.RequirePrivilege(middleware.PrivDashboardView), h.Dashboard.GetStockMovement)

	productAccess := middleware.RequireAnyPrivilege(middleware.PrivProductCreate, middleware.PrivProductUpdate, middleware.PrivStockAdjust)
	admin.Get("/products", productAccess, h.Catalog.GetAllProducts)
	admin.Get("/products/:id", productAccess, h.Catalog.GetProductByID)
	admin.Post("/products", middleware.RequirePrivilege(middleware.PrivProductCreate), h.Catalog.CreateProduct)
	admin.Put("/products/:id", middleware.RequirePrivilege(middleware.PrivProductUpdate), h.Catalog.UpdateProduct)
	admin.Patch("/products/:id/active", middleware.RequirePrivilege(middleware.PrivProductUpdate), h.Catalog.SetActive)
	admin.Post("/products/:id/sample", middleware.RequirePrivilege(middleware.PrivProductUpdate), h.Catalog.GenerateSample)
	admin.Post("/products/:id/stock", middleware.RequirePrivilege(middleware.PrivStockAdjust), h.Catalog.AdjustStock)
	admin.Get("/products/:id/stock-movements", productAccess, h.Catalog.GetStockMovements)

	admin.Get("/orders", middleware.RequirePrivilege(middleware.PrivOrderView), h.Order.ListOrders)
	admin.Get("/orders/export", middleware.RequirePrivilege(middleware.PrivOrderView), h.Order.ExportOrders)
	admin.Get("/orders/:id", middleware.RequirePrivilege(middleware.PrivOrderView), h.Order.GetOrder)
	admin.Patch("/orders/:id/status", middleware.RequirePrivilege(middleware.PrivOrderUpdateStatus), h.Order.UpdateStatus)
	admin.Patch("/orders/:id/items/:itemId/status", middleware.RequirePrivilege(middleware.PrivOrderUpdateStatus), h.Order.UpdateItemStatus)
	admin.Patch("/orders/:id/memo", middleware.RequirePrivilege(middleware.PrivOrderUpdateStatus), h.Order.UpdateMemo)

	admin.Get("/event-logs", middleware.RequirePrivilege(middleware.PrivEventView), h.EventLog.GetEventLogs)

	// ============ ADMIN FEED ============
	if h.Hub == nil {
		return
	}
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	}, middleware.RequireAuth(), middleware.RequirePrivilege(middleware.PrivOrderView))
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		if !h.Hub.Join(c) {
			return
		}
		defer h.Hub.Leave(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
