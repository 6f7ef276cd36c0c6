package handler

import (
	"bytes"
	"strings"
	"time"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"
	"lucent-shop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	orders   service.OrderService
	delivery service.DeliveryService
	exporter service.OrderExporter
}

func NewOrderHandler(orders service.OrderService, delivery service.DeliveryService, exporter service.OrderExporter) *OrderHandler {
	return &OrderHandler{orders: orders, delivery: delivery, exporter: exporter}
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type updateItemStatusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required"`
}

type updateMemoRequest struct {
	Memo string `json:"memo" validate:"max=2000"`
}

// CreateOrder places an order from an explicit item list
// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req service.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	order, err := h.orders.CreateOrder(userID, &req)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusCreated, order)
}

// Checkout turns the cart into an order and empties it
// POST /api/v1/orders/checkout
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req service.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	order, err := h.orders.CheckoutCart(userID, &req)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusCreated, order)
}

// ListMyOrders
// GET /api/v1/orders
func (h *OrderHandler) ListMyOrders(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	page := pageFromQuery(c)
	orders, total, err := h.orders.ListMyOrders(userID, page)
	if err != nil {
		return handleError(c, err)
	}
	return paginated(c, orders, page, total)
}

// GetMyOrder
// GET /api/v1/orders/:id
func (h *OrderHandler) GetMyOrder(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}

	order, err := h.orders.GetOrder(orderID, userID)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusOK, order)
}

// CancelOrder lets the owner cancel before production starts
// POST /api/v1/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req cancelOrderRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &req); !ok {
			return err
		}
	}

	order, err := h.orders.CancelOrder(orderID, userID, req.Reason)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusOK, order)
}

// RequestDownload issues a signed URL for a delivered voice pack
// POST /api/v1/orders/:id/items/:itemId/download
func (h *OrderHandler) RequestDownload(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}
	itemID, ok := paramUUID(c, "itemId")
	if !ok {
		return invalidID(c)
	}

	link, err := h.delivery.RequestDownload(orderID, itemID, userID)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusOK, link)
}

// ============ ADMIN ============

// ListOrders filters all orders by status and order number
// GET /api/v1/admin/orders
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	filter := repository.OrderFilter{
		Status:      model.OrderStatus(strings.ToUpper(c.Query("status"))),
		OrderNumber: strings.TrimSpace(c.Query("order_number")),
		Page:        page,
	}

	orders, total, err := h.orders.ListOrders(filter)
	if err != nil {
		return handleError(c, err)
	}
	return paginated(c, orders, page, total)
}

// ExportOrders downloads orders as an Excel sheet
// GET /api/v1/admin/orders/export?status=PAID
func (h *OrderHandler) ExportOrders(c *fiber.Ctx) error {
	status := model.OrderStatus(strings.ToUpper(c.Query("status")))

	var buf bytes.Buffer
	if _, err := h.exporter.WriteXLSX(&buf, status); err != nil {
		return handleError(c, err)
	}

	name := "orders-" + time.Now().Format("20060102") + ".xlsx"
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(buf.Bytes())
}

// GetOrder
// GET /api/v1/admin/orders/:id
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}

	order, err := h.orders.GetOrderByID(orderID)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusOK, order)
}

// UpdateStatus moves the whole order along the lifecycle
// PATCH /api/v1/admin/orders/:id/status
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	adminID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req service.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	req.Status = model.OrderStatus(strings.ToUpper(string(req.Status)))

	order, err := h.orders.UpdateStatus(orderID, &req, adminID)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusOK, order)
}

// UpdateItemStatus fulfils a single line
// PATCH /api/v1/admin/orders/:id/items/:itemId/status
func (h *OrderHandler) UpdateItemStatus(c *fiber.Ctx) error {
	adminID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}
	itemID, ok := paramUUID(c, "itemId")
	if !ok {
		return invalidID(c)
	}

	var req updateItemStatusRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	status := model.OrderStatus(strings.ToUpper(string(req.Status)))
	order, err := h.orders.UpdateItemStatus(orderID, itemID, status, adminID)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusOK, order)
}

// UpdateMemo
// PATCH /api/v1/admin/orders/:id/memo
func (h *OrderHandler) UpdateMemo(c *fiber.Ctx) error {
	adminID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	orderID, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req updateMemoRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	order, err := h.orders.UpdateAdminMemo(orderID, req.Memo, adminID)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusOK, order)
}
