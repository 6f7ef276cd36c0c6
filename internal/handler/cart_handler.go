package handler

import (
	"lucent-shop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	service service.CartService
}

func NewCartHandler(s service.CartService) *CartHandler {
	return &CartHandler{service: s}
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart returns the user's cart with totals
// GET /api/v1/cart
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	cart, err := h.service.Get(userID)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusOK, cart)
}

// AddItem puts a product in the cart, merging with an existing line
// POST /api/v1/cart/items
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req service.AddCartItemRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	item, err := h.service.AddItem(userID, req.ProductID, req.Quantity)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusCreated, item)
}

// UpdateItem sets the quantity of a cart line
// PATCH /api/v1/cart/items/:id
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	itemID, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	item, err := h.service.UpdateQuantity(userID, itemID, req.Quantity)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusOK, item)
}

// RemoveItem deletes one cart line
// DELETE /api/v1/cart/items/:id
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	itemID, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}

	if err := h.service.RemoveItem(userID, itemID); err != nil {
		return handleError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Clear empties the cart
// DELETE /api/v1/cart
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.service.Clear(userID); err != nil {
		return handleError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
