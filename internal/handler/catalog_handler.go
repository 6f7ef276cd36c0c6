package handler

import (
	"strings"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"
	"lucent-shop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	service service.CatalogService
	samples service.SampleService
}

func NewCatalogHandler(s service.CatalogService, samples service.SampleService) *CatalogHandler {
	return &CatalogHandler{service: s, samples: samples}
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func productFilter(c *fiber.Ctx, activeOnly bool) repository.ProductFilter {
	return repository.ProductFilter{
		Type:       model.ProductType(strings.ToUpper(c.Query("type"))),
		ActiveOnly: activeOnly,
		Page:       pageFromQuery(c),
	}
}

// GetProducts lists products on sale
// GET /api/v1/products?type=VOICE_PACK&page=1&limit=20
func (h *CatalogHandler) GetProducts(c *fiber.Ctx) error {
	filter := productFilter(c, true)
	products, total, err := h.service.ListProducts(filter)
	if err != nil {
		return handleError(c, err)
	}
	return paginated(c, products, filter.Page, total)
}

// GetProduct
// GET /api/v1/products/:slug
func (h *CatalogHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetProductBySlug(c.Params("slug"), false)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusOK, product)
}

// ============ ADMIN ============

// GetAllProducts lists products including hidden ones
// GET /api/v1/admin/products
func (h *CatalogHandler) GetAllProducts(c *fiber.Ctx) error {
	filter := productFilter(c, false)
	products, total, err := h.service.ListProducts(filter)
	if err != nil {
		return handleError(c, err)
	}
	return paginated(c, products, filter.Page, total)
}

// GetProductByID
// GET /api/v1/admin/products/:id
func (h *CatalogHandler) GetProductByID(c *fiber.Ctx) error {
	productID, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}

	product, err := h.service.GetProduct(productID)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusOK, product)
}

// CreateProduct
// POST /api/v1/admin/products
func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	adminID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	product, err := h.service.CreateProduct(&req, adminID)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusCreated, product)
}

// UpdateProduct
// PUT /api/v1/admin/products/:id
func (h *CatalogHandler) UpdateProduct(c *fiber.Ctx) error {
	adminID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	productID, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req service.ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	product, err := h.service.UpdateProduct(productID, &req, adminID)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusOK, product)
}

// SetActive shows or hides a product in the storefront
// PATCH /api/v1/admin/products/:id/active
func (h *CatalogHandler) SetActive(c *fiber.Ctx) error {
	adminID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	productID, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req setActiveRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	product, err := h.service.SetActive(productID, *req.IsActive, adminID)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusOK, product)
}

// AdjustStock records a manual receipt or write-off
// POST /api/v1/admin/products/:id/stock
func (h *CatalogHandler) AdjustStock(c *fiber.Ctx) error {
	adminID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	productID, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}

	var req service.StockAdjustRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	req.Type = model.MovementType(strings.ToUpper(string(req.Type)))

	movement, err := h.service.AdjustStock(productID, &req, adminID)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusCreated, movement)
}

// GetStockMovements
// GET /api/v1/admin/products/:id/stock-movements
func (h *CatalogHandler) GetStockMovements(c *fiber.Ctx) error {
	productID, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}

	page := pageFromQuery(c)
	movements, total, err := h.service.ListStockMovements(productID, page)
	if err != nil {
		return handleError(c, err)
	}
	return paginated(c, movements, page, total)
}

// GenerateSample cuts a preview clip from the stored voice pack
// POST /api/v1/admin/products/:id/sample
func (h *CatalogHandler) GenerateSample(c *fiber.Ctx) error {
	adminID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	productID, ok := paramUUID(c, "id")
	if !ok {
		return invalidID(c)
	}

	product, err := h.samples.GenerateSample(c.UserContext(), productID, adminID)
	if err != nil {
		return handleError(c, err)
	}
	return success(c, fiber.StatusOK, product)
}
