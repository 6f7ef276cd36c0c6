package handler

import (
	"strconv"

	"lucent-shop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

func daysQuery(c *fiber.Ctx) int {
	days, err := strconv.Atoi(c.Query("days", "7"))
	if err != nil || days <= 0 || days > 365 {
		days = 7
	}
	return days
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7)
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	days := daysQuery(c)
	data, err := h.service.GetStockMovement(days)
	if err != nil {
		return handleError(c, err)
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetSalesMovement returns confirmed orders and revenue per day
// Query params: days (default 7)
func (h *DashboardHandler) GetSalesMovement(c *fiber.Ctx) error {
	days := daysQuery(c)
	data, err := h.service.GetSalesMovement(days)
	if err != nil {
		return handleError(c, err)
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats()
	if err != nil {
		return handleError(c, err)
	}

	return success(c, fiber.StatusOK, stats)
}
