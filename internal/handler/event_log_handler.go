package handler

import (
	"strings"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"
	"lucent-shop-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type EventLogHandler struct {
	events service.EventLogger
}

func NewEventLogHandler(events service.EventLogger) *EventLogHandler {
	return &EventLogHandler{events: events}
}

// GetEventLogs lists the audit trail, newest first
// GET /api/v1/admin/event-logs?event_type=ORDER_CANCELLED
func (h *EventLogHandler) GetEventLogs(c *fiber.Ctx) error {
	page := pageFromQuery(c)
	filter := repository.EventLogFilter{
		EventType: model.EventType(strings.ToUpper(c.Query("event_type"))),
		Page:      page,
	}

	logs, total, err := h.events.List(filter)
	if err != nil {
		return handleError(c, err)
	}
	return paginated(c, logs, page, total)
}
