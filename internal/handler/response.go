package handler

import (
	"errors"
	"log"
	"strconv"

	"lucent-shop-api/internal/middleware"
	"lucent-shop-api/internal/repository"
	"lucent-shop-api/internal/service"
	"lucent-shop-api/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

func success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "success",
		"data":   data,
	})
}

func paginated(c *fiber.Ctx, data interface{}, page repository.Page, total int64) error {
	page = page.Normalize()
	totalPages := (total + int64(page.Limit) - 1) / int64(page.Limit)
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   data,
		"pagination": Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

func fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "error",
		"code":   code,
		"error":  message,
	})
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// errorMappings turns service errors into HTTP responses with Korean copy
// for the storefront. The error text itself stays in the server log.
var errorMappings = []errorMapping{
	{service.ErrInvalidQuantity, 400, "INVALID_QUANTITY", "수량은 1개 이상 999개 이하로 입력해 주세요."},
	{service.ErrProductNotFound, 404, "PRODUCT_NOT_FOUND", "상품을 찾을 수 없습니다."},
	{service.ErrInactiveProduct, 409, "PRODUCT_INACTIVE", "현재 판매 중인 상품이 아닙니다."},
	{service.ErrOutOfStock, 409, "OUT_OF_STOCK", "재고가 부족합니다."},
	{service.ErrInsufficientStock, 409, "INSUFFICIENT_STOCK", "재고가 부족하여 주문할 수 없습니다."},
	{service.ErrCartItemNotFound, 404, "CART_ITEM_NOT_FOUND", "장바구니 상품을 찾을 수 없습니다."},
	{service.ErrCartEmpty, 400, "CART_EMPTY", "장바구니가 비어 있습니다."},
	{service.ErrShippingRequired, 400, "SHIPPING_REQUIRED", "실물 상품은 배송 정보를 입력해야 합니다."},
	{service.ErrOrderNotFound, 404, "ORDER_NOT_FOUND", "주문을 찾을 수 없습니다."},
	{service.ErrOrderItemNotFound, 404, "ORDER_ITEM_NOT_FOUND", "주문 상품을 찾을 수 없습니다."},
	{service.ErrForbidden, 403, "FORBIDDEN", "접근 권한이 없습니다."},
	{service.ErrOrderCannotCancel, 409, "ORDER_CANNOT_CANCEL", "제작 또는 배송이 시작된 주문은 취소할 수 없습니다."},
	{service.ErrOrderAlreadyDelivered, 409, "ORDER_ALREADY_DELIVERED", "이미 전달된 상품이 있는 주문은 취소할 수 없습니다."},
	{service.ErrInvalidStatus, 400, "INVALID_STATUS", "알 수 없는 주문 상태입니다."},
	{service.ErrInvalidTransition, 409, "INVALID_TRANSITION", "현재 주문 상태에서는 변경할 수 없습니다."},
	{service.ErrStatusConflict, 409, "STATUS_CONFLICT", "주문 상태가 이미 변경되었습니다. 새로고침 후 다시 시도해 주세요."},
	{service.ErrOrderNumberExhausted, 503, "ORDER_NUMBER_UNAVAILABLE", "잠시 후 다시 시도해 주세요."},
	{service.ErrDownloadNotAvailable, 403, "DOWNLOAD_NOT_AVAILABLE", "다운로드할 수 없는 상품입니다."},
	{service.ErrSlugExists, 409, "SLUG_EXISTS", "이미 사용 중인 슬러그입니다."},
	{service.ErrInvalidSlug, 400, "INVALID_SLUG", "슬러그는 영문 소문자, 숫자, 하이픈만 사용할 수 있습니다."},
	{service.ErrStockNotTracked, 400, "STOCK_NOT_TRACKED", "재고를 관리하지 않는 상품입니다."},
	{service.ErrSampleNotAvailable, 400, "SAMPLE_NOT_AVAILABLE", "샘플을 만들 수 있는 보이스팩 파일이 없습니다."},
	{service.ErrSampleGeneration, 502, "SAMPLE_GENERATION_FAILED", "샘플 오디오 생성에 실패했습니다."},
}

// handleError writes the response for an error returned by a service.
func handleError(c *fiber.Ctx, err error) error {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status": "error",
			"code":   "VALIDATION_ERROR",
			"error":  "입력값을 확인해 주세요.",
			"fields": verr.Fields,
		})
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status >= 500 {
				log.Printf("%s %s: %v", c.Method(), c.Path(), err)
			}
			return fail(c, m.status, m.code, m.message)
		}
	}

	log.Printf("%s %s: unexpected error: %v", c.Method(), c.Path(), err)
	return fail(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "일시적인 오류가 발생했습니다. 잠시 후 다시 시도해 주세요.")
}

func invalidJSON(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, "INVALID_JSON", "요청 형식이 올바르지 않습니다.")
}

// parseBody decodes the JSON body into req and runs struct validation.
func parseBody(c *fiber.Ctx, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, invalidJSON(c)
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return false, handleError(c, &service.ValidationError{Fields: errs})
	}
	return true, nil
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func invalidID(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, "INVALID_ID", "잘못된 ID 형식입니다.")
}

func currentUser(c *fiber.Ctx) (uuid.UUID, bool) {
	return middleware.UserID(c)
}

func unauthorized(c *fiber.Ctx) error {
	return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "로그인이 필요합니다.")
}

func pageFromQuery(c *fiber.Ctx) repository.Page {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	return repository.Page{Page: page, Limit: limit}.Normalize()
}
