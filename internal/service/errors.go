package service

import (
	"errors"
	"fmt"
	"strings"

	"lucent-shop-api/pkg/validator"
)

var (
	ErrProductNotFound       = errors.New("product not found")
	ErrInactiveProduct       = errors.New("product is not on sale")
	ErrOutOfStock            = errors.New("requested quantity exceeds remaining stock")
	ErrInsufficientStock     = errors.New("insufficient stock remaining")
	ErrInvalidQuantity       = errors.New("quantity must be between 1 and 999")
	ErrCartItemNotFound      = errors.New("cart item not found")
	ErrCartEmpty             = errors.New("cart is empty")
	ErrShippingRequired      = errors.New("shipping information is required for physical goods")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderItemNotFound     = errors.New("order item not found")
	ErrForbidden             = errors.New("resource belongs to another user")
	ErrOrderCannotCancel     = errors.New("order can no longer be cancelled")
	ErrOrderAlreadyDelivered = errors.New("order has a delivered item and can no longer be cancelled")
	ErrInvalidStatus         = errors.New("unknown order status")
	ErrInvalidTransition     = errors.New("status transition not allowed")
	ErrStatusConflict        = errors.New("order status was changed by another request")
	ErrOrderNumberExhausted  = errors.New("could not allocate a unique order number")
	ErrDownloadNotAvailable  = errors.New("download not available")
	ErrSlugExists            = errors.New("slug already exists")
	ErrInvalidSlug           = errors.New("slug may only contain lowercase letters, digits and hyphens")
	ErrStockNotTracked       = errors.New("product does not track stock")
	ErrSampleNotAvailable    = errors.New("sample can only be generated from a stored voice pack")
	ErrSampleGeneration      = errors.New("sample generation failed")
)

// ValidationError reports request fields that failed struct validation.
type ValidationError struct {
	Fields []*validator.ErrorResponse
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("field '%s' failed on tag '%s'", f.FailedField, f.Tag))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// validate runs struct validation and wraps failures in *ValidationError.
func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
