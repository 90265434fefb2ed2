package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	assignmentdomain "github.com/smallbiznis/pricebook/internal/assignment/domain"
	overridedomain "github.com/smallbiznis/pricebook/internal/override/domain"
	pricelistdomain "github.com/smallbiznis/pricebook/internal/pricelist/domain"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
	resolutiondomain "github.com/smallbiznis/pricebook/internal/resolution/domain"
	syncdomain "github.com/smallbiznis/pricebook/internal/sync/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, pricelistdomain.ErrInvalidTenant),
		errors.Is(err, itemdomain.ErrInvalidTenant),
		errors.Is(err, assignmentdomain.ErrInvalidTenant),
		errors.Is(err, overridedomain.ErrInvalidTenant),
		errors.Is(err, resolutiondomain.ErrInvalidTenant),
		errors.Is(err, syncdomain.ErrInvalidTenant):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isInvalidStateError(err):
		return http.StatusConflict, errorPayload{
			Type:    "invalid_state",
			Message: "invalid state transition",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isPriceListValidationError(err),
		isItemValidationError(err),
		isAssignmentValidationError(err),
		isOverrideValidationError(err),
		isResolutionValidationError(err),
		isSyncValidationError(err):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, pricelistdomain.ErrDuplicateCode),
		errors.Is(err, itemdomain.ErrDuplicateSKU),
		errors.Is(err, assignmentdomain.ErrDuplicateAssignment):
		return true
	default:
		return false
	}
}

func isInvalidStateError(err error) bool {
	switch {
	case errors.Is(err, overridedomain.ErrInvalidState),
		errors.Is(err, syncdomain.ErrInvalidState):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, pricelistdomain.ErrNotFound),
		errors.Is(err, itemdomain.ErrNotFound),
		errors.Is(err, itemdomain.ErrPriceListNotFound),
		errors.Is(err, assignmentdomain.ErrNotFound),
		errors.Is(err, overridedomain.ErrNotFound),
		errors.Is(err, resolutiondomain.ErrPriceNotFound),
		errors.Is(err, syncdomain.ErrJobNotFound),
		errors.Is(err, syncdomain.ErrPriceListNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isPriceListValidationError(err error) bool {
	switch err {
	case pricelistdomain.ErrInvalidCode,
		pricelistdomain.ErrInvalidName,
		pricelistdomain.ErrInvalidType,
		pricelistdomain.ErrInvalidStatus,
		pricelistdomain.ErrInvalidCurrency,
		pricelistdomain.ErrInvalidWindow,
		pricelistdomain.ErrInvalidRoundingRule,
		pricelistdomain.ErrInvalidPrecision,
		pricelistdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isItemValidationError(err error) bool {
	switch err {
	case itemdomain.ErrInvalidSKU,
		itemdomain.ErrInvalidPrice,
		itemdomain.ErrInvalidPriceBounds,
		itemdomain.ErrInvalidQuantityBreak,
		itemdomain.ErrInvalidWindow,
		itemdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isAssignmentValidationError(err error) bool {
	switch err {
	case assignmentdomain.ErrInvalidPriceList,
		assignmentdomain.ErrInvalidAssigneeType,
		assignmentdomain.ErrInvalidAssignee,
		assignmentdomain.ErrInvalidWindow,
		assignmentdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isOverrideValidationError(err error) bool {
	switch err {
	case overridedomain.ErrInvalidScopeType,
		overridedomain.ErrInvalidScope,
		overridedomain.ErrInvalidItem,
		overridedomain.ErrInvalidOverrideType,
		overridedomain.ErrInvalidValue,
		overridedomain.ErrInvalidQuantity,
		overridedomain.ErrInvalidWindow,
		overridedomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isResolutionValidationError(err error) bool {
	switch err {
	case resolutiondomain.ErrInvalidSKU,
		resolutiondomain.ErrInvalidQuantity:
		return true
	default:
		return false
	}
}

func isSyncValidationError(err error) bool {
	switch err {
	case syncdomain.ErrInvalidID,
		syncdomain.ErrInvalidPayload:
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
