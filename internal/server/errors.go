package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/commission"
	conversiondomain "github.com/refgate/refgate/internal/conversion/domain"
	ledgerdomain "github.com/refgate/refgate/internal/ledger/domain"
	linkdomain "github.com/refgate/refgate/internal/link/domain"
	offerdomain "github.com/refgate/refgate/internal/offer/domain"
	publisherdomain "github.com/refgate/refgate/internal/publisher/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInternal       = errors.New("internal_error")
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

func mapError(err error) (int, errorPayload) {
	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, commission.ErrInvalidInput),
		errors.Is(err, conversiondomain.ErrInvalidOrder),
		errors.Is(err, conversiondomain.ErrInvalidAmount),
		errors.Is(err, conversiondomain.ErrInvalidCustomer),
		errors.Is(err, ledgerdomain.ErrInvalidPublisher),
		errors.Is(err, ledgerdomain.ErrInvalidConversion),
		errors.Is(err, ledgerdomain.ErrInvalidAmount),
		errors.Is(err, linkdomain.ErrInvalidCode),
		errors.Is(err, linkdomain.ErrInvalidURL),
		errors.Is(err, offerdomain.ErrInvalidName),
		errors.Is(err, offerdomain.ErrInvalidRate),
		errors.Is(err, offerdomain.ErrInvalidPublisher),
		errors.Is(err, publisherdomain.ErrInvalidName),
		errors.Is(err, publisherdomain.ErrInvalidEmail),
		errors.Is(err, publisherdomain.ErrInvalidRate):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, linkdomain.ErrNotFound),
		errors.Is(err, offerdomain.ErrOfferNotFound),
		errors.Is(err, offerdomain.ErrChannelNotFound),
		errors.Is(err, publisherdomain.ErrNotFound),
		errors.Is(err, conversiondomain.ErrSourceNotFound),
		errors.Is(err, conversiondomain.ErrOfferUnavailable):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, linkdomain.ErrDuplicateCode):
		return true
	default:
		return false
	}
}

func classifyErrorForLog(err error) (string, string) {
	switch {
	case isValidationError(err):
		return "validation", err.Error()
	case isNotFoundError(err):
		return "not_found", err.Error()
	case isConflictError(err):
		return "conflict", err.Error()
	default:
		return "internal", err.Error()
	}
}
