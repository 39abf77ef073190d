// internal/pkg/response/response.go
package response

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pkg/validation"
)

// Response defines the standard API response format. A response carries
// either data or an error, never both.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Paginated wraps a page of results.
type Paginated struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends a standardized error response.
func Error(c *gin.Context, code int, message string, err error) {
	c.Abort()

	resp := Response{
		Success: false,
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}

	c.JSON(code, resp)
}

// FromError maps service errors onto HTTP statuses. Downstream and internal
// failures are reported with a generic message only.
func FromError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, xerrors.ErrCouponInvalid):
		Error(c, http.StatusBadRequest, message, xerrors.ErrCouponInvalid)
	case errors.Is(err, xerrors.ErrValidation), errors.Is(err, xerrors.ErrInvalidInput):
		Error(c, http.StatusBadRequest, message, err)
	case errors.Is(err, xerrors.ErrNotFound):
		Error(c, http.StatusNotFound, message, xerrors.ErrNotFound)
	case errors.Is(err, xerrors.ErrConflict):
		Error(c, http.StatusConflict, message, err)
	case errors.Is(err, xerrors.ErrUnauthorized), errors.Is(err, xerrors.ErrTokenRevoked):
		Error(c, http.StatusUnauthorized, message, err)
	case errors.Is(err, xerrors.ErrForbidden):
		Error(c, http.StatusForbidden, message, xerrors.ErrForbidden)
	case errors.Is(err, xerrors.ErrRateLimited):
		Error(c, http.StatusTooManyRequests, message, xerrors.ErrRateLimited)
	case errors.Is(err, xerrors.ErrDownstream):
		Error(c, http.StatusBadGateway, message, xerrors.ErrDownstream)
	default:
		Error(c, http.StatusInternalServerError, message, xerrors.ErrInternal)
	}
}

// ValidationError sends a 400 Bad Request response for invalid input.
func ValidationError(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}

// BindError reports a request that failed binding. Validator failures are
// listed per field.
func BindError(c *gin.Context, message string, err error) {
	fields := validation.Fields(err)
	if len(fields) == 0 {
		ValidationError(c, message, err)
		return
	}

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f.Message)
	}
	c.Abort()
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Message: message,
		Error:   strings.Join(msgs, "; "),
	})
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, nil)
}

// Forbidden sends a 403 Forbidden response.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message, nil)
}
