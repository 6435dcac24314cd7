package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/mercari-shopper-backend/internal/pkg/errors"
)

// Response is the unified API envelope
type Response struct {
	Code    int         `json:"code"`              // Business error code (0 means success)
	Message string      `json:"message,omitempty"` // Human-readable message
	Data    interface{} `json:"data"`              // Payload (may be an empty object)
}

// Success writes a 200 response with payload
func Success(c *gin.Context, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(http.StatusOK, Response{
		Code:    apperrors.Success,
		Message: "",
		Data:    data,
	})
}

// BadRequest writes a 400 error
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    apperrors.ErrBadRequest,
		Message: message,
		Data:    struct{}{},
	})
}

// HandleError writes an error response derived from an AppError
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code := apperrors.ExtractCode(err)
	httpStatus := apperrors.GetHTTPStatus(code)
	message := apperrors.FormatError(code, apperrors.GetDetails(err))

	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Data:    struct{}{},
	})
}
