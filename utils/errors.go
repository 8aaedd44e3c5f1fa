package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standardized error body returned by every endpoint.
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithNotFound sends a 404 Not Found error
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithUnsupportedFormat rejects an upload whose media type is not in
// the allow-list. Sent before any blob write or enqueue happens.
func RespondWithUnsupportedFormat(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusUnsupportedMediaType, "unsupported_format", message, details)
}

// RespondWithEnqueueFailed reports that the blob was stored but the
// processing message could not be enqueued. The document stays in the
// uploaded state so the reconciler can re-enqueue it.
func RespondWithEnqueueFailed(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadGateway, "enqueue_failed", message, nil)
}

// RespondWithBlobMissing reports a data-integrity fault: the document record
// exists but its blob is unresolvable.
func RespondWithBlobMissing(c *gin.Context, message string) {
	RespondWithError(c, http.StatusInternalServerError, "blob_missing", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}
