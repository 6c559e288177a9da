package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/pkg/apperror"
	"github.com/sangkips/repairshop-api/pkg/pagination"
)

// APIResponse is the envelope of every JSON response. Failures carry the
// error kind plus field errors or details (e.g. the short stock lines).
type APIResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Kind    apperror.Kind `json:"kind,omitempty"`
	Data    interface{}   `json:"data,omitempty"`
	Errors  interface{}   `json:"errors,omitempty"`
	Details interface{}   `json:"details,omitempty"`
	Meta    *Meta         `json:"meta,omitempty"`
}

type Meta struct {
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id"`
}

func send(c *gin.Context, status int, body APIResponse) {
	requestID := c.GetString("request_id")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	body.Meta = &Meta{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: requestID,
	}
	c.JSON(status, body)
}

func OK(c *gin.Context, message string, data interface{}) {
	send(c, http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

func Created(c *gin.Context, message string, data interface{}) {
	send(c, http.StatusCreated, APIResponse{Success: true, Message: message, Data: data})
}

// Paged sends one page of a listing.
func Paged[T any](c *gin.Context, message string, page *pagination.Page[T]) {
	send(c, http.StatusOK, APIResponse{Success: true, Message: message, Data: page})
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes err with its status and kind. Internal, storage and
// partial-commit failures are attached to the gin context for the request
// log; internal messages are not shown to clients.
func Error(c *gin.Context, err error) {
	appErr := apperror.GetAppError(err)
	switch appErr.Kind {
	case apperror.KindInternal, apperror.KindPersistence, apperror.KindPartialCommit:
		_ = c.Error(err)
	}
	message := appErr.Message
	if appErr.Kind == apperror.KindInternal {
		message = apperror.ErrInternalServer.Message
	}
	send(c, appErr.Code, APIResponse{
		Message: message,
		Kind:    appErr.Kind,
		Errors:  appErr.Errors,
		Details: appErr.Details,
	})
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, apperror.NewAppError(http.StatusUnauthorized, apperror.KindUnauthorized, message))
}

func Forbidden(c *gin.Context, message string) {
	Error(c, apperror.NewAppError(http.StatusForbidden, apperror.KindForbidden, message))
}

func BadRequest(c *gin.Context, message string) {
	Error(c, apperror.NewBadRequestError(message))
}
