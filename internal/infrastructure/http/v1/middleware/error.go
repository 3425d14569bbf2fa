package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice/internal/core/apperror"
	"backoffice/pkg/logger"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler renders the last error a handler attached with c.Error.
// Causes are logged and never sent to the client.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		ctx := c.Request.Context()
		status, body := toResponse(c, c.Errors.Last().Err)
		if status >= http.StatusInternalServerError {
			logger.Error(ctx, "request failed", "status", status, "code", body.Code, "error", c.Errors.Last().Err)
		}

		failIdempotency(c, status, body)
		c.JSON(status, body)
	}
}

func toResponse(c *gin.Context, err error) (int, errorResponse) {
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		return http.StatusInternalServerError, errorResponse{
			Code:    apperror.CodeInternal,
			Message: "Internal server error",
			Details: map[string]any{"request_id": c.GetString("request_id")},
		}
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return status, errorResponse{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}
}

// failIdempotency records the error so a retry with the same key replays it.
func failIdempotency(c *gin.Context, status int, body errorResponse) {
	key, store := IdempotencyFrom(c)
	if store == nil {
		return
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return
	}
	if err := store.FailKey(c.Request.Context(), key, status, "application/json", raw); err != nil {
		logger.Warn(c.Request.Context(), "failed to record idempotency failure", "key", key, "error", err)
	}
}
