package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice/internal/core/apperror"
	appctx "backoffice/internal/core/context"
	"backoffice/internal/core/idempotency"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"
const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

const (
	idempotencyKeyCtx   = "idempotency_key"
	idempotencyStoreCtx = "idempotency_store"
)

// Idempotency replays the stored response when a write is retried with the
// same X-Idempotency-Key. Requests without the header pass through.
func Idempotency(store idempotency.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		requestHash, ok := hashBody(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		operation := c.Request.Method + " " + c.FullPath()
		replay, err := store.AcquireKey(ctx, key, appctx.GetUserID(ctx), operation, requestHash)
		if err != nil {
			if _, isApp := apperror.AsAppError(err); !isApp {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}

		if replay != nil {
			c.Header("Idempotent-Replay", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(idempotencyKeyCtx, key)
		c.Set(idempotencyStoreCtx, store)

		c.Next()
	}
}

// hashBody buffers the request body so the handler can still read it and
// returns its sha256. Oversized bodies abort the request.
func hashBody(c *gin.Context) (string, bool) {
	body, _ := io.ReadAll(io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1))
	if len(body) > maxIdempotencyBodyBytes {
		appErr := apperror.NewValidation("request body too large for idempotency")
		appErr.HTTPStatus = http.StatusRequestEntityTooLarge
		_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
		c.Abort()
		return "", false
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), true
}

// IdempotencyFrom returns the key claimed for this request, or a nil store.
func IdempotencyFrom(c *gin.Context) (string, idempotency.Store) {
	key := c.GetString(idempotencyKeyCtx)
	if key == "" {
		return "", nil
	}
	store, _ := c.Value(idempotencyStoreCtx).(idempotency.Store)
	return key, store
}
