package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"backoffice/internal/infrastructure/metrics"
	"backoffice/pkg/logger"
)

// Logger writes one line per request and feeds the request metrics. m may be nil.
// Server errors log at warn level.
func Logger(log *logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, status, elapsed)

		fields := []any{
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", elapsed.Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			fields = append(fields, "error", errs.String())
		}

		l := log.WithContext(c.Request.Context())
		if status >= http.StatusInternalServerError {
			l.Warnw("http request", fields...)
			return
		}
		l.Infow("http request", fields...)
	}
}
