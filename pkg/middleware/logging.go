package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/htmlhost/htmlhost/pkg/logger"
)

// Logging logs one line per request with status and latency. Health and
// metrics endpoints are skipped.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health" || path == "/ready" || strings.HasPrefix(path, "/metrics") {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		l := logger.With(
			"request_id", GetRequestID(c),
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if user := c.GetString(ContextKeyUsername); user != "" {
			l = l.With("user", user)
		}
		switch {
		case status >= http.StatusInternalServerError:
			l.Error("request completed")
		case status >= http.StatusBadRequest:
			l.Warn("request completed")
		default:
			l.Info("request completed")
		}
	}
}
