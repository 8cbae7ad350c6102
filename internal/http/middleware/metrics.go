package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/savioxavier/swe-group-7/internal/observability"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
)

// Metrics records latency per route template and counts rejected calls by
// error code.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		m.ObserveHTTP(c.Request.Method, route, status, time.Since(start))
		if err := lastError(c); err != nil && status >= 400 {
			m.ObserveRejection(route, apierr.CodeOf(err))
		}
	}
}
