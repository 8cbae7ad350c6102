package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/ctxutil"
	"github.com/savioxavier/swe-group-7/internal/platform/logger"
)

// RequestLogger writes one line per API call. Rejections the engine expects
// (stage gate, occupied cell, bad input) log at warn with their error code.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
			if td.PlantID != uuid.Nil {
				fields = append(fields, "plant_id", td.PlantID.String())
			}
		}
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
			fields = append(fields, "user_id", rd.UserID.String())
		}
		if err := lastError(c); err != nil {
			fields = append(fields, "error_code", apierr.CodeOf(err), "error", err.Error())
		}

		switch {
		case status >= 500:
			log.Error("api call failed", fields...)
		case status >= 400:
			log.Warn("api call rejected", fields...)
		default:
			log.Info("api call", fields...)
		}
	}
}
