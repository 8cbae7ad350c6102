package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"

	maxRequestIDLen = 128
)

// AttachTraceContext stamps request/trace ids on the request and tags the
// active span with the garden entities the call touches.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := strings.TrimSpace(c.GetHeader(headerRequestID))
		if reqID == "" || len(reqID) > maxRequestIDLen {
			reqID = uuid.NewString()
		}

		span := trace.SpanFromContext(c.Request.Context())
		traceID := ""
		if sc := span.SpanContext(); sc.HasTraceID() {
			traceID = sc.TraceID().String()
		} else if h := strings.TrimSpace(c.GetHeader(headerTraceID)); h != "" && len(h) <= maxRequestIDLen {
			traceID = h
		} else {
			traceID = uuid.NewString()
		}

		td := &ctxutil.TraceData{TraceID: traceID, RequestID: reqID}
		if id, err := uuid.Parse(c.Param("id")); err == nil {
			td.PlantID = id
			span.SetAttributes(attribute.String("garden.plant_id", id.String()))
		}
		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Set("trace_id", traceID)
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)

		c.Next()

		if user := c.GetString("user_id"); user != "" {
			span.SetAttributes(attribute.String("garden.user_id", user))
		}
		if err := lastError(c); err != nil {
			span.SetAttributes(
				attribute.String("garden.error_code", apierr.CodeOf(err)),
				attribute.String("garden.error_kind", string(apierr.KindOf(err))),
			)
		}
	}
}

func lastError(c *gin.Context) error {
	if len(c.Errors) == 0 {
		return nil
	}
	return c.Errors.Last().Err
}
