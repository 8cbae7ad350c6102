package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/savioxavier/swe-group-7/internal/http/response"
	"github.com/savioxavier/swe-group-7/internal/observability"
	"github.com/savioxavier/swe-group-7/internal/platform/apierr"
	"github.com/savioxavier/swe-group-7/internal/platform/ctxutil"
)

func spanAttrs(t *testing.T, rec *tracetest.SpanRecorder) map[attribute.Key]string {
	t.Helper()
	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans: %d", len(ended))
	}
	out := map[attribute.Key]string{}
	for _, kv := range ended[0].Attributes() {
		out[kv.Key] = kv.Value.Emit()
	}
	return out
}

func TestTraceContextTagsGardenCall(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx, span := tp.Tracer("test").Start(c.Request.Context(), c.FullPath())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		span.End()
	})
	r.Use(AttachTraceContext(), Metrics(metrics))

	var seen *ctxutil.TraceData
	r.POST("/api/plants/:id/complete", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Set("user_id", "u-1")
		response.RespondErr(c, apierr.InvalidState("stage_too_low", "plant needs stage 4"))
	})

	plantID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/plants/"+plantID.String()+"/complete", nil)
	req.Header.Set(headerRequestID, "req-42")
	req.Header.Set(headerTraceID, "ignored-when-a-span-exists")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("status: got=%d", w.Code)
	}
	if seen == nil || seen.PlantID != plantID || seen.RequestID != "req-42" {
		t.Fatalf("trace data: %+v", seen)
	}
	if got := w.Header().Get(headerTraceID); got != seen.TraceID || got == "ignored-when-a-span-exists" {
		t.Fatalf("trace header should carry the span trace id: got=%q", got)
	}

	attrs := spanAttrs(t, rec)
	want := map[attribute.Key]string{
		"garden.plant_id":   plantID.String(),
		"garden.user_id":    "u-1",
		"garden.error_code": "stage_too_low",
		"garden.error_kind": string(apierr.KindInvalidState),
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Fatalf("%s: got=%q want=%q", k, attrs[k], v)
		}
	}
	expected := `
# HELP garden_http_rejections_total Failed API calls by route and error code (stage_too_low, position_occupied, ...).
# TYPE garden_http_rejections_total counter
garden_http_rejections_total{code="stage_too_low",route="/api/plants/:id/complete"} 1
`
	if err := promtest.GatherAndCompare(metrics.Registry, strings.NewReader(expected), "garden_http_rejections_total"); err != nil {
		t.Fatalf("rejections: %v", err)
	}
}

func TestTraceContextWithoutSpan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/api/plants/:id", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/plants/not-a-uuid", nil)
	req.Header.Set(headerTraceID, "abc123")
	req.Header.Set(headerRequestID, strings.Repeat("x", maxRequestIDLen+1))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen == nil {
		t.Fatalf("trace data missing")
	}
	if seen.TraceID != "abc123" {
		t.Fatalf("incoming trace id should be kept: got=%q", seen.TraceID)
	}
	if _, err := uuid.Parse(seen.RequestID); err != nil {
		t.Fatalf("oversized request id should be replaced: got=%q", seen.RequestID)
	}
	if seen.PlantID != uuid.Nil {
		t.Fatalf("malformed id should not be tagged")
	}
}
