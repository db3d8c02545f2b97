package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpanName(t *testing.T) {
	assert.Equal(t, "cuadratura.search", SpanName("post", "/api/cuadratura/search"))
	assert.Equal(t, "cuadratura.export", SpanName("GET", "/api/cuadratura/export/:table"))
	assert.Equal(t, "sales.agencies", SpanName("GET", "/api/sales/agencies"))
	assert.Equal(t, "HTTP GET /api/runs", SpanName("GET", "/api/runs"))
	assert.Equal(t, "HTTP POST /api/cuadratura", SpanName("POST", "/api/cuadratura"))
}

func TestGinMiddlewareNamesReportSpans(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)

	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/cuadratura/export/:table", func(c *gin.Context) {
		c.Set("report_page", "cuadratura")
		c.Status(http.StatusOK)
	})
	r.GET("/api/runs", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, path := range []string{"/api/cuadratura/export/products", "/api/runs"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	export := spans[0]
	assert.Equal(t, "cuadratura.export", export.Name())
	attrs := attributeMap(export.Attributes())
	assert.Equal(t, "cuadratura.export", attrs["report.operation"])
	assert.Equal(t, "cuadratura", attrs["report.page"])
	assert.Equal(t, "products", attrs["report.table"])
	assert.Equal(t, "/api/cuadratura/export/:table", attrs["http.route"])

	runs := spans[1]
	assert.Equal(t, "HTTP GET /api/runs", runs.Name())
	assert.NotContains(t, attributeMap(runs.Attributes()), "report.operation")
}

func attributeMap(attrs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}
