package tracing

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/cuadra/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// reportOperations names the report routes in traces. Other routes keep the
// "HTTP <method> <route>" name.
var reportOperations = map[string]string{
	"POST /api/cuadratura/search":       "cuadratura.search",
	"GET /api/cuadratura":               "cuadratura.lookup",
	"DELETE /api/cuadratura":            "cuadratura.clear",
	"GET /api/cuadratura/export/:table": "cuadratura.export",
	"GET /api/occupancy":                "occupancy.compute",
	"GET /api/occupancy/export":         "occupancy.export",
	"GET /api/sales/destinations":       "sales.destinations",
	"GET /api/sales/agencies":           "sales.agencies",
	"GET /api/sales/export":             "sales.export",
}

// SpanName returns the span name of a matched route.
func SpanName(method, route string) string {
	method = strings.ToUpper(method)
	if op, ok := reportOperations[method+" "+route]; ok {
		return op
	}
	return "HTTP " + method + " " + route
}

// GinMiddleware instruments inbound HTTP requests.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("cuadra/http")
	return func(c *gin.Context) {
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		ctx, span := tracer.Start(ctx, "HTTP "+strings.ToUpper(c.Request.Method), trace.WithSpanKind(trace.SpanKindServer))

		requestID := obscontext.RequestIDFromContext(ctx)
		if requestID != "" {
			member, err := baggage.NewMember("request_id", requestID)
			if err == nil {
				bag, bagErr := baggage.New(member)
				if bagErr == nil {
					ctx = baggage.ContextWithBaggage(ctx, bag)
				}
			}
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		span.SetName(SpanName(c.Request.Method, route))
		span.SetAttributes(SafeAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", c.Writer.Status()),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		)...)

		if op, ok := reportOperations[strings.ToUpper(c.Request.Method)+" "+route]; ok {
			span.SetAttributes(attribute.String("report.operation", op))
		}
		if page := c.GetString("report_page"); page != "" {
			span.SetAttributes(attribute.String("report.page", page))
		}
		if table := c.Param("table"); table != "" {
			span.SetAttributes(attribute.String("report.table", table))
		}
		if cache := c.GetString("report_cache"); cache != "" {
			span.SetAttributes(attribute.String("report.cache", cache))
		}

		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			if lastErr := c.Errors.Last(); lastErr != nil {
				if safeErr := SafeError(lastErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
			span.SetStatus(codes.Error, "request error")
		}
		span.End()
	}
}
