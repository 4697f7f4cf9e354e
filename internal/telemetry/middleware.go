package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "payroll-backoffice-api"

// API groups, used as the api.group attribute on spans and request metrics.
const (
	GroupAuth        = "auth"
	GroupSelfService = "self-service"
	GroupBackOffice  = "back-office"
	GroupOther       = "other"
)

// Identity reads the caller and request IDs that other middleware stored on the context.
// Both may be empty, e.g. on public routes.
type Identity func(c *fiber.Ctx) (employeeID, requestID string)

// APIGroup maps a request path to the route group it belongs to.
func APIGroup(path string) string {
	switch {
	case strings.HasPrefix(path, "/auth/"), strings.HasPrefix(path, "/v1/auth/"):
		return GroupAuth
	case strings.HasPrefix(path, "/v1/me/"):
		return GroupSelfService
	case strings.HasPrefix(path, "/v1/payroll/"):
		return GroupBackOffice
	}
	return GroupOther
}

// FiberMiddleware traces each request and records its duration per API group.
// The span is renamed to the matched route once routing has run, so /v1/payroll/claims/:id
// is one span name rather than one per claim.
func FiberMiddleware(identity Identity) fiber.Handler {
	tracer := otel.Tracer(tracerName)
	propagator := otel.GetTextMapPropagator()
	// instrument creation only fails on invalid names
	duration, _ := otel.Meter(tracerName).Float64Histogram("http.server.request.duration",
		metric.WithDescription("Request latency by API group and status"),
		metric.WithUnit("s"))

	return func(c *fiber.Ctx) error {
		start := time.Now()
		group := APIGroup(c.Path())

		// keep the request logger already stored in the user context
		ctx := propagator.Extract(c.UserContext(), headerCarrier(c))
		ctx, span := tracer.Start(ctx, c.Method()+" "+group,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.target", c.Path()),
				attribute.String("api.group", group),
				attribute.String("http.client_ip", c.IP()),
			),
		)
		defer span.End()

		c.SetUserContext(ctx)
		if span.SpanContext().HasTraceID() {
			c.Set("X-Trace-ID", span.SpanContext().TraceID().String())
		}

		// errors are rendered here so the span records the status the client receives
		err := c.Next()
		if err != nil {
			span.RecordError(err)
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				span.SetStatus(codes.Error, handlerErr.Error())
				return handlerErr
			}
		}

		route := c.Route().Path
		span.SetName(c.Method() + " " + route)
		statusCode := c.Response().StatusCode()
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", statusCode),
		)
		if identity != nil {
			employeeID, requestID := identity(c)
			if employeeID != "" {
				span.SetAttributes(attribute.String("employee.id", employeeID))
			}
			if requestID != "" {
				span.SetAttributes(attribute.String("request.id", requestID))
			}
		}

		if statusCode >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", statusCode))
		} else {
			// 4xx is a caller mistake, not a server fault
			span.SetStatus(codes.Ok, "")
		}

		duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("api.group", group),
			attribute.String("http.method", c.Method()),
			attribute.Int("http.status_code", statusCode),
		))
		return nil
	}
}

// headerCarrier adapts the request headers for propagation.
func headerCarrier(c *fiber.Ctx) propagation.MapCarrier {
	carrier := propagation.MapCarrier{}
	for k, v := range c.GetReqHeaders() {
		if len(v) > 0 {
			carrier[strings.ToLower(k)] = v[0]
		}
	}
	return carrier
}

// SpanFromContext gets the current span from Fiber context
func SpanFromContext(c *fiber.Ctx) trace.Span {
	return trace.SpanFromContext(c.UserContext())
}

// AddSpanEvent adds an event to the current span
func AddSpanEvent(c *fiber.Ctx, name string, attrs ...attribute.KeyValue) {
	SpanFromContext(c).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetSpanAttribute sets an attribute on the current span
func SetSpanAttribute(c *fiber.Ctx, key string, value string) {
	SpanFromContext(c).SetAttributes(attribute.String(key, value))
}
