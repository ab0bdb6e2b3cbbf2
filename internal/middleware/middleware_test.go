package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"facegram/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestContextMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", uint(42))
		return c.Next()
	})
	app.Use(ContextMiddleware())
	app.Get("/ctx", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		rid, _ := ctx.Value(observability.RequestIDKey).(string)
		uid, _ := ctx.Value(observability.UserIDKey).(uint)
		return c.JSON(fiber.Map{"rid": rid, "uid": uid})
	})

	req := httptest.NewRequest(http.MethodGet, "/ctx", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-123")
	resp, err := app.Test(req)
	require.NoError(t, err)

	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"rid":"req-123","uid":42}`, string(body))
}

func TestStructuredLogger(t *testing.T) {
	app := fiber.New()
	app.Use(StructuredLogger())
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/fail", func(c *fiber.Ctx) error { return fiber.ErrTeapot })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestTracingMiddleware(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	prevTracer, prevProp := observability.Tracer, otel.GetTextMapPropagator()
	observability.Tracer = tp.Tracer("test")
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		observability.Tracer = prevTracer
		otel.SetTextMapPropagator(prevProp)
		_ = tp.Shutdown(t.Context())
	})

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/traced", func(c *fiber.Ctx) error {
		tid, _ := c.UserContext().Value(observability.TraceIDKey).(string)
		return c.SendString(tid)
	})

	t.Run("starts a new trace", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/traced", nil))
		require.NoError(t, err)

		traceID := resp.Header.Get("X-Trace-ID")
		assert.Len(t, traceID, 32)
		assert.NotEqual(t, "00000000000000000000000000000000", traceID)

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, traceID, string(body))
	})

	t.Run("continues an incoming w3c trace", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/traced", nil)
		req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", resp.Header.Get("X-Trace-ID"))
	})
}
