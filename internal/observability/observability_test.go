package observability

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
)

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestRequestLoggerRecordsRoutePattern(t *testing.T) {
	metrics := NewMetrics(nil)
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), metrics))
	app.Get("/api/tickets/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/tickets/abc", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	count := testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "/api/tickets/:id", "204"))
	assert.Equal(t, float64(1), count)
}

func TestTicketEventsAreCounted(t *testing.T) {
	metrics := NewMetrics(nil)
	dispatcher := events.NewInMemoryDispatcher()
	SubscribeTicketEvents(dispatcher, zap.NewNop(), metrics)

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketClosed}))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketClosed}))

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.ticketEvents.WithLabelValues("ticket_closed")))
	assert.Equal(t, len(events.AllTypes), testutil.CollectAndCount(metrics.ticketEvents))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.ticketEvents.WithLabelValues("ticket_reopened")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics
	metrics.RecordError("NOT_FOUND")
	metrics.RecordTicketEvent("ticket_created")
	assert.Nil(t, metrics.Registry())
}
