package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/skill-swap/skillswap/internal/config"
)

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/users/:id", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/users/:id", "GET", 200, 30*time.Millisecond)
	m.RecordError("/auth/login", "POST", "ACCOUNT_LOCKED")

	snap := m.Snapshot()
	require.Len(t, snap.Requests, 1)
	assert.Equal(t, "/users/:id|GET|200", snap.Requests[0].Key)
	assert.EqualValues(t, 2, snap.Requests[0].Count)
	assert.InDelta(t, 20.0, snap.Requests[0].AvgLatencyMS, 0.01)
	assert.Equal(t, []ErrorStat{{Key: "/auth/login|POST|ACCOUNT_LOCKED", Count: 1}}, snap.Errors)

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/", "GET", 200, 0)
	assert.Empty(t, nilMetrics.Snapshot().Requests)
}

func TestRequestLoggerUsesRoutePattern(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/users/:id", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/users/42", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "/users/:id", entry.ContextMap()["route"])
	assert.Equal(t, "/users/:id|GET|204", metrics.Snapshot().Requests[0].Key)
}
