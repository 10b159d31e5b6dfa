package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"api-proxy-go/internal/client"
	"api-proxy-go/internal/config"
	"api-proxy-go/internal/metrics"
	"api-proxy-go/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(llmBaseURL, apiKey string) *config.Config {
	return &config.Config{
		Relay: config.RelayConfig{
			TimeoutSeconds:   5,
			IdleConnections:  10,
			MaxResponseBytes: 1 << 20,
			UserAgent:        "api-proxy-test",
		},
		LLM: config.LLMConfig{
			BaseURL:        llmBaseURL,
			APIKey:         apiKey,
			Model:          "test-model",
			TimeoutSeconds: 5,
			SystemPrompt:   config.DefaultSystemPrompt,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// newTestServer builds an Echo instance wired the way main wires it,
// minus the middleware stack.
func newTestServer(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()
	logger := discardLogger()
	m := metrics.New()

	proxySvc := service.NewProxyService(client.NewRelayClient(cfg, logger, m), logger, m)
	askSvc := service.NewAskService(client.NewChatClient(cfg, logger, m), cfg, logger)

	e := echo.New()
	e.HTTPErrorHandler = NewErrorHandler(cfg, logger)
	RegisterRoutes(e, cfg, m,
		NewProxyHandler(proxySvc, logger),
		NewAskHandler(askSvc, logger),
		NewHealthHandler(cfg, "test"),
	)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
