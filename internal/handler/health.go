package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"api-proxy-go/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves the root document, health and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

type rootDocument struct {
	Message   string                 `json:"message"`
	Endpoints map[string]endpointDoc `json:"endpoints"`
}

type endpointDoc struct {
	Method      string            `json:"method"`
	URL         string            `json:"url"`
	Description string            `json:"description"`
	Body        map[string]string `json:"body"`
	Response    map[string]string `json:"response"`
}

var apiDocument = rootDocument{
	Message: "Welcome to the API Proxy Backend",
	Endpoints: map[string]endpointDoc{
		"proxy": {
			Method:      http.MethodPost,
			URL:         "/api/proxy",
			Description: "Proxy any API request",
			Body: map[string]string{
				"method":  "HTTP method (GET, POST, etc.)",
				"url":     "Target API URL",
				"headers": "Optional headers as key-value pairs",
				"params":  "Optional query parameters as key-value pairs",
				"data":    "Optional request body for POST/PUT requests",
			},
			Response: map[string]string{
				"status":     "HTTP status code of the response",
				"statusText": "Status text of the response",
				"headers":    "Response headers as key-value pairs",
				"json":       "JSON response body (if applicable)",
				"raw":        "Raw response body",
				"html":       "HTML response body (if applicable)",
			},
		},
		"ask": {
			Method:      http.MethodPost,
			URL:         "/api/ask",
			Description: "Explain a technical concept for interview preparation",
			Body: map[string]string{
				"question": "Question between 5 and 1000 characters",
			},
			Response: map[string]string{
				"explanation":       "Simple and precise explanation",
				"realWorldAnalogy":  "Real-world analogy",
				"codeExample":       "Code example",
				"visualExplanation": "Text-based visual explanation",
			},
		},
	},
}

// Root describes the available endpoints.
func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, apiDocument)
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns proxy status information.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":                "ok",
		"version":               string(h.version),
		"relay_timeout_seconds": h.cfg.Relay.TimeoutSeconds,
		"llm_model":             h.cfg.LLM.Model,
		"llm_configured":        h.cfg.LLM.APIKey != "",
	})
}
