package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"api-proxy-go/internal/config"
)

func TestRegisterRoutes_Wiring(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	e := newTestServer(t, testConfig("", ""))

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"GET /", http.MethodGet, "/", "", http.StatusOK},
		{"GET /healthz", http.MethodGet, "/healthz", "", http.StatusOK},
		{"GET /proxy/status", http.MethodGet, "/proxy/status", "", http.StatusOK},
		{"GET /metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"POST /api/proxy", http.MethodPost, "/api/proxy", `{"method":"GET","url":"` + upstream.URL + `"}`, http.StatusOK},
		{"POST /api/ask validates", http.MethodPost, "/api/ask", `{"question":""}`, http.StatusBadRequest},
		{"GET /api/proxy not allowed", http.MethodGet, "/api/proxy", "", http.StatusMethodNotAllowed},
		{"GET /unknown", http.MethodGet, "/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, tt.method, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestRegisterRoutes_MetricsDisabled(t *testing.T) {
	cfg := testConfig("", "")
	cfg.Metrics = config.MetricsConfig{Enabled: false, Path: "/metrics"}
	e := newTestServer(t, cfg)

	rec := doJSON(e, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when metrics are disabled", rec.Code)
	}
}

func TestRegisterRoutes_MetricsExposition(t *testing.T) {
	e := newTestServer(t, testConfig("", ""))

	// Generate one relay outcome so the counter family is present.
	_ = doJSON(e, http.MethodPost, "/api/proxy", `{"method":"GET","url":"ftp://example.com"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `api_proxy_relay_outcomes_total{outcome="failure"} 1`) {
		t.Errorf("metrics output missing relay outcome counter:\n%s", rec.Body.String())
	}
	if ct := rec.Header().Get(echo.HeaderContentType); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text exposition format", ct)
	}
}
