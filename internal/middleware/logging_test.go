package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"api-proxy-go/internal/apperr"
)

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name       string
		handler    echo.HandlerFunc
		wantStatus int
		wantLevel  string
	}{
		{
			name:       "ok",
			handler:    func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
			wantStatus: http.StatusOK,
			wantLevel:  "INFO",
		},
		{
			name:       "client error from app error",
			handler:    func(echo.Context) error { return apperr.Invalid("question", "Question is required") },
			wantStatus: http.StatusBadRequest,
			wantLevel:  "WARN",
		},
		{
			name:       "server error",
			handler:    func(echo.Context) error { return apperr.New(apperr.KindBadGateway, "upstream") },
			wantStatus: http.StatusBadGateway,
			wantLevel:  "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			e := echo.New()
			e.HTTPErrorHandler = statusErrorHandler
			e.Use(RequestLogger(logger))
			e.GET("/test", tt.handler)

			req := httptest.NewRequest(http.MethodGet, "/test", http.NoBody)
			req.Header.Set("User-Agent", "logger-test")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["status"] != float64(tt.wantStatus) {
				t.Errorf("logged status = %v, want %d", entry["status"], tt.wantStatus)
			}
			if entry["user_agent"] != "logger-test" {
				t.Errorf("user_agent = %v", entry["user_agent"])
			}
		})
	}
}
