package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"api-proxy-go/internal/apperr"
)

const msgCORSRejected = "CORS not allowed for this origin"

// CORS returns an Echo middleware that rejects browser requests from origins
// outside allowed with 403, then applies echo's CORS handling for the rest.
// Requests without an Origin header are always allowed. A "*" entry allows
// every origin.
func CORS(allowed []string, logger *slog.Logger) echo.MiddlewareFunc {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	wildcard := set["*"]

	cors := echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  allowed,
		AllowMethods:  []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		withCORS := cors(next)
		return func(c echo.Context) error {
			origin := c.Request().Header.Get(echo.HeaderOrigin)
			if origin == "" {
				return next(c)
			}
			if !wildcard && !set[origin] {
				logger.Warn("cors origin rejected", "origin", origin, "path", c.Request().URL.Path)
				return apperr.New(apperr.KindForbidden, msgCORSRejected)
			}
			return withCORS(c)
		}
	}
}
