package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"api-proxy-go/internal/apperr"
)

// RateLimiter returns a per-client-IP token bucket limiter allowing rps
// requests per second with a burst of the same size (at least 1).
// Rejections surface as KindTooManyRequests errors.
func RateLimiter(rps float64) echo.MiddlewareFunc {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}

	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(rps),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store:               store,
		IdentifierExtractor: clientIP,
		ErrorHandler:        identifyFailed,
		DenyHandler:         denied,
	})
}

func clientIP(c echo.Context) (string, error) {
	return c.RealIP(), nil
}

func identifyFailed(_ echo.Context, err error) error {
	return apperr.Wrap(apperr.KindForbidden, "Unable to identify client", err)
}

func denied(_ echo.Context, _ string, err error) error {
	return apperr.Wrap(apperr.KindTooManyRequests, "Too many requests, please try again later", err)
}
