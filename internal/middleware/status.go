package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"api-proxy-go/internal/apperr"
)

// resolveStatus returns the status the client will see. When a handler
// returns an error, the response has not been written yet; the central
// error handler writes it after the middleware chain unwinds.
func resolveStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if _, ok := apperr.As(err); !ok && errors.As(err, &he) {
		return apperr.KindFromStatus(he.Code).Status()
	}
	return apperr.KindOf(err).Status()
}
