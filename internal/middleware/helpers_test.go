package middleware

import (
	"github.com/labstack/echo/v4"
)

// statusErrorHandler writes the status resolveStatus derives from err,
// standing in for the application error handler.
func statusErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	_ = c.NoContent(resolveStatus(c, err))
}
