package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"api-proxy-go/internal/apperr"
	"api-proxy-go/internal/config"
)

// ErrorResponse is the envelope written for every error that reaches the
// echo error handler.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Status  int         `json:"status"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code and the caller-facing message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

const msgInternal = "Internal Server Error"

// NewErrorHandler returns the echo.HTTPErrorHandler that renders *apperr.Error
// and *echo.HTTPError values as an ErrorResponse. Messages and details of
// internal errors are hidden unless server.expose_errors is set.
func NewErrorHandler(cfg *config.Config, logger *slog.Logger) echo.HTTPErrorHandler {
	logger = logger.With("component", "error_handler")
	expose := cfg.Server.ExposeErrors

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		ae := toAppError(err)
		status := ae.Kind.Status()

		detail := ErrorDetail{
			Code:    ae.Kind.Code(),
			Message: ae.Message,
			Details: ae.Details,
		}
		if ae.Kind == apperr.KindInternal {
			logger.Error("unhandled error",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"err", err,
			)
			if !expose {
				detail.Message = msgInternal
				detail.Details = nil
			}
		}
		if expose && detail.Details == nil && ae.Err != nil {
			detail.Details = ae.Err.Error()
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, ErrorResponse{Success: false, Status: status, Error: detail})
		}
		if werr != nil {
			logger.Error("writing error response", "err", werr)
		}
	}
}

// toAppError converts any error into an *apperr.Error. Framework errors are
// classified by their status code.
func toAppError(err error) *apperr.Error {
	if ae, ok := apperr.As(err); ok {
		return ae
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		return apperr.Wrap(apperr.KindFromStatus(he.Code), msg, he.Internal)
	}

	return apperr.Wrap(apperr.KindInternal, msgInternal, err)
}
