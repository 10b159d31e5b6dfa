package handler

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/labstack/echo/v4"

	"api-proxy-go/internal/apperr"
)

const msgMalformedBody = "Malformed JSON body"

// decodeJSON reads a single JSON document from the request body into v.
// An empty body leaves v untouched. With strict set, unknown fields are
// rejected.
func decodeJSON(c echo.Context, v any, strict bool) error {
	body := c.Request().Body
	if body == nil {
		return nil
	}

	dec := json.NewDecoder(body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		// BodyLimit reports an oversized body through the reader.
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return apperr.Wrap(apperr.KindInvalidInput, msgMalformedBody, err).WithDetails(err.Error())
	}
	return nil
}
