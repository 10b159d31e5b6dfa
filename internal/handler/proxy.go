package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"api-proxy-go/internal/apperr"
	"api-proxy-go/internal/model"
	"api-proxy-go/internal/service"
)

// ProxyHandler serves POST /api/proxy.
type ProxyHandler struct {
	service *service.ProxyService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ProxyService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle relays the described request and writes the classified result.
// Validation failures are answered with a plain {"error": message}.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req, err := decodeRelayRequest(c)
	if err != nil {
		return err
	}

	res, err := h.service.Relay(c.Request().Context(), req)
	if err != nil {
		if ae, ok := apperr.As(err); ok && ae.Kind == apperr.KindInvalidInput {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": ae.Message})
		}
		return err
	}

	if !bodyAllowed(res.Status) {
		return c.NoContent(res.Status)
	}
	return c.JSON(res.Status, res.Body)
}

// decodeRelayRequest accepts a JSON body or an urlencoded form. Form fields
// use bracket keys for maps: headers[Name]=v, params[q]=v (repeatable, also
// params[q][]=v) and data[field]=v. A plain data field is sent as text.
func decodeRelayRequest(c echo.Context) (*model.RelayRequest, error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(strings.ToLower(ct), echo.MIMEApplicationForm) {
		var req model.RelayRequest
		if err := decodeJSON(c, &req, false); err != nil {
			return nil, err
		}
		return &req, nil
	}

	form, err := c.FormParams()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidInput, "Malformed form body", err)
	}

	req := &model.RelayRequest{
		Method: form.Get("method"),
		URL:    form.Get("url"),
	}
	fields := map[string]string{}
	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		prefix, name, ok := bracketKey(key)
		if !ok {
			continue
		}
		switch prefix {
		case "headers":
			if req.Headers == nil {
				req.Headers = model.StringMap{}
			}
			req.Headers[name] = values[len(values)-1]
		case "params":
			if req.Params == nil {
				req.Params = model.Query{}
			}
			req.Params[name] = append(req.Params[name], values...)
		case "data":
			fields[name] = values[len(values)-1]
		}
	}

	switch {
	case len(fields) > 0:
		raw, err := json.Marshal(fields)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "encode form data", err)
		}
		req.Data = model.StructuredBody(raw)
	case form.Get("data") != "":
		req.Data = model.TextBody(form.Get("data"))
	}
	return req, nil
}

// bracketKey splits "headers[Accept]" into ("headers", "Accept"). A trailing
// "[]" is ignored.
func bracketKey(key string) (prefix, name string, ok bool) {
	key = strings.TrimSuffix(key, "[]")
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return "", "", false
	}
	name = key[open+1 : len(key)-1]
	if name == "" {
		return "", "", false
	}
	return key[:open], name, true
}

// bodyAllowed reports whether a response with the given status may carry a body.
func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status < 200:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}
