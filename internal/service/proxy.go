// Package service implements the relay and ask logic behind the HTTP handlers.
package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"api-proxy-go/internal/apperr"
	"api-proxy-go/internal/metrics"
	"api-proxy-go/internal/model"
)

// allowedMethods are the only methods a caller may ask the relay to use.
var allowedMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
}

const (
	msgMethodAndURLRequired = "Method and URL are required"
	msgInvalidMethod        = "Invalid HTTP method"
)

// Dispatcher performs one outbound call. *client.RelayClient implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *model.RelayRequest) model.UpstreamOutcome
}

// ProxyService validates relay requests, dispatches them and classifies
// the outcome into the document written back to the caller.
type ProxyService struct {
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewProxyService creates a ProxyService.
// The metrics parameter is optional.
func NewProxyService(d Dispatcher, logger *slog.Logger, m *metrics.Metrics) *ProxyService {
	return &ProxyService{
		dispatcher: d,
		logger:     logger.With("component", "proxy_service"),
		metrics:    m,
	}
}

// Normalize validates req and returns a copy with the method upper-cased
// and defaults applied. Failures are KindInvalidInput errors whose message
// is safe to show to the caller.
func Normalize(req *model.RelayRequest) (*model.RelayRequest, error) {
	if req == nil || req.Method == "" || req.URL == "" {
		return nil, apperr.New(apperr.KindInvalidInput, msgMethodAndURLRequired)
	}

	method := strings.ToUpper(req.Method)
	if !allowedMethods[method] {
		return nil, apperr.New(apperr.KindInvalidInput, msgInvalidMethod)
	}

	out := &model.RelayRequest{
		Method:  method,
		URL:     req.URL,
		Headers: req.Headers,
		Params:  req.Params,
		Data:    req.Data,
	}
	if out.Headers == nil {
		out.Headers = model.StringMap{}
	}
	if out.Params == nil {
		out.Params = model.Query{}
	}
	if out.Data.IsFalsy() {
		out.Data = model.EmptyObject()
	}
	return out, nil
}

// Relay runs one relay exchange. The returned error is non-nil only when
// req fails validation; every upstream outcome becomes a RelayResult.
func (s *ProxyService) Relay(ctx context.Context, req *model.RelayRequest) (*model.RelayResult, error) {
	norm, err := Normalize(req)
	if err != nil {
		return nil, err
	}

	outcome := s.dispatcher.Dispatch(ctx, norm)
	label := model.OutcomeLabel(outcome)
	s.metrics.CountRelayOutcome(label)

	result := Classify(outcome)

	attrs := []any{
		"method", norm.Method,
		"target", targetHost(norm.URL),
		"outcome", label,
		"status", result.Status,
	}
	switch o := outcome.(type) {
	case *model.Success:
		s.logger.Debug("relay completed", attrs...)
	case *model.UpstreamError:
		s.logger.Warn("relay upstream error", append(attrs, "error", o.Err)...)
	case *model.NoResponse:
		s.logger.Warn("relay got no response", append(attrs, "error", o.Err)...)
	case *model.Failure:
		s.logger.Error("relay request failed", append(attrs, "error", o.Err)...)
	}

	return &result, nil
}

// targetHost returns only the host of a target URL so query strings, which
// often carry credentials, never reach the logs.
func targetHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Host
}
