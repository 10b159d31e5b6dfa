// Package client provides the outbound HTTP clients: the relay dispatcher
// and the chat completion provider client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"

	"api-proxy-go/internal/config"
	"api-proxy-go/internal/metrics"
	"api-proxy-go/internal/model"
)

// ErrResponseTooLarge is reported when an upstream body exceeds relay.max_response_bytes.
var ErrResponseTooLarge = errors.New("upstream response body too large")

// bodylessMethods never carry a request body.
var bodylessMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// RelayClient performs the single outbound call behind POST /api/proxy.
// Any HTTP status is a response; only transport failures are errors.
type RelayClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	maxBody    int64
	userAgent  string
}

// NewRelayClient creates a RelayClient with connection pooling and a hard timeout.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewRelayClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *RelayClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Relay.IdleConnections,
		MaxIdleConnsPerHost: cfg.Relay.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &RelayClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Relay.Timeout(),
		},
		logger:    logger.With("component", "relay_client"),
		metrics:   m,
		maxBody:   cfg.Relay.MaxResponseBytes,
		userAgent: cfg.Relay.UserAgent,
	}
}

// Dispatch issues exactly one outbound request for req and reports how it ended.
// It never returns nil.
func (c *RelayClient) Dispatch(ctx context.Context, req *model.RelayRequest) model.UpstreamOutcome {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return &model.Failure{Err: err}
	}

	c.logger.Debug("upstream request",
		"method", httpReq.Method,
		"host", httpReq.URL.Host,
		"path", httpReq.URL.Path,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	c.metrics.ObserveUpstream(httpReq.Method, time.Since(start))

	if err != nil {
		if resp != nil {
			// net/http returns the last response alongside a redirect policy
			// failure; its body has already been drained and closed.
			c.metrics.CountUpstreamResponse(httpReq.Method, resp.StatusCode)
			return &model.UpstreamError{Response: toUpstreamResponse(resp, model.Body{}), Err: err}
		}
		return &model.NoResponse{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.metrics.CountUpstreamResponse(httpReq.Method, resp.StatusCode)

	payload, err := readLimited(resp.Body, c.maxBody)
	if err != nil {
		err = fmt.Errorf("read upstream body: %w", err)
		// The client timeout and the caller's context also cover the body.
		if interrupted(err) {
			return &model.NoResponse{Err: err}
		}
		return &model.UpstreamError{
			Response: toUpstreamResponse(resp, model.Body{}),
			Err:      err,
		}
	}

	return &model.Success{Response: toUpstreamResponse(resp, model.DecodeResponseBody(payload))}
}

// build turns a normalized RelayRequest into an *http.Request.
func (c *RelayClient) build(ctx context.Context, req *model.RelayRequest) (*http.Request, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported protocol scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("url %q has no host", req.URL)
	}

	if len(req.Params) > 0 {
		q := u.Query()
		for k, vs := range req.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, v := range req.Headers {
		if !httpguts.ValidHeaderFieldName(k) {
			return nil, fmt.Errorf("invalid header name %q", k)
		}
		if !httpguts.ValidHeaderFieldValue(v) {
			return nil, fmt.Errorf("invalid value for header %q", k)
		}
		if strings.EqualFold(k, "Host") {
			httpReq.Host = v
			continue
		}
		httpReq.Header.Set(k, v)
	}
	return httpReq, nil
}

// encodeBody serializes req.Data. It returns a nil reader for bodyless
// methods and absent data. The content type is only a default; caller
// headers win.
func encodeBody(req *model.RelayRequest) (io.Reader, string, error) {
	if bodylessMethods[req.Method] {
		return nil, "", nil
	}

	data := req.Data
	switch data.Kind {
	case model.BodyText:
		return strings.NewReader(data.Text), "text/plain; charset=utf-8", nil
	case model.BodyBytes:
		return bytes.NewReader(data.Bytes), "application/octet-stream", nil
	case model.BodyStructured:
		if isFormContentType(req.Headers) && strings.HasPrefix(strings.TrimSpace(string(data.JSON)), "{") {
			form, err := formEncode(data.JSON)
			if err != nil {
				return nil, "", err
			}
			return strings.NewReader(form), "application/x-www-form-urlencoded", nil
		}
		return bytes.NewReader(data.JSON), "application/json", nil
	default:
		return nil, "", nil
	}
}

func isFormContentType(headers model.StringMap) bool {
	for k, v := range headers {
		if strings.EqualFold(k, "Content-Type") {
			return strings.HasPrefix(strings.ToLower(strings.TrimSpace(v)), "application/x-www-form-urlencoded")
		}
	}
	return false
}

// formEncode flattens a JSON object into an urlencoded form.
func formEncode(raw json.RawMessage) (string, error) {
	var fields model.StringMap
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", fmt.Errorf("encode form body: %w", err)
	}
	form := make(url.Values, len(fields))
	for k, v := range fields {
		form.Set(k, v)
	}
	return form.Encode(), nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, limit)
	}
	return data, nil
}

// interrupted reports whether err comes from a timeout or a cancelled context.
func interrupted(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

func toUpstreamResponse(resp *http.Response, body model.Body) model.UpstreamResponse {
	return model.UpstreamResponse{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Header:     resp.Header,
		Body:       body,
	}
}

// statusText extracts the reason phrase from the status line, falling back to
// the standard text when the upstream sent none (HTTP/2 never does).
func statusText(resp *http.Response) string {
	if rest, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)); ok {
		if text := strings.TrimSpace(rest); text != "" {
			return text
		}
	}
	return http.StatusText(resp.StatusCode)
}
