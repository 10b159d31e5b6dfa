package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"api-proxy-go/internal/config"
	"api-proxy-go/internal/metrics"
	"api-proxy-go/internal/model"
)

// ErrMissingAPIKey is returned when no LLM API key is configured.
var ErrMissingAPIKey = errors.New("llm api key is not configured: set llm.api_key or GROQ_API_KEY")

// maxProviderBody caps how much of a provider response is read.
const maxProviderBody = 4 << 20

// ProviderError is a non-2xx answer from the chat completion provider.
type ProviderError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("llm provider returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("llm provider returned %d: %s", e.StatusCode, e.Message)
}

// ChatClient calls an OpenAI-compatible chat completions endpoint.
type ChatClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewChatClient creates a ChatClient for the configured provider.
// The metrics parameter is optional.
func NewChatClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *ChatClient {
	return &ChatClient{
		httpClient: &http.Client{Timeout: cfg.LLM.Timeout()},
		endpoint:   strings.TrimRight(cfg.LLM.BaseURL, "/") + "/chat/completions",
		apiKey:     cfg.LLM.APIKey,
		model:      cfg.LLM.Model,
		logger:     logger.With("component", "chat_client"),
		metrics:    m,
	}
}

// Complete sends messages to the provider and returns the decoded response.
func (c *ChatClient) Complete(ctx context.Context, messages []model.ChatMessage) (*model.ChatCompletionResponse, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(model.ChatCompletionRequest{Model: c.model, Messages: messages})
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveLLM("transport_error", time.Since(start))
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if err != nil {
		c.metrics.ObserveLLM("transport_error", time.Since(start))
		return nil, fmt.Errorf("read chat response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.ObserveLLM("http_error", time.Since(start))
		perr := &ProviderError{StatusCode: resp.StatusCode}
		perr.Message, perr.Code = parseProviderError(body)
		if perr.Message == "" {
			perr.Message = http.StatusText(resp.StatusCode)
		}
		c.logger.Warn("chat provider error", "status", resp.StatusCode, "code", perr.Code)
		return nil, perr
	}

	var out model.ChatCompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		c.metrics.ObserveLLM("decode_error", time.Since(start))
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	c.metrics.ObserveLLM("ok", time.Since(start))

	c.logger.Debug("chat completion",
		"model", out.Model,
		"choices", len(out.Choices),
	)
	return &out, nil
}

// providerErrorEnvelope is the OpenAI-style {"error": {...}} body.
type providerErrorEnvelope struct {
	Error *struct {
		Message string          `json:"message"`
		Type    string          `json:"type"`
		Code    json.RawMessage `json:"code"`
	} `json:"error"`
}

func parseProviderError(raw []byte) (message, code string) {
	var env providerErrorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Error == nil {
		return "", ""
	}
	message = env.Error.Message
	switch c := bytes.TrimSpace(env.Error.Code); {
	case len(c) == 0 || string(c) == "null":
		code = env.Error.Type
	case c[0] == '"':
		_ = json.Unmarshal(c, &code)
	default:
		code = string(c)
	}
	return message, code
}
