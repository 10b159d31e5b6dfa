package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"strings"
	"unicode/utf8"

	"api-proxy-go/internal/apperr"
	"api-proxy-go/internal/client"
	"api-proxy-go/internal/config"
	"api-proxy-go/internal/model"
)

const (
	minQuestionLen = 5
	maxQuestionLen = 1000

	// questionPlaceholder in the system prompt is replaced by the question.
	questionPlaceholder = "{{USER_QUESTION}}"
)

// ChatCompleter sends a conversation to a chat model. *client.ChatClient implements it.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []model.ChatMessage) (*model.ChatCompletionResponse, error)
}

// AskService answers interview-style questions through the chat provider.
type AskService struct {
	chat         ChatCompleter
	systemPrompt string
	logger       *slog.Logger
}

// NewAskService creates an AskService.
func NewAskService(chat ChatCompleter, cfg *config.Config, logger *slog.Logger) *AskService {
	return &AskService{
		chat:         chat,
		systemPrompt: cfg.LLM.SystemPrompt,
		logger:       logger.With("component", "ask_service"),
	}
}

// ValidateQuestion checks presence and length of the question, counted in
// characters after trimming surrounding whitespace.
func ValidateQuestion(q *string) (string, error) {
	if q == nil || strings.TrimSpace(*q) == "" {
		return "", apperr.Invalid("question", "Question is required")
	}
	question := strings.TrimSpace(*q)
	switch n := utf8.RuneCountInString(question); {
	case n < minQuestionLen:
		return "", apperr.Invalid("question", "Question must be at least 5 characters long")
	case n > maxQuestionLen:
		return "", apperr.Invalid("question", "Question must be at most 1000 characters long")
	}
	return question, nil
}

// Ask sends the question to the model and returns its answer as a JSON
// document. Answers that are valid JSON are returned as-is, anything else
// is returned as a JSON string. A reply without content yields null.
func (s *AskService) Ask(ctx context.Context, question string) (json.RawMessage, error) {
	messages := []model.ChatMessage{
		{Role: "system", Content: strings.ReplaceAll(s.systemPrompt, questionPlaceholder, question)},
		{Role: "user", Content: question},
	}

	resp, err := s.chat.Complete(ctx, messages)
	if err != nil {
		return nil, s.mapError(err)
	}

	if len(resp.Choices) == 0 {
		s.logger.Warn("chat completion returned no choices", "model", resp.Model)
		return json.RawMessage("null"), nil
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return json.RawMessage("null"), nil
	}
	if json.Valid([]byte(content)) {
		return json.RawMessage(content), nil
	}

	s.logger.Debug("chat completion returned non-JSON content", "length", len(content))
	encoded, err := json.Marshal(content)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "encode answer", err)
	}
	return encoded, nil
}

func (s *AskService) mapError(err error) error {
	var perr *client.ProviderError
	var nerr net.Error

	switch {
	case errors.Is(err, client.ErrMissingAPIKey):
		s.logger.Error("ask rejected: provider not configured")
		return apperr.Wrap(apperr.KindServiceUnavailable, "LLM provider is not configured", err)
	case errors.As(err, &perr):
		return apperr.Wrap(apperr.KindBadGateway, "LLM provider returned an error", err).
			WithDetails(map[string]any{
				"status":  perr.StatusCode,
				"code":    perr.Code,
				"message": perr.Message,
			})
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &nerr) && nerr.Timeout():
		s.logger.Warn("chat provider timed out", "error", err)
		return apperr.Wrap(apperr.KindGatewayTimeout, "LLM provider timed out", err)
	default:
		s.logger.Error("chat provider request failed", "error", err)
		return apperr.Wrap(apperr.KindBadGateway, "LLM provider request failed", err)
	}
}
