package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"api-proxy-go/internal/model"
	"api-proxy-go/internal/service"
)

// AskHandler serves POST /api/ask.
type AskHandler struct {
	service *service.AskService
	logger  *slog.Logger
}

// NewAskHandler creates an AskHandler.
func NewAskHandler(svc *service.AskService, logger *slog.Logger) *AskHandler {
	return &AskHandler{
		service: svc,
		logger:  logger.With("component", "ask_handler"),
	}
}

// Handle validates the question and returns the model's answer as the body.
func (h *AskHandler) Handle(c echo.Context) error {
	var req model.AskRequest
	if err := decodeJSON(c, &req, true); err != nil {
		return err
	}

	question, err := service.ValidateQuestion(req.Question)
	if err != nil {
		return err
	}

	answer, err := h.service.Ask(c.Request().Context(), question)
	if err != nil {
		return err
	}

	h.logger.Debug("question answered", "question_len", len(question), "answer_bytes", len(answer))
	return c.JSONBlob(http.StatusOK, answer)
}
