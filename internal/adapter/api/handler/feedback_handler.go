package handler

import (
	"github.com/labstack/echo/v4"

	"supportchat/internal/usecase"
	"supportchat/pkg/response"
)

type FeedbackHandler struct {
	feedbackUseCase *usecase.FeedbackUseCase
}

func NewFeedbackHandler(feedbackUseCase *usecase.FeedbackUseCase) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackUseCase: feedbackUseCase,
	}
}

type submitFeedbackRequest struct {
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment"`
	SessionID string `json:"sessionId"`
}

// Submit records feedback for a terminal chat. Guests authenticate by
// session token in the body; logged-in participants by bearer token.
func (h *FeedbackHandler) Submit(c echo.Context) error {
	chatID, err := parseChatID(c.Param("chatId"))
	if err != nil {
		return response.Error(c, err)
	}

	var req submitFeedbackRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID, _ := c.Get("uid").(string)

	feedback, err := h.feedbackUseCase.Submit(c.Request().Context(), usecase.SubmitFeedbackInput{
		ChatID:    chatID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		UserID:    userID,
		SessionID: req.SessionID,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, feedback)
}
