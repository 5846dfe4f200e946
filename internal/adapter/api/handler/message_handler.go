package handler

import (
	"github.com/labstack/echo/v4"

	"supportchat/internal/domain/entity"
	"supportchat/internal/usecase"
	"supportchat/pkg/errors"
	"supportchat/pkg/response"
	"supportchat/pkg/utils"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

// ListByChat returns the ordered message history for a chat. Accepts
// optional page/limit query parameters.
func (h *MessageHandler) ListByChat(c echo.Context) error {
	chatID, err := parseChatID(c.Param("chatId"))
	if err != nil {
		return response.Error(c, err)
	}

	messages, err := h.messageUseCase.ListByChat(c.Request().Context(), chatID)
	if err != nil {
		return response.Error(c, err)
	}

	lo, hi := utils.GetPaginationParams(c, 500).Bound(len(messages))
	return response.Success(c, messages[lo:hi])
}

// Send handles message submission from an authenticated user.
// Multipart body: chatId, optional content, optional image.
func (h *MessageHandler) Send(c echo.Context) error {
	input, err := h.bindSend(c)
	if err != nil {
		return response.Error(c, err)
	}
	input.SenderType = entity.SenderUser
	input.SenderID = c.Get("uid").(string)
	input.SenderName = c.Get("name").(string)

	return h.send(c, input)
}

// SendGuest handles message submission scoped by a guest session
// token carried as a form field.
func (h *MessageHandler) SendGuest(c echo.Context) error {
	input, err := h.bindSend(c)
	if err != nil {
		return response.Error(c, err)
	}

	sessionID := c.FormValue("sessionId")
	if sessionID == "" {
		return response.Error(c, errors.BadRequest("sessionId is required", nil))
	}
	input.SenderType = entity.SenderUser
	input.SenderID = sessionID
	input.SenderName = "Guest"
	input.SessionID = sessionID

	return h.send(c, input)
}

// SendAdmin handles agent replies.
func (h *MessageHandler) SendAdmin(c echo.Context) error {
	input, err := h.bindSend(c)
	if err != nil {
		return response.Error(c, err)
	}
	input.SenderType = entity.SenderAdmin
	input.SenderID = c.Get("uid").(string)
	input.SenderName = c.Get("name").(string)

	return h.send(c, input)
}

func (h *MessageHandler) send(c echo.Context, input usecase.SendMessageInput) error {
	message, err := h.messageUseCase.Send(c.Request().Context(), input)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, message)
}

func (h *MessageHandler) bindSend(c echo.Context) (usecase.SendMessageInput, error) {
	var input usecase.SendMessageInput

	chatID, err := parseChatID(c.FormValue("chatId"))
	if err != nil {
		return input, err
	}
	input.ChatID = chatID
	input.Content = c.FormValue("content")

	fileHeader, err := c.FormFile("image")
	if err != nil {
		// No attachment; content-only submissions are validated
		// downstream.
		return input, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return input, errors.BadRequest("Failed to read upload", err)
	}
	// Closed by the request lifecycle once the handler returns.
	input.Attachment = &usecase.Attachment{
		FileName: fileHeader.Filename,
		Size:     fileHeader.Size,
		Reader:   file,
	}
	return input, nil
}
