package handler

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"

	"supportchat/internal/domain/entity"
	"supportchat/internal/domain/repository"
	"supportchat/internal/usecase"
	"supportchat/pkg/errors"
	"supportchat/pkg/response"
	"supportchat/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type createChatRequest struct {
	Category string `json:"category" validate:"required"`
}

type createChatResponse struct {
	ChatID    entity.ChatID `json:"chatId"`
	SessionID string        `json:"sessionId,omitempty"`
	Chat      *entity.Chat  `json:"chat"`
}

// Create opens a new chat for the authenticated participant.
func (h *ChatHandler) Create(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.CreateChat(c.Request().Context(), usecase.CreateChatInput{
		Category: req.Category,
		UserID:   c.Get("uid").(string),
		UserName: c.Get("name").(string),
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, createChatResponse{ChatID: chat.ID, Chat: chat})
}

// CreateGuest opens a chat for an anonymous participant and returns
// the session token that scopes all further guest access.
func (h *ChatHandler) CreateGuest(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chat, sessionID, err := h.chatUseCase.CreateGuestChat(c.Request().Context(), req.Category)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, createChatResponse{ChatID: chat.ID, SessionID: sessionID, Chat: chat})
}

// History lists the authenticated participant's prior chats.
func (h *ChatHandler) History(c echo.Context) error {
	chats, err := h.chatUseCase.History(c.Request().Context(), c.Get("uid").(string))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, chats)
}

// SessionChat resolves a guest session token to its chat.
func (h *ChatHandler) SessionChat(c echo.Context) error {
	chat, err := h.chatUseCase.SessionChat(c.Request().Context(), c.Param("sessionId"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, chat)
}

// AdminAll is the agent-facing filtered chat list. Accepts optional
// page/limit query parameters.
func (h *ChatHandler) AdminAll(c echo.Context) error {
	chats, err := h.chatUseCase.AdminList(c.Request().Context(), repository.ChatFilter{
		Status:   c.QueryParam("status"),
		Category: c.QueryParam("category"),
		AdminID:  c.QueryParam("adminId"),
	})
	if err != nil {
		return response.Error(c, err)
	}

	lo, hi := utils.GetPaginationParams(c, 100).Bound(len(chats))
	return response.Success(c, chats[lo:hi])
}

// Claim assigns the chat exclusively to the calling agent.
func (h *ChatHandler) Claim(c echo.Context) error {
	chatID, err := parseChatID(c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	chat, err := h.chatUseCase.Claim(c.Request().Context(), chatID, c.Get("uid").(string), c.Get("name").(string))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, chat)
}

// Solve marks the chat solved.
func (h *ChatHandler) Solve(c echo.Context) error {
	return h.transition(c, h.chatUseCase.Solve)
}

// Close closes the chat.
func (h *ChatHandler) Close(c echo.Context) error {
	return h.transition(c, h.chatUseCase.Close)
}

func (h *ChatHandler) transition(c echo.Context, apply func(ctx context.Context, chatID entity.ChatID, adminID string) (*entity.Chat, error)) error {
	chatID, err := parseChatID(c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	chat, err := apply(c.Request().Context(), chatID, c.Get("uid").(string))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, chat)
}

// AdminStats aggregates chat counts per agent.
func (h *ChatHandler) AdminStats(c echo.Context) error {
	stats, err := h.chatUseCase.AdminStats(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, stats)
}

// SuperAdminStats is the full aggregate view.
func (h *ChatHandler) SuperAdminStats(c echo.Context) error {
	stats, err := h.chatUseCase.OverallStats(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, stats)
}

func parseChatID(raw string) (entity.ChatID, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.BadRequest("Invalid chat id", err)
	}
	return entity.ChatID(n), nil
}
