package handler

import (
	"github.com/labstack/echo/v4"

	"supportchat/internal/usecase"
	"supportchat/pkg/response"
)

type CategoryHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewCategoryHandler(chatUseCase *usecase.ChatUseCase) *CategoryHandler {
	return &CategoryHandler{
		chatUseCase: chatUseCase,
	}
}

// Active lists the service topics offered to new chats.
func (h *CategoryHandler) Active(c echo.Context) error {
	categories, err := h.chatUseCase.Categories(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, categories)
}
