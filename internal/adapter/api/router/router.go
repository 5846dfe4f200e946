package router

import (
	"github.com/labstack/echo/v4"

	"supportchat/internal/adapter/api/handler"
	"supportchat/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	chatHandler *handler.ChatHandler,
	messageHandler *handler.MessageHandler,
	feedbackHandler *handler.FeedbackHandler,
	categoryHandler *handler.CategoryHandler,
	wsHandler *handler.WebSocketHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	SetupChatRouter(e, chatHandler, authMiddleware)
	SetupMessageRouter(e, messageHandler, authMiddleware)
	SetupFeedbackRouter(e, feedbackHandler, authMiddleware)
	SetupCategoryRouter(e, categoryHandler)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e)
}
