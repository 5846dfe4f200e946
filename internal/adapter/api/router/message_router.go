package router

import (
	"github.com/labstack/echo/v4"

	"supportchat/internal/adapter/api/handler"
	"supportchat/internal/adapter/api/middleware"
)

// SetupMessageRouter wires message history and submission routes.
func SetupMessageRouter(e *echo.Echo, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	e.GET("/messages/chat/:chatId", messageHandler.ListByChat)

	e.POST("/messages", messageHandler.Send, authMiddleware.Authenticate)
	e.POST("/messages/guest", messageHandler.SendGuest)
	e.POST("/messages/admin", messageHandler.SendAdmin, authMiddleware.Authenticate, authMiddleware.AdminOnly)
}
