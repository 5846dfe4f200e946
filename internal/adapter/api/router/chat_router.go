package router

import (
	"github.com/labstack/echo/v4"

	"supportchat/internal/adapter/api/handler"
	"supportchat/internal/adapter/api/middleware"
)

// SetupChatRouter wires chat lifecycle and listing routes.
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	// Participant-facing
	e.GET("/chats/history", chatHandler.History, authMiddleware.Authenticate)
	e.GET("/chats/session/:sessionId", chatHandler.SessionChat)
	e.POST("/chats", chatHandler.Create, authMiddleware.Authenticate)
	e.POST("/chats/guest", chatHandler.CreateGuest)

	// Agent-facing
	adminGroup := e.Group("/chats/admin", authMiddleware.Authenticate, authMiddleware.AdminOnly)
	adminGroup.GET("/all", chatHandler.AdminAll)
	adminGroup.GET("/stats", chatHandler.AdminStats)

	e.POST("/chats/:id/claim", chatHandler.Claim, authMiddleware.Authenticate, authMiddleware.AdminOnly)
	e.POST("/chats/:id/solve", chatHandler.Solve, authMiddleware.Authenticate, authMiddleware.AdminOnly)
	e.POST("/chats/:id/close", chatHandler.Close, authMiddleware.Authenticate, authMiddleware.AdminOnly)

	e.GET("/superadmin/stats", chatHandler.SuperAdminStats, authMiddleware.Authenticate, authMiddleware.SuperAdminOnly)
}
