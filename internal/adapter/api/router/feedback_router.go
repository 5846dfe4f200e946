package router

import (
	"github.com/labstack/echo/v4"

	"supportchat/internal/adapter/api/handler"
	"supportchat/internal/adapter/api/middleware"
)

func SetupFeedbackRouter(e *echo.Echo, feedbackHandler *handler.FeedbackHandler, authMiddleware *middleware.AuthMiddleware) {
	e.POST("/feedback/:chatId", feedbackHandler.Submit, authMiddleware.OptionalAuthenticate)
}
