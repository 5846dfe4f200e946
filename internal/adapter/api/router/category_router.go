package router

import (
	"github.com/labstack/echo/v4"

	"supportchat/internal/adapter/api/handler"
)

func SetupCategoryRouter(e *echo.Echo, categoryHandler *handler.CategoryHandler) {
	e.GET("/categories/active", categoryHandler.Active)
}
