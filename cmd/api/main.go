package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"supportchat/internal/adapter/api"
	"supportchat/internal/adapter/api/handler"
	apimiddleware "supportchat/internal/adapter/api/middleware"
	"supportchat/internal/adapter/api/router"
	"supportchat/internal/adapter/repository"
	"supportchat/internal/infrastructure/auth"
	"supportchat/internal/infrastructure/storage"
	"supportchat/internal/infrastructure/websocket"
	"supportchat/internal/usecase"
	"supportchat/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	localStorage, err := storage.NewLocalStorage(cfg.UploadDir, cfg.MaxUploadSize)
	if err != nil {
		log.Fatalf("Failed to initialize upload storage: %v", err)
	}

	chatRepo := repository.NewMemoryChatRepository()
	messageRepo := repository.NewMemoryMessageRepository()
	feedbackRepo := repository.NewMemoryFeedbackRepository()
	categoryRepo := repository.NewMemoryCategoryRepository(nil)

	tokenIssuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	hub := websocket.NewHub()
	hub.Start(ctx)

	chatUseCase := usecase.NewChatUseCase(chatRepo, messageRepo, categoryRepo, hub)
	messageUseCase := usecase.NewMessageUseCase(chatRepo, messageRepo, localStorage, hub)
	feedbackUseCase := usecase.NewFeedbackUseCase(chatRepo, feedbackRepo)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(tokenIssuer)

	chatHandler := handler.NewChatHandler(chatUseCase)
	messageHandler := handler.NewMessageHandler(messageUseCase)
	feedbackHandler := handler.NewFeedbackHandler(feedbackUseCase)
	categoryHandler := handler.NewCategoryHandler(chatUseCase)
	wsHandler := handler.NewWebSocketHandler(hub, tokenIssuer)

	router.Setup(e, chatHandler, messageHandler, feedbackHandler, categoryHandler, wsHandler, authMiddleware)

	e.Static("/uploads", localStorage.Dir())

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
