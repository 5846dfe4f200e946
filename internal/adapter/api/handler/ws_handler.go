package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"supportchat/internal/infrastructure/auth"
	ws "supportchat/internal/infrastructure/websocket"
	"supportchat/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub    *ws.Hub
	tokens *auth.TokenIssuer
}

func NewWebSocketHandler(hub *ws.Hub, tokens *auth.TokenIssuer) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		tokens: tokens,
	}
}

// Handle upgrades the connection and registers the client with the
// hub. A bearer token may ride the query string; guests connect
// anonymously and are identified by a fresh connection ID.
func (h *WebSocketHandler) Handle(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed: %v", err)
		return err
	}

	id := uuid.New().String()
	name := "guest"
	if token := c.QueryParam("token"); token != "" {
		if claims, err := h.tokens.Verify(token); err == nil {
			id = claims.Subject
			name = claims.Name
		}
	}

	client := ws.NewClient(id, name, conn)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump(h.hub)

	return nil
}
