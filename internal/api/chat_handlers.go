package api

import (
	"net/http"

	"storefront/internal/chat"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is served to browsers from another origin in development
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveChat upgrades an authenticated request into a chat connection
func (h *Handler) serveChat(c *gin.Context) {
	claims := mustClaims(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		util.GetLogger().Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := chat.NewClient(h.hub, conn, claims.UserID, claims.Email, claims.Role)
	client.Start()
}
