package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/siparist/live"
	"github.com/yeremiapane/siparist/middlewares"
	"github.com/yeremiapane/siparist/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // token di query sudah divalidasi middleware
	},
}

// LiveHandler -> endpoint WebSocket untuk layar kasir
func LiveHandler(hub *live.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(middlewares.ContextRole)
		if role != models.RoleCashier && role != models.RoleAdmin {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		hub.Register(ws, role)

		// Baca pesan sampai client disconnect
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(ws)
	}
}
