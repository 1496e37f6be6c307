package middlewares

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yeremiapane/siparist/utils"
)

const (
	ClientSessionName = "siparist"
	ContextClientID   = "client_id"
	clientIDKey       = "client_id"
)

// ClientSessions installs the signed cookie store that carries the customer
// client id.
func ClientSessions(secret string) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 7,
		HttpOnly: true,
	})
	return sessions.Sessions(ClientSessionName, store)
}

// ClientIdentity gives every customer browser a stable opaque id. Cached
// table credentials are keyed by it.
func ClientIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		clientID, _ := sess.Get(clientIDKey).(string)
		if clientID == "" {
			clientID = uuid.NewString()
			sess.Set(clientIDKey, clientID)
			if err := sess.Save(); err != nil {
				utils.ErrorLogger.Printf("failed to save client session: %v", err)
			}
		}
		c.Set(ContextClientID, clientID)
		c.Next()
	}
}
