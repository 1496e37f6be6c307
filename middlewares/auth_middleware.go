package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/siparist/utils"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRole     = "role"
	ContextToken    = "token"
	ContextClaims   = "claims"
)

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// AuthMiddleware requires a valid staff JWT in the Authorization header.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}
		if !setClaims(c, token) {
			return
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, token string) bool {
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		c.Abort()
		return false
	}
	if claims.Subject == "" {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid subject in token"))
		c.Abort()
		return false
	}

	c.Set(ContextUserID, claims.Subject)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextRole, claims.Role)
	c.Set(ContextToken, token)
	c.Set(ContextClaims, claims)
	return true
}
