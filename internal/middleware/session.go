package middleware

import (
	"net/http"

	"github.com/buildtalk/forum/internal/session"
	"github.com/buildtalk/forum/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	identityKey  = "identity"
	sessionKey   = "session_token"
	userIDLogKey = "user_id"
)

// Session resolves the session cookie. Requests without a valid session
// continue as anonymous.
func Session(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(session.CookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		identity, err := store.Get(c.Request.Context(), token)
		if err != nil {
			logger.Log.Error("Failed to load session",
				zap.String("ip", c.ClientIP()),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if identity != nil {
			c.Set(identityKey, identity)
			c.Set(sessionKey, token)
			c.Set(userIDLogKey, identity.ID.String())
		}
		c.Next()
	}
}

// RequireAuth rejects anonymous callers with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentIdentity(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the caller attached by Session.
func CurrentIdentity(c *gin.Context) (*session.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*session.Identity)
	return identity, ok && identity != nil
}

// SessionToken returns the raw token of the current session.
func SessionToken(c *gin.Context) string {
	return c.GetString(sessionKey)
}
