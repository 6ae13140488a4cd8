package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/buildtalk/forum/internal/models"
	"github.com/buildtalk/forum/internal/session"
	"github.com/gin-gonic/gin"
)

// sessionIssuer creates and tears down login sessions and their cookies.
type sessionIssuer struct {
	store  session.Store
	ttl    time.Duration
	secure bool
}

func (s sessionIssuer) start(c *gin.Context, user *models.User) (session.Identity, error) {
	identity := session.IdentityOf(user)

	token, err := s.store.Create(c.Request.Context(), identity)
	if err != nil {
		return identity, err
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, token, int(s.ttl.Seconds()), "/", "", s.secure, true)
	return identity, nil
}

// end destroys the server-side session, expires the cookie and tells the
// browser to drop anything it cached for this identity.
func (s sessionIssuer) end(c *gin.Context, token string) error {
	var err error
	if token != "" {
		err = s.store.Destroy(context.WithoutCancel(c.Request.Context()), token)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, "", -1, "/", "", s.secure, true)
	c.Header("Clear-Site-Data", `"cache"`)
	return err
}
