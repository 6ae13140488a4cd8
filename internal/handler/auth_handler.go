package handler

import (
	"errors"
	"net/http"

	"github.com/buildtalk/forum/internal/middleware"
	"github.com/buildtalk/forum/internal/service"
	"github.com/buildtalk/forum/internal/session"
	"github.com/buildtalk/forum/internal/validation"
	"github.com/buildtalk/forum/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email,max=255"`
	Password  string  `json:"password" validate:"required,min=6,max=128"`
	FirstName *string `json:"firstName" validate:"omitnil,min=1,max=100"`
	LastName  *string `json:"lastName" validate:"omitnil,min=1,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

// AuthHandler serves the credential login strategy. CurrentUser and Logout
// are shared with the federated strategy.
type AuthHandler struct {
	authService *service.AuthService
	sessions    sessionIssuer
}

func NewAuthHandler(authService *service.AuthService, sessions sessionIssuer) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := validation.Decode(c.Request.Body, &req); err != nil {
		logger.Log.Warn("Registration request rejected", zap.String("ip", c.ClientIP()), zap.Error(err))
		respondError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	identity, err := h.sessions.start(c, user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, identity)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := validation.Decode(c.Request.Body, &req); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		logger.Log.Warn("Login failed", zap.String("ip", c.ClientIP()), zap.Error(err))
		respondError(c, err)
		return
	}

	// Replace any session the browser still holds.
	if old := middleware.SessionToken(c); old != "" {
		_ = h.sessions.store.Destroy(c.Request.Context(), old)
	}

	identity, err := h.sessions.start(c, user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, identity)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.SessionToken(c)
	if token == "" {
		// The cookie may still name an expired session.
		token, _ = c.Cookie(session.CookieName)
	}

	if err := h.sessions.end(c, token); err != nil {
		logger.Log.Error("Failed to destroy session", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// CurrentUser returns the caller's identity read from the store, so profile
// edits show up without a new login. A session whose user is gone gets 401.
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		unauthorized(c)
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			unauthorized(c)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.IdentityOf(user))
}
