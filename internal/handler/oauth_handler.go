package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/buildtalk/forum/internal/service"
	"github.com/buildtalk/forum/internal/utils"
	"github.com/buildtalk/forum/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	stateCookieName = "bt_oauth_state"
	stateTTL        = 10 * time.Minute
	maxUserInfoSize = 1 << 20
)

var errStateMismatch = errors.New("oauth state mismatch")

// userInfo accepts the standard OpenID claim names and the aliases some
// providers emit instead.
type userInfo struct {
	Subject         string  `json:"sub"`
	Email           *string `json:"email"`
	GivenName       *string `json:"given_name"`
	FirstName       *string `json:"first_name"`
	FamilyName      *string `json:"family_name"`
	LastName        *string `json:"last_name"`
	Picture         *string `json:"picture"`
	ProfileImageURL *string `json:"profile_image_url"`
}

func (u userInfo) profile() service.FederatedProfile {
	return service.FederatedProfile{
		Subject:         u.Subject,
		Email:           u.Email,
		FirstName:       firstNonNil(u.GivenName, u.FirstName),
		LastName:        firstNonNil(u.FamilyName, u.LastName),
		ProfileImageURL: firstNonNil(u.Picture, u.ProfileImageURL),
	}
}

func firstNonNil(values ...*string) *string {
	for _, v := range values {
		if v != nil && *v != "" {
			return v
		}
	}
	return nil
}

// OAuthHandler runs the authorization code flow against an external
// OpenID provider.
type OAuthHandler struct {
	authService *service.AuthService
	oauth       *oauth2.Config
	userInfoURL string
	stateSecret string
	frontendURL string
	sessions    sessionIssuer
}

func NewOAuthHandler(
	authService *service.AuthService,
	oauth *oauth2.Config,
	userInfoURL, stateSecret, frontendURL string,
	sessions sessionIssuer,
) *OAuthHandler {
	return &OAuthHandler{
		authService: authService,
		oauth:       oauth,
		userInfoURL: userInfoURL,
		stateSecret: stateSecret,
		frontendURL: frontendURL,
		sessions:    sessions,
	}
}

func (h *OAuthHandler) Login(c *gin.Context) {
	state, err := utils.GenerateState(h.stateSecret, stateTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookieName, state, int(stateTTL.Seconds()), "/", "", h.sessions.secure, true)
	c.Redirect(http.StatusFound, h.oauth.AuthCodeURL(state))
}

func (h *OAuthHandler) Callback(c *gin.Context) {
	if err := h.checkState(c); err != nil {
		logger.Log.Warn("OAuth callback rejected", zap.String("ip", c.ClientIP()), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid authorization state"})
		return
	}
	c.SetCookie(stateCookieName, "", -1, "/", "", h.sessions.secure, true)

	if reason := c.Query("error"); reason != "" {
		logger.Log.Warn("Provider denied authorization", zap.String("reason", reason))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization was denied"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}

	ctx := c.Request.Context()
	token, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		logger.Log.Warn("Code exchange failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization failed"})
		return
	}

	info, err := h.fetchUserInfo(c, token)
	if err != nil {
		logger.Log.Error("Failed to load provider profile", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Identity provider unavailable"})
		return
	}

	user, err := h.authService.UpsertFederated(ctx, info.profile())
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.sessions.start(c, user); err != nil {
		respondError(c, err)
		return
	}

	logger.Log.Info("Federated login completed", zap.String("user_id", user.ID.String()))
	c.Redirect(http.StatusFound, h.frontendURL)
}

func (h *OAuthHandler) checkState(c *gin.Context) error {
	state := c.Query("state")
	cookie, err := c.Cookie(stateCookieName)
	if err != nil || state == "" || cookie != state {
		return errStateMismatch
	}
	_, err = utils.ValidateState(state, h.stateSecret)
	return err
}

func (h *OAuthHandler) fetchUserInfo(c *gin.Context, token *oauth2.Token) (*userInfo, error) {
	ctx := c.Request.Context()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %s", resp.Status)
	}

	var info userInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoSize)).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Subject == "" {
		return nil, errors.New("userinfo has no subject")
	}
	return &info, nil
}
