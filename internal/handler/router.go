package handler

import (
	"net/http"

	"github.com/buildtalk/forum/internal/broker"
	"github.com/buildtalk/forum/internal/config"
	"github.com/buildtalk/forum/internal/middleware"
	"github.com/buildtalk/forum/internal/repository"
	"github.com/buildtalk/forum/internal/service"
	"github.com/buildtalk/forum/internal/session"
	"github.com/buildtalk/forum/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Deps is everything the HTTP surface needs from startup.
type Deps struct {
	Config   *config.Config
	Store    *repository.Store
	Sessions session.Store
	Broker   broker.EventBroker
	// Limiter is optional; nil disables rate limiting.
	Limiter middleware.Limiter
	// OAuth is required when Config.AuthStrategy is oidc.
	OAuth *oauth2.Config
}

func NewRouter(deps Deps) *gin.Engine {
	cfg := deps.Config

	achievementService := service.NewAchievementService(deps.Store.Achievements)
	authService := service.NewAuthService(deps.Store.Users)
	threadService := service.NewThreadService(deps.Store.Threads, deps.Broker, cfg.AllowUpvoteOverwrite)
	commentService := service.NewCommentService(deps.Store.Comments, deps.Store.Threads, deps.Broker, cfg.AllowUpvoteOverwrite)
	voteService := service.NewVoteService(deps.Store, achievementService, deps.Broker)
	bookmarkService := service.NewBookmarkService(deps.Store)
	profileService := service.NewProfileService(deps.Store.Users, deps.Store.Achievements)

	fallback := fallbackAuthor(cfg)
	sessions := sessionIssuer{store: deps.Sessions, ttl: cfg.SessionTTL, secure: cfg.IsProduction()}

	authHandler := NewAuthHandler(authService, sessions)
	threadHandler := NewThreadHandler(threadService, fallback)
	commentHandler := NewCommentHandler(commentService, fallback)
	voteHandler := NewVoteHandler(voteService)
	bookmarkHandler := NewBookmarkHandler(bookmarkService)
	profileHandler := NewProfileHandler(profileService)
	achievementHandler := NewAchievementHandler(achievementService)
	feedHandler := NewFeedHandler(deps.Broker, cfg.CORSAllowedOrigins)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.HSTS(cfg.IsProduction()))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
	}))
	if deps.Limiter != nil {
		router.Use(middleware.RateLimit(deps.Limiter))
	}
	router.Use(middleware.Session(deps.Sessions))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", middleware.MetricsHandler())

	requireAuth := middleware.RequireAuth()

	api := router.Group("/api")
	api.Use(middleware.NoStore())
	{
		threads := api.Group("/threads")
		threads.GET("", threadHandler.List)
		threads.POST("", threadHandler.Create)
		threads.GET("/:id", threadHandler.Get)
		threads.PATCH("/:id", requireAuth, threadHandler.Update)
		threads.PATCH("/:id/upvotes", requireAuth, threadHandler.SetUpvotes)
		threads.DELETE("/:id", requireAuth, threadHandler.Delete)
		threads.GET("/:id/comments", commentHandler.ListByThread)
		threads.POST("/:id/comments", commentHandler.Create)

		comments := api.Group("/comments")
		comments.GET("/:id", commentHandler.Get)
		comments.PATCH("/:id", requireAuth, commentHandler.Update)
		comments.PATCH("/:id/upvotes", requireAuth, commentHandler.SetUpvotes)
		comments.DELETE("/:id", requireAuth, commentHandler.Delete)

		api.POST("/votes", requireAuth, voteHandler.Cast)
		api.GET("/votes/:targetType/:targetId", voteHandler.Counts)

		api.POST("/bookmarks", requireAuth, bookmarkHandler.Toggle)
		api.GET("/bookmarks", requireAuth, bookmarkHandler.List)

		api.GET("/profile", requireAuth, profileHandler.Get)
		api.PATCH("/profile", requireAuth, profileHandler.Update)

		api.GET("/achievements", achievementHandler.List)
		api.GET("/feed", feedHandler.Subscribe)

		api.GET("/auth/user", authHandler.CurrentUser)
	}

	switch cfg.AuthStrategy {
	case config.AuthOIDC:
		oauthHandler := NewOAuthHandler(authService, deps.OAuth,
			cfg.OIDC.UserInfoURL, cfg.StateSecret, cfg.FrontendURL, sessions)

		auth := router.Group("/auth")
		auth.Use(middleware.NoStore())
		auth.GET("/login", oauthHandler.Login)
		auth.GET("/callback", oauthHandler.Callback)
		auth.POST("/logout", authHandler.Logout)
	default:
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/logout", authHandler.Logout)
	}

	return router
}

// fallbackAuthor is the user anonymous posts are attributed to in
// development. uuid.Nil disables the fallback.
func fallbackAuthor(cfg *config.Config) uuid.UUID {
	if !cfg.IsDevelopment() || cfg.DevFallbackUserID == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(cfg.DevFallbackUserID)
	if err != nil {
		logger.Log.Warn("Ignoring malformed DEV_FALLBACK_USER_ID", zap.Error(err))
		return uuid.Nil
	}
	return id
}
