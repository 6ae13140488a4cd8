package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/buildtalk/forum/internal/broker"
	"github.com/buildtalk/forum/internal/config"
	"github.com/buildtalk/forum/internal/database"
	"github.com/buildtalk/forum/internal/handler"
	"github.com/buildtalk/forum/internal/middleware"
	"github.com/buildtalk/forum/internal/repository"
	"github.com/buildtalk/forum/internal/repository/memory"
	"github.com/buildtalk/forum/internal/service"
	"github.com/buildtalk/forum/internal/session"
	"github.com/buildtalk/forum/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := logger.Init(cfg.IsDevelopment(), cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to open store", zap.Error(err))
	}

	deps := handler.Deps{Config: cfg, Store: store}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		client := redis.NewClient(opts)
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		logger.Log.Info("Connected to Redis")

		deps.Sessions = session.NewRedisStore(client, cfg.SessionTTL)
		deps.Broker = broker.NewRedisEventBroker(client)
		deps.Limiter = middleware.NewRedisLimiter(client, middleware.RateLimiterConfig{
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
		})
	} else {
		logger.Log.Warn("REDIS_URL not set, sessions and live feed are process-local")

		limiter := middleware.NewLocalLimiter(middleware.RateLimiterConfig{
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
		})
		go limiter.RunCleanup(ctx, 5*time.Minute)

		deps.Sessions = session.NewMemoryStore(cfg.SessionTTL)
		deps.Broker = broker.NewMemoryEventBroker()
		deps.Limiter = limiter
	}
	defer deps.Broker.Close()

	if err := service.NewAchievementService(store.Achievements).SeedDefaults(ctx); err != nil {
		logger.Log.Fatal("Failed to seed achievements", zap.Error(err))
	}

	if cfg.IsDevelopment() && cfg.DevFallbackUserID != "" {
		if id, err := uuid.Parse(cfg.DevFallbackUserID); err == nil {
			if _, err := service.NewAuthService(store.Users).EnsureUser(ctx, id); err != nil {
				logger.Log.Fatal("Failed to prepare fallback user", zap.Error(err))
			}
		}
	}

	if cfg.AuthStrategy == config.AuthOIDC {
		deps.OAuth = &oauth2.Config{
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			RedirectURL:  cfg.OIDC.RedirectURL,
			Scopes:       cfg.OIDC.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.OIDC.AuthURL,
				TokenURL: cfg.OIDC.TokenURL,
			},
		}
	}

	srv := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           handler.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting",
			zap.String("addr", cfg.ServerPort),
			zap.String("environment", cfg.Environment),
			zap.String("database_driver", cfg.DatabaseDriver),
			zap.String("auth_strategy", cfg.AuthStrategy),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("HTTP shutdown error", zap.Error(err))
	}
}

func openStore(cfg *config.Config) (*repository.Store, error) {
	if cfg.DatabaseDriver == config.DriverMemory {
		logger.Log.Warn("Using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return repository.NewGormStore(db), nil
}
