package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Authentication strategies. Exactly one is mounted per deployment.
const (
	AuthCredentials = "credentials"
	AuthOIDC        = "oidc"
)

// minStateSecretLen is the shortest HMAC key accepted for signing OIDC state.
const minStateSecretLen = 32

type Config struct {
	Environment string
	ServerPort  string
	LogLevel    string

	DatabaseDriver string
	DatabaseURL    string
	RedisURL       string

	SessionTTL   time.Duration
	StateSecret  string
	AuthStrategy string
	OIDC         OIDCConfig
	FrontendURL  string

	// DevFallbackUserID attributes anonymous thread/comment creation to this
	// user. Only honored when Environment is "development".
	DevFallbackUserID string

	AllowUpvoteOverwrite bool
	CORSAllowedOrigins   []string

	// Rate limiting
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
}

// OIDCConfig holds the federated login client settings.
type OIDCConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
}

func Load() *Config {
	// Try to load .env file, but don't fail if it doesn't exist
	// (Docker containers use environment variables directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", ":5000"),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		DatabaseDriver: getEnv("DATABASE_DRIVER", DriverMemory),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),

		SessionTTL:   getEnvAsDuration("SESSION_TTL", "168h"),
		StateSecret:  os.Getenv("STATE_SECRET"),
		AuthStrategy: getEnv("AUTH_STRATEGY", AuthCredentials),
		OIDC: OIDCConfig{
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			AuthURL:      os.Getenv("OIDC_AUTH_URL"),
			TokenURL:     os.Getenv("OIDC_TOKEN_URL"),
			UserInfoURL:  os.Getenv("OIDC_USERINFO_URL"),
			RedirectURL:  getEnv("OIDC_REDIRECT_URL", "http://localhost:5000/auth/callback"),
			Scopes:       getEnvAsList("OIDC_SCOPES", "openid,profile,email"),
		},
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		DevFallbackUserID: os.Getenv("DEV_FALLBACK_USER_ID"),

		AllowUpvoteOverwrite: getEnvAsBool("ALLOW_UPVOTE_OVERWRITE", true),
		CORSAllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		RateLimitMaxRequests: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 300),
		RateLimitWindow:      getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),
	}
}

// IsProduction reports whether the service runs with production hardening.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment reports whether development-only fallbacks may be used.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.DatabaseURL == "" {
			c.DatabaseURL = "buildtalk.db"
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	switch c.AuthStrategy {
	case AuthCredentials:
	case AuthOIDC:
		if c.OIDC.ClientID == "" || c.OIDC.ClientSecret == "" {
			errs = append(errs, errors.New("OIDC_CLIENT_ID and OIDC_CLIENT_SECRET are required for the oidc strategy"))
		}
		if c.OIDC.AuthURL == "" || c.OIDC.TokenURL == "" || c.OIDC.UserInfoURL == "" {
			errs = append(errs, errors.New("OIDC_AUTH_URL, OIDC_TOKEN_URL and OIDC_USERINFO_URL are required for the oidc strategy"))
		}
		if len(c.StateSecret) < minStateSecretLen {
			errs = append(errs, fmt.Errorf("STATE_SECRET must be at least %d characters for the oidc strategy", minStateSecretLen))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_STRATEGY %q", c.AuthStrategy))
	}

	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvAsInt retrieves environment variable as int with default value
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %d", key, defaultVal)
		return defaultVal
	}
	return val
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %t", key, defaultVal)
		return defaultVal
	}
	return val
}

// getEnvAsDuration retrieves environment variable as duration with default value
func getEnvAsDuration(key string, defaultVal string) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		valStr = defaultVal
	}
	duration, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %s", key, defaultVal)
		duration, _ = time.ParseDuration(defaultVal)
	}
	return duration
}

func getEnvAsList(key, defaultVal string) []string {
	raw := getEnv(key, defaultVal)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
