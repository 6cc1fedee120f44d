package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/solarity-seb/solarity-acres-courses/pkg/errors"
)

// Config holds all configuration for the service.
type Config struct {
	Server     ServerConfig
	Logging    LoggingConfig
	Session    SessionConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Federation FederationConfig
	Provider   ProviderConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level           string
	Environment     string
	DBEnabled       bool
	DBPath          string
	RetentionDays   int
	AsyncBufferSize int
}

// SessionConfig holds session and cookie configuration.
type SessionConfig struct {
	Duration      time.Duration
	CookieName    string
	SecureCookies bool
	CookieBudget  int
	SweepInterval time.Duration
	StoreBackend  string // "memory" or "redis"
}

// RedisConfig holds Redis configuration for the shared session store.
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// RateLimitConfig holds rate limiter configuration.
type RateLimitConfig struct {
	Enabled       bool
	SweepInterval time.Duration
}

// FederationConfig holds community SSO bridge configuration.
type FederationConfig struct {
	SigningSecret    string
	Issuer           string
	Audience         string
	TokenTTL         time.Duration
	RefreshThreshold time.Duration
	CommunityBaseURL string
	ClientID         string
	ClientSecret     string
	AllowedHosts     []string
	StaffEmailDomain string
	DefaultReturn    string
	SignInPath       string
}

// ProviderConfig holds the primary identity provider configuration.
type ProviderConfig struct {
	BaseURL    string
	ServiceKey string
	Timeout    time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Logging: LoggingConfig{
			Level:           getEnv("LOG_LEVEL", "info"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			DBEnabled:       getEnvBool("LOG_DB_ENABLED", false),
			DBPath:          getEnv("LOG_DB_PATH", "./data/logs.db"),
			RetentionDays:   getEnvInt("LOG_RETENTION_DAYS", 7),
			AsyncBufferSize: getEnvInt("LOG_ASYNC_BUFFER_SIZE", 1000),
		},
		Session: SessionConfig{
			Duration:      getEnvDuration("SESSION_DURATION", 7*24*time.Hour),
			CookieName:    getEnv("SESSION_COOKIE_NAME", "sa-session"),
			SecureCookies: getEnvBool("SECURE_COOKIES", true),
			CookieBudget:  getEnvInt("COOKIE_BUDGET_BYTES", 4000),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
			StoreBackend:  getEnv("SESSION_STORE_BACKEND", "memory"),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 5),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvBool("RATE_LIMIT_ENABLED", true),
			SweepInterval: getEnvDuration("RATE_LIMIT_SWEEP_INTERVAL", 5*time.Minute),
		},
		Federation: FederationConfig{
			SigningSecret:    getEnv("SSO_SIGNING_SECRET", ""),
			Issuer:           getEnv("SSO_ISSUER", "solarity-acres"),
			Audience:         getEnv("SSO_AUDIENCE", "solarity-community"),
			TokenTTL:         getEnvDuration("SSO_TOKEN_TTL", time.Hour),
			RefreshThreshold: getEnvDuration("SSO_REFRESH_THRESHOLD", 15*time.Minute),
			CommunityBaseURL: getEnv("COMMUNITY_BASE_URL", "https://community.solarity.farm"),
			ClientID:         getEnv("COMMUNITY_CLIENT_ID", "solarityfarm-main"),
			ClientSecret:     getEnv("COMMUNITY_CLIENT_SECRET", ""),
			AllowedHosts:     getEnvSlice("ALLOWED_RETURN_HOSTS", []string{"localhost", "127.0.0.1", "solarity.farm", "www.solarity.farm"}),
			StaffEmailDomain: getEnv("STAFF_EMAIL_DOMAIN", "@solarity.farm"),
			DefaultReturn:    getEnv("SSO_DEFAULT_RETURN", "/private"),
			SignInPath:       getEnv("SIGNIN_PATH", "/signin"),
		},
		Provider: ProviderConfig{
			BaseURL:    getEnv("PROVIDER_BASE_URL", "http://localhost:9999"),
			ServiceKey: getEnv("PROVIDER_SERVICE_KEY", ""),
			Timeout:    getEnvDuration("PROVIDER_TIMEOUT", 10*time.Second),
		},
	}
}

// Validate checks configuration that must fail at startup rather than at
// request time.
func (c *Config) Validate() error {
	if c.Federation.SigningSecret == "" {
		return apperrors.ErrMissingSigningSecret
	}
	if c.Session.StoreBackend != "memory" && c.Session.StoreBackend != "redis" {
		return apperrors.Wrap(apperrors.ErrValidation, "SESSION_STORE_BACKEND must be memory or redis")
	}
	if c.Session.CookieBudget <= 0 {
		return apperrors.Wrap(apperrors.ErrValidation, "COOKIE_BUDGET_BYTES must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
