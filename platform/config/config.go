// Package config loads application configuration from environment variables.
// Modules depend on narrow interfaces (DatabaseConfig, EmailConfig, ...) so
// they only see the settings they need.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Environment: development, staging, production
	Env string

	// HTTP server
	HTTPPort       string
	AllowedOrigins []string

	// Database
	DatabaseURL string

	// Auth
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Redis (asynq broker)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Scheduler
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	WorkerConcurrency  int

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string

	// Object storage (tenant branding assets)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioBucket    string

	// Public URLs
	AppBaseURL    string
	PortalBaseURL string
}

// Load reads configuration from the environment. A .env file is loaded first
// when present so local development does not need exported variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		OutboxPollInterval: getDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    getInt("OUTBOX_BATCH_SIZE", 100),
		WorkerConcurrency:  getInt("WORKER_CONCURRENCY", 10),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		FromEmail:    getEnv("FROM_EMAIL", "no-reply@collectflow.app"),
		FromName:     getEnv("FROM_NAME", "CollectFlow"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioUseSSL:    getBool("MINIO_USE_SSL", false),
		MinioBucket:    getEnv("MINIO_BUCKET", "tenant-assets"),

		AppBaseURL:    getEnv("APP_BASE_URL", "http://localhost:8080"),
		PortalBaseURL: getEnv("PORTAL_BASE_URL", "http://localhost:3000"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// DatabaseConfig exposes database settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig exposes HTTP server settings.
type HTTPConfig interface {
	GetHTTPPort() string
	GetAllowedOrigins() []string
	GetEnv() string
}

// JWTConfig exposes token settings.
type JWTConfig interface {
	GetJWTSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

// SchedulerConfig exposes background worker settings.
type SchedulerConfig interface {
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetOutboxPollInterval() time.Duration
	GetOutboxBatchSize() int
	GetWorkerConcurrency() int
}

// EmailConfig exposes SMTP delivery settings.
type EmailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetFromEmail() string
	GetFromName() string
}

// StorageConfig exposes object storage settings.
type StorageConfig interface {
	GetMinioEndpoint() string
	GetMinioAccessKey() string
	GetMinioSecretKey() string
	GetMinioUseSSL() bool
	GetMinioBucket() string
}

// URLConfig exposes public-facing base URLs.
type URLConfig interface {
	GetAppBaseURL() string
	GetPortalBaseURL() string
}

func (c *Config) GetDatabaseURL() string               { return c.DatabaseURL }
func (c *Config) GetHTTPPort() string                  { return c.HTTPPort }
func (c *Config) GetAllowedOrigins() []string          { return c.AllowedOrigins }
func (c *Config) GetEnv() string                       { return c.Env }
func (c *Config) GetJWTSecret() string                 { return c.JWTSecret }
func (c *Config) GetAccessTokenTTL() time.Duration     { return c.AccessTokenTTL }
func (c *Config) GetRefreshTokenTTL() time.Duration    { return c.RefreshTokenTTL }
func (c *Config) GetRedisAddr() string                 { return c.RedisAddr }
func (c *Config) GetRedisPassword() string             { return c.RedisPassword }
func (c *Config) GetRedisDB() int                      { return c.RedisDB }
func (c *Config) GetOutboxPollInterval() time.Duration { return c.OutboxPollInterval }
func (c *Config) GetOutboxBatchSize() int              { return c.OutboxBatchSize }
func (c *Config) GetWorkerConcurrency() int            { return c.WorkerConcurrency }
func (c *Config) GetSMTPHost() string                  { return c.SMTPHost }
func (c *Config) GetSMTPPort() int                     { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string              { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string              { return c.SMTPPassword }
func (c *Config) GetFromEmail() string                 { return c.FromEmail }
func (c *Config) GetFromName() string                  { return c.FromName }
func (c *Config) GetMinioEndpoint() string             { return c.MinioEndpoint }
func (c *Config) GetMinioAccessKey() string            { return c.MinioAccessKey }
func (c *Config) GetMinioSecretKey() string            { return c.MinioSecretKey }
func (c *Config) GetMinioUseSSL() bool                 { return c.MinioUseSSL }
func (c *Config) GetMinioBucket() string               { return c.MinioBucket }
func (c *Config) GetAppBaseURL() string                { return c.AppBaseURL }
func (c *Config) GetPortalBaseURL() string             { return c.PortalBaseURL }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
