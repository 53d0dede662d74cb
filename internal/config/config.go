// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// Content and uploads
	ContentFile string // JSON guide document
	UploadDir   string // local upload directory
	MaxUploadMB int    // request body cap in megabytes
	CatalogFile string // optional YAML catalog override
	AdminsFile  string // YAML admin credentials

	// LoginRateLimit is the number of login attempts per IP per minute.
	LoginRateLimit int

	// PostgreSQL connection (visitor log). Empty host disables it.
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible object storage (optional, for uploads)
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string // optional CDN or bucket URL for public files
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		ContentFile: envOrDefault("CONTENT_FILE", "content.json"),
		UploadDir:   envOrDefault("UPLOAD_DIR", "static/uploads"),
		CatalogFile: os.Getenv("CATALOG_FILE"),
		AdminsFile:  envOrDefault("ADMINS_FILE", "admins.yaml"),

		DBHost:     os.Getenv("POSTGRES_HOST"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "masteraccount"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "masteraccount"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}

	var err error
	if cfg.MaxUploadMB, err = positiveInt("MAX_UPLOAD_MB", 16); err != nil {
		return nil, err
	}
	if cfg.LoginRateLimit, err = positiveInt("LOGIN_RATE_LIMIT", 10); err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		if _, err := os.Stat(cfg.AdminsFile); err != nil {
			return nil, fmt.Errorf("ADMINS_FILE %q must exist in production: %w", cfg.AdminsFile, err)
		}
		if cfg.HasDatabase() && cfg.DBPassword == "changeme" {
			return nil, errors.New("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// HasDatabase reports whether the PostgreSQL visitor log is configured.
func (c *Config) HasDatabase() bool {
	return c.DBHost != ""
}

// HasS3 reports whether uploads go to object storage.
func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != "" && c.S3Bucket != ""
}

// MaxUploadBytes returns the request body cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// positiveInt reads an integer environment variable that must be > 0.
func positiveInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}
