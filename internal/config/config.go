// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Port string `env:"PORT" envDefault:"5001"`

	// Serverless switches the service into constrained-deployment mode:
	// pooled Google clients are trusted without a validation round-trip
	// and asynchronous downloads are rejected outright.
	Serverless bool `env:"SERVERLESS" envDefault:"false"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173,http://127.0.0.1:3000"`

	Sheet  SheetConfig
	Google GoogleConfig
	Auth   AuthConfig
	Cache  CacheConfig
	Jobs   JobsConfig
	Video  VideoConfig
}

// SheetConfig identifies the backing spreadsheet and its tabs.
type SheetConfig struct {
	ID             string `env:"SHEET_ID,required"`
	MainGID        int64  `env:"MAIN_GID" envDefault:"0"`
	CredentialsGID int64  `env:"CREDENTIALS_GID" envDefault:"0"`
	TicketsGID     int64  `env:"TICKETS_GID" envDefault:"0"`
	ReeditGID      int64  `env:"REEDIT_GID" envDefault:"0"`
	WriteRetries   int    `env:"SHEET_WRITE_RETRIES" envDefault:"3"`
}

// GoogleConfig holds service-account material and Drive settings.
type GoogleConfig struct {
	// CredentialsBase64 is a base64-encoded service-account key blob.
	// When empty, CredentialsFile is tried as a fallback.
	CredentialsBase64 string `env:"GOOGLE_CREDENTIALS_BASE64"`
	CredentialsFile   string `env:"GOOGLE_CREDENTIALS_FILE" envDefault:"credentials.json"`
	DriveFolderID     string `env:"DRIVE_FOLDER_ID"`
	OAuthClientID     string `env:"GOOGLE_CLIENT_ID"`
}

// AuthConfig holds token signing and domain gating settings.
type AuthConfig struct {
	JWTSecret      string        `env:"JWT_SECRET,required"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	AllowedDomains []string      `env:"ALLOWED_EMAIL_DOMAINS" envSeparator:"," envDefault:"adda247.com,addaeducation.com,studyiq.com"`
}

// CacheConfig holds per-dataset TTLs.
type CacheConfig struct {
	SheetTTL       time.Duration `env:"SHEET_CACHE_TTL" envDefault:"5m"`
	CredentialsTTL time.Duration `env:"CREDENTIALS_CACHE_TTL" envDefault:"10m"`
	FiltersTTL     time.Duration `env:"FILTERS_CACHE_TTL" envDefault:"5m"`
}

// JobsConfig bounds the in-memory download job registry.
type JobsConfig struct {
	Capacity int `env:"JOB_CAPACITY" envDefault:"50"`
	Workers  int `env:"JOB_WORKERS" envDefault:"10"`
}

// VideoConfig locates the local video store.
type VideoConfig struct {
	StorageDir string `env:"VIDEO_STORAGE_DIR" envDefault:"uploaded_videos"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.Jobs.Capacity <= 0 {
		return Config{}, fmt.Errorf("JOB_CAPACITY must be positive, got %d", cfg.Jobs.Capacity)
	}
	if cfg.Jobs.Workers <= 0 {
		return Config{}, fmt.Errorf("JOB_WORKERS must be positive, got %d", cfg.Jobs.Workers)
	}
	return cfg, nil
}

// HasGoogleCredentials reports whether any service-account source is configured.
func (c Config) HasGoogleCredentials() bool {
	return c.Google.CredentialsBase64 != "" || c.Google.CredentialsFile != ""
}
