package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string        `env:"APP_NAME" envDefault:"BookWise"`
	Env            string        `env:"APP_ENV" envDefault:"development"`
	Port           string        `env:"PORT" envDefault:"8080"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	RedisURL       string        `env:"REDIS_URL"`
	ShutdownPeriod time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"10m"`

	// APIEndpoint is the public base URL of this service, used to build
	// callback URLs handed to the workflow service and the upload client.
	APIEndpoint string `env:"API_ENDPOINT" envDefault:"http://localhost:8080"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"5"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	ImageKit ImageKit `envPrefix:"IMAGEKIT_"`
	QStash   QStash   `envPrefix:"QSTASH_"`
	Email    Email
	S3       S3 `envPrefix:"S3_"`
}

// ImageKit holds the CDN credentials used to sign client uploads.
type ImageKit struct {
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
	URLEndpoint string `env:"URL_ENDPOINT"`
	UploadURL   string `env:"UPLOAD_URL" envDefault:"https://upload.imagekit.io/api/v1/files/upload"`
}

// QStash configures the workflow/queue service.
type QStash struct {
	URL               string `env:"URL" envDefault:"https://qstash.upstash.io"`
	Token             string `env:"TOKEN"`
	CurrentSigningKey string `env:"CURRENT_SIGNING_KEY"`
	NextSigningKey    string `env:"NEXT_SIGNING_KEY"`
}

// Email configures the transactional email provider.
type Email struct {
	SendGridAPIKey string `env:"SENDGRID_API_KEY"`
	FromName       string `env:"EMAIL_FROM_NAME" envDefault:"BookWise"`
	FromAddress    string `env:"EMAIL_FROM_ADDRESS" envDefault:"no-reply@bookwise.local"`
}

// S3 configures the optional object storage upload backend.
type S3 struct {
	Bucket        string `env:"BUCKET"`
	Region        string `env:"REGION" envDefault:"us-east-1"`
	Endpoint      string `env:"ENDPOINT"`
	AccessKey     string `env:"ACCESS_KEY"`
	SecretKey     string `env:"SECRET_KEY"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
}

// Load reads a .env file when present (outside production) and parses the
// environment into a Config.
func Load() (Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the settings required outside of development.
func (c Config) Validate() error {
	if c.IsDev() {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", c.Env)
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", c.Env)
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET must be set when APP_ENV=%s", c.Env)
	}
	if c.QStash.CurrentSigningKey == "" && c.QStash.NextSigningKey == "" {
		return fmt.Errorf("QSTASH_CURRENT_SIGNING_KEY or QSTASH_NEXT_SIGNING_KEY must be set when APP_ENV=%s", c.Env)
	}
	return nil
}

// IsDev reports whether the app runs in a local/development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.Env) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// URL joins path onto the public API endpoint.
func (c Config) URL(path string) string {
	return strings.TrimRight(c.APIEndpoint, "/") + "/" + strings.TrimLeft(path, "/")
}
