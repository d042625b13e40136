package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MinSecretLength is the minimum accepted length for signing secrets.
const MinSecretLength = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	Env         string `env:"APP_ENV" envDefault:"development"`
	Domain      string `env:"DOMAIN" envDefault:"http://localhost:8080"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"./data/driftwood.db"`

	// Auth
	JWTSecret     string        `env:"JWT_SECRET,required"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	SessionSecret string        `env:"SESSION_SECRET,required"`
	AdminUsername string        `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string        `env:"ADMIN_PASSWORD"` // only consulted when seeding the first admin

	// Contact form mail account
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`
	ContactTo    string `env:"CONTACT_TO"`

	// Remote image hosting
	ImageAPIURL string `env:"IMAGE_API_URL"`
	ImageAPIKey string `env:"IMAGE_API_KEY"`
	ImageFolder string `env:"IMAGE_FOLDER" envDefault:"blogs"`

	// Page cache
	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	// Visit tracking (disabled when empty)
	AnalyticsDB string `env:"ANALYTICS_DB"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Addr returns the listen address in :port format.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// Load reads an optional .env file, parses environment variables and
// validates the secrets.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.JWTSecret) < MinSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d bytes long, got %d", MinSecretLength, len(cfg.JWTSecret))
	}
	if len(cfg.SessionSecret) < MinSecretLength {
		return nil, fmt.Errorf("SESSION_SECRET must be at least %d bytes long, got %d", MinSecretLength, len(cfg.SessionSecret))
	}

	return cfg, nil
}
