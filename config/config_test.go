package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validSecret() string {
	return strings.Repeat("s", MinSecretLength)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", validSecret())
	t.Setenv("SESSION_SECRET", validSecret())

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "./data/driftwood.db", cfg.DatabaseURL)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, "587", cfg.SMTPPort)
	assert.Equal(t, "blogs", cfg.ImageFolder)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.UseRedisCache())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", validSecret())
	t.Setenv("SESSION_SECRET", validSecret())
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr())
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.True(t, cfg.UseRedisCache())
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SESSION_SECRET", validSecret())

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ShortSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "too short")
	t.Setenv("SESSION_SECRET", validSecret())

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", validSecret())
	t.Setenv("SESSION_SECRET", "too short")

	_, err = Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}
