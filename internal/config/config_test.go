package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_DRIVER", "CODE_LENGTH", "JWT_TTL_HOURS", "STORE_TIMEOUT", "BASE_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 6, cfg.CodeLength)
	assert.Equal(t, 168*time.Hour, cfg.JWTDuration())
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("CODE_LENGTH", "8")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("BASE_URL", "https://sl.example/")
	t.Setenv("JWT_TTL_HOURS", "not-a-number")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 8, cfg.CodeLength)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, "https://sl.example", cfg.BaseURL)
	assert.Equal(t, 168, cfg.JWTTTL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{JWTSecret: "s", DatabaseDriver: "sqlite", CodeLength: 6, JWTTTL: 1}
	}

	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.JWTSecret = ""
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")

	cfg = valid()
	cfg.DatabaseDriver = "mysql"
	assert.ErrorContains(t, cfg.Validate(), "unsupported DATABASE_DRIVER")

	cfg = valid()
	cfg.DatabaseDriver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg = valid()
	cfg.CodeLength = 2
	assert.ErrorContains(t, cfg.Validate(), "CODE_LENGTH")
}
