package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	GinMode        string
	DatabaseDriver string // "postgres" or "sqlite"
	DatabaseURL    string
	RedisURL       string        // empty disables the resolution cache
	CacheTTL       time.Duration // TTL of cached link snapshots
	BaseURL        string        // Public origin of short links
	FrontendURL    string        // Frontend base URL (CORS origin)
	JWTSecret      string        // Secret key for JWT token signing
	JWTTTL         int           // JWT token expiration time in hours
	CodeLength     int           // Length of generated short codes
	SearchURL      string        // Prefix for the search fallback of unparseable input
	StoreTimeout   time.Duration // Upper bound for best-effort store calls (visit recording)
	DNSTimeout     time.Duration // Upper bound for TXT lookups during domain verification
	LogLevel       string
	LogFormat      string // "text" or "json"

	RateLimitRPS           float64 // Rate limit for general API endpoints (requests per second)
	RateLimitBurst         int     // Burst size for rate limiting
	RateLimitAuthRPS       float64 // Rate limit for auth endpoints (stricter)
	RateLimitAuthBurst     int     // Burst size for auth endpoints
	RateLimitShortenRPS    float64 // Rate limit for link creation (stricter)
	RateLimitShortenBurst  int     // Burst size for link creation
	RateLimitRedirectRPS   float64 // Rate limit for resolution (lenient)
	RateLimitRedirectBurst int     // Burst size for resolution
}

func Load() *Config {
	// Try to load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	return &Config{
		Port:                   getEnv("PORT", "8080"),
		GinMode:                getEnv("GIN_MODE", "release"),
		DatabaseDriver:         strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		RedisURL:               getEnv("REDIS_URL", ""),
		CacheTTL:               getEnvDuration("CACHE_TTL", time.Hour),
		BaseURL:                strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		FrontendURL:            getEnv("FRONTEND_URL", "*"),
		JWTSecret:              getEnv("JWT_SECRET", ""),
		JWTTTL:                 getEnvInt("JWT_TTL_HOURS", 168), // 7 days
		CodeLength:             getEnvInt("CODE_LENGTH", 6),
		SearchURL:              getEnv("SEARCH_URL", "https://www.google.com/search?q="),
		StoreTimeout:           getEnvDuration("STORE_TIMEOUT", 5*time.Second),
		DNSTimeout:             getEnvDuration("DNS_TIMEOUT", 5*time.Second),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "text"),
		RateLimitRPS:           getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:         getEnvInt("RATE_LIMIT_BURST", 20),
		RateLimitAuthRPS:       getEnvFloat("RATE_LIMIT_AUTH_RPS", 5),
		RateLimitAuthBurst:     getEnvInt("RATE_LIMIT_AUTH_BURST", 10),
		RateLimitShortenRPS:    getEnvFloat("RATE_LIMIT_SHORTEN_RPS", 2),
		RateLimitShortenBurst:  getEnvInt("RATE_LIMIT_SHORTEN_BURST", 5),
		RateLimitRedirectRPS:   getEnvFloat("RATE_LIMIT_REDIRECT_RPS", 30),
		RateLimitRedirectBurst: getEnvInt("RATE_LIMIT_REDIRECT_BURST", 60),
	}
}

// Validate reports configuration that would make the server misbehave at runtime.
func (c *Config) Validate() error {
	var problems []string
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	switch c.DatabaseDriver {
	case "postgres", "postgresql":
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required for postgres")
		}
	case "sqlite", "sqlite3":
	default:
		problems = append(problems, fmt.Sprintf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver))
	}
	if c.CodeLength < 4 || c.CodeLength > 32 {
		problems = append(problems, "CODE_LENGTH must be between 4 and 32")
	}
	if c.JWTTTL <= 0 {
		problems = append(problems, "JWT_TTL_HOURS must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// JWTDuration returns the token lifetime.
func (c *Config) JWTDuration() time.Duration {
	return time.Duration(c.JWTTTL) * time.Hour
}

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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
