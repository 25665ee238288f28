package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	DefaultModel          = "gemini-3-flash-preview"
	DefaultHTTPPort       = "8080"
	DefaultRequestTimeout = 30 * time.Second
	DefaultRateLimit      = 2.0
	DefaultRateBurst      = 5
	DefaultMongoDB        = "solarshine"
	DefaultCollection     = "transcripts"
)

type Config struct {
	// APIKey is the Gemini credential. Empty means the chat runs in degraded
	// mode and never calls the remote service.
	APIKey string
	Model  string

	HTTPPort       string
	RequestTimeout time.Duration
	RateLimit      float64
	RateBurst      int

	// MongoURI enables the Mongo transcript store when set.
	MongoURI             string
	MongoDB              string
	TranscriptCollection string

	// AdminToken guards the operator endpoints. Empty disables them.
	AdminToken string

	LogLevel slog.Level
}

// Load reads the configuration from the environment. A missing API key is
// not an error; only malformed values are.
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:               getAPIKey(),
		Model:                getEnv("MODEL", DefaultModel),
		HTTPPort:             getEnv("HTTP_PORT", DefaultHTTPPort),
		RequestTimeout:       DefaultRequestTimeout,
		RateLimit:            DefaultRateLimit,
		RateBurst:            DefaultRateBurst,
		MongoURI:             os.Getenv("MONGODB_URI"),
		MongoDB:              getEnv("MONGODB_DB", DefaultMongoDB),
		TranscriptCollection: getEnv("TRANSCRIPT_COLLECTION", DefaultCollection),
		AdminToken:           strings.TrimSpace(os.Getenv("ADMIN_TOKEN")),
		LogLevel:             slog.LevelInfo,
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: REQUEST_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("config: REQUEST_TIMEOUT must be positive, got %s", v)
		}
		cfg.RequestTimeout = d
	}

	if v := os.Getenv("CHAT_RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("config: CHAT_RATE_LIMIT: %w", err)
		}
		cfg.RateLimit = limit
	}

	if v := os.Getenv("CHAT_RATE_BURST"); v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: CHAT_RATE_BURST: %w", err)
		}
		cfg.RateBurst = burst
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
		}
	}

	return cfg, nil
}

// Degraded reports whether the chat has no credential to work with.
func (c *Config) Degraded() bool {
	return c.APIKey == ""
}

func getAPIKey() string {
	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		return key
	}

	return strings.TrimSpace(os.Getenv("API_KEY"))
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	return v
}
