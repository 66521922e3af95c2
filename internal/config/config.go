package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int

	// Logging
	LogLevel string

	// Ledger
	SeedFile string

	// Emotion classifier
	EmotionAPIURL     string
	EmotionModelID    string
	EmotionTimeout    time.Duration
	EmotionRatePerSec float64
	EmotionBurst      int
	EmotionCacheSize  int
	EmotionCacheTTL   time.Duration

	// AMQP, publishing is disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		SeedFile: getEnv("SEED_FILE", "./data/transactions.yaml"),

		EmotionAPIURL:     getEnv("EMOTION_API_URL", "https://sn-watson-emotion.labs.skills.network"),
		EmotionModelID:    getEnv("EMOTION_MODEL_ID", "emotion_aggregated-workflow_lang_en_stock"),
		EmotionTimeout:    getEnvDuration("EMOTION_TIMEOUT", 60*time.Second),
		EmotionRatePerSec: getEnvFloat("EMOTION_RATE_PER_SEC", 5),
		EmotionBurst:      getEnvInt("EMOTION_BURST", 5),
		EmotionCacheSize:  getEnvInt("EMOTION_CACHE_SIZE", 256),
		EmotionCacheTTL:   getEnvDuration("EMOTION_CACHE_TTL", 10*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finmood"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Validate emotion classifier
	if parsedURL, err := url.Parse(c.EmotionAPIURL); err != nil || c.EmotionAPIURL == "" {
		errors = append(errors, fmt.Sprintf("invalid emotion API URL '%s'", c.EmotionAPIURL))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid emotion API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}
	if c.EmotionModelID == "" {
		errors = append(errors, "emotion model id cannot be empty")
	}
	if c.EmotionTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid emotion timeout %v: must be at least 1 second", c.EmotionTimeout))
	}
	if c.EmotionRatePerSec < 0 {
		errors = append(errors, fmt.Sprintf("invalid emotion rate %v: cannot be negative", c.EmotionRatePerSec))
	}
	if c.EmotionRatePerSec > 0 && c.EmotionBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid emotion burst %d: must be at least 1 when a rate is set", c.EmotionBurst))
	}
	if c.EmotionCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid emotion cache size %d: cannot be negative", c.EmotionCacheSize))
	}
	if c.EmotionCacheSize > 0 && c.EmotionCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid emotion cache TTL %v: must be positive when caching", c.EmotionCacheTTL))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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
