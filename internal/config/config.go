// Package config provides configuration management for the interview
// service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the configuration for the interview service.
type Config struct {
	AnthropicAPIKey  string
	Model            string
	MaxOutputTokens  int64
	ModelTimeout     time.Duration
	ListenAddr       string
	Environment      string
	TranscriptsDir   string
	TelemetryEnabled bool
}

// Load loads configuration from environment variables.
func Load() Config {
	config := Config{
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		Model:            envOr("ETHERITH_MODEL", "claude-3-5-haiku-latest"),
		MaxOutputTokens:  1024,
		ModelTimeout:     20 * time.Second, // Default
		ListenAddr:       envOr("LISTEN_ADDR", ":8080"),
		Environment:      envOr("ENVIRONMENT", "development"),
		TranscriptsDir:   os.Getenv("TRANSCRIPTS_DIR"),
		TelemetryEnabled: envBool("TELEMETRY_ENABLED"),
	}

	// Parse model timeout if provided
	if timeout := os.Getenv("MODEL_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.ModelTimeout = d
		}
	}
	if tokens := os.Getenv("MAX_OUTPUT_TOKENS"); tokens != "" {
		if n, err := strconv.ParseInt(tokens, 10, 64); err == nil && n > 0 {
			config.MaxOutputTokens = n
		}
	}

	return config
}

// Validate checks the configuration for values the service cannot run with.
// A missing API key is deliberately not an error: the engine degrades to its
// deterministic fallback paths rather than refusing to start.
func (c Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("max output tokens must be positive, got %d", c.MaxOutputTokens)
	}
	if c.ModelTimeout <= 0 {
		return fmt.Errorf("model timeout must be positive, got %s", c.ModelTimeout)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
