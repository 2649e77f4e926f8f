package config

import (
	"time"
)

// DefaultConfig returns a default configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0",
		API: APIConfig{
			Provider:     ProviderGemini,
			APIKeyEnvVar: "GEMINI_API_KEY",
			Timeout:      30 * time.Second,
			Retry: RetryConfig{
				MaxRetries:   3,
				InitialDelay: 1 * time.Second,
			},
		},
		Chat: ChatConfig{
			Theme: "auto",
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  "warn",
				Format: "text",
			},
		},
	}
}
