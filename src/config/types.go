package config

import (
	"time"
)

// Config represents the complete configuration for gem
type Config struct {
	// Version of the configuration format
	Version string `json:"version"`

	// API configuration
	API APIConfig `json:"api"`

	// Gemini backend selection
	Gemini GeminiConfig `json:"gemini,omitempty"`

	// Chat presentation
	Chat ChatConfig `json:"chat,omitempty"`

	// Data directory configuration
	Data DataConfig `json:"data,omitempty"`

	// Observability configuration
	Observability ObservabilityConfig `json:"observability,omitempty"`

	// Debug enables general debug logging
	Debug bool `json:"debug,omitempty"`
}

// APIConfig holds API-related configuration
type APIConfig struct {
	// Provider is gemini, openrouter or an OpenAI-compatible provider
	Provider string `json:"provider" validate:"provider"`

	// Model overrides the model chosen during setup. Required for
	// providers other than gemini.
	Model string `json:"model,omitempty"`

	// BaseURL overrides the default API endpoint
	BaseURL string `json:"base_url,omitempty" validate:"omitempty,url"`

	// APIKey for authentication. When empty the key saved with
	// `gem setup key` is used.
	APIKey string `json:"api_key,omitempty"`

	// APIKeyEnvVar specifies the environment variable to read the API key from
	APIKeyEnvVar string `json:"api_key_env_var,omitempty"`

	// Timeout for non-streaming API requests
	Timeout time.Duration `json:"timeout,omitempty" validate:"min=0"`

	// RetryConfig for API request retries
	Retry RetryConfig `json:"retry,omitempty"`

	// RateLimit configuration
	RateLimit RateLimitConfig `json:"rate_limit,omitempty"`
}

// RetryConfig defines retry behavior for API requests
type RetryConfig struct {
	MaxRetries   int           `json:"max_retries" validate:"min=0,max=10"`
	InitialDelay time.Duration `json:"initial_delay" validate:"min=0"`
}

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute" validate:"min=0"`
}

// GeminiConfig selects the Vertex AI backend when both fields are set
type GeminiConfig struct {
	Project  string `json:"project,omitempty"`
	Location string `json:"location,omitempty"`
}

// ChatConfig controls how replies are shown
type ChatConfig struct {
	// Plain prints replies as received, without markdown rendering
	Plain bool `json:"plain,omitempty"`

	// Theme is light, dark or auto
	Theme string `json:"theme,omitempty" validate:"theme"`

	// Width wraps rendered output; 0 uses the terminal width
	Width int `json:"width,omitempty" validate:"min=0"`
}

// DataConfig defines data directory configuration
type DataConfig struct {
	// Directory where the database and key file are stored
	Directory string `json:"directory,omitempty"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	// Logging configuration
	Logging LoggingConfig `json:"logging,omitempty"`

	// Metrics configuration
	Metrics MetricsConfig `json:"metrics,omitempty"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string `json:"level,omitempty" validate:"log_level"`

	// Format is the output format (text, json)
	Format string `json:"format,omitempty" validate:"log_format"`

	// File receives logs while the interactive chat owns the terminal
	File string `json:"file,omitempty"`
}

// MetricsConfig defines where metrics are written
type MetricsConfig struct {
	// Textfile is written in the Prometheus text format on exit
	Textfile string `json:"textfile,omitempty"`
}

// ConfigPrecedence defines the order of configuration loading
type ConfigPrecedence struct {
	// SystemConfig path
	SystemConfig string

	// UserConfig path
	UserConfig string

	// ProjectConfig path
	ProjectConfig string

	// LocalConfig path
	LocalConfig string

	// EnvironmentPrefix for env var overrides
	EnvironmentPrefix string
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ConfigSource indicates where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"
	SourceUser        ConfigSource = "user"
	SourceProject     ConfigSource = "project"
	SourceLocal       ConfigSource = "local"
	SourceEnvironment ConfigSource = "environment"
	SourceCLI         ConfigSource = "cli"
)

// Providers
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
)
