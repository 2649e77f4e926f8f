package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
)

// Loader handles loading and merging configurations from multiple sources
type Loader struct {
	fs         afero.Fs
	precedence ConfigPrecedence
	validator  *Validator
	getenv     func(string) string
}

// NewLoader creates a new configuration loader reading from the OS filesystem
func NewLoader(precedence ConfigPrecedence) *Loader {
	return NewLoaderFs(afero.NewOsFs(), precedence)
}

// NewLoaderFs creates a loader reading from fs
func NewLoaderFs(fs afero.Fs, precedence ConfigPrecedence) *Loader {
	return &Loader{
		fs:         fs,
		precedence: precedence,
		validator:  NewValidator(),
		getenv:     os.Getenv,
	}
}

// Load loads configuration from all sources and merges them
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	sources := []struct {
		path   string
		source ConfigSource
	}{
		{l.precedence.SystemConfig, SourceSystem},
		{l.precedence.UserConfig, SourceUser},
		{l.precedence.ProjectConfig, SourceProject},
		{l.precedence.LocalConfig, SourceLocal},
	}

	for _, src := range sources {
		if src.path == "" {
			continue
		}

		if cfg, err := l.loadFile(src.path); err == nil {
			config = l.mergeConfigs(config, cfg)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s config from %s: %w", src.source, src.path, err)
		}
	}

	if l.precedence.EnvironmentPrefix != "" {
		l.applyEnvironmentOverrides(config)
	}

	if err := l.validator.Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFile loads a single configuration file
func (l *Loader) loadFile(path string) (*Config, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return &config, nil
}

// SaveFile saves configuration to a file
func (l *Loader) SaveFile(config *Config, path string) error {
	if err := l.validator.Validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := l.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// the file may carry an API key
	if err := afero.WriteFile(l.fs, path, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// mergeConfigs merges two configurations with the second taking precedence
func (l *Loader) mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.API.Provider != "" {
		result.API.Provider = override.API.Provider
	}
	if override.API.Model != "" {
		result.API.Model = override.API.Model
	}
	if override.API.BaseURL != "" {
		result.API.BaseURL = override.API.BaseURL
	}
	if override.API.APIKey != "" {
		result.API.APIKey = override.API.APIKey
	}
	if override.API.APIKeyEnvVar != "" {
		result.API.APIKeyEnvVar = override.API.APIKeyEnvVar
	}
	if override.API.Timeout != 0 {
		result.API.Timeout = override.API.Timeout
	}
	if override.API.Retry.MaxRetries != 0 {
		result.API.Retry.MaxRetries = override.API.Retry.MaxRetries
	}
	if override.API.Retry.InitialDelay != 0 {
		result.API.Retry.InitialDelay = override.API.Retry.InitialDelay
	}
	if override.API.RateLimit.RequestsPerMinute != 0 {
		result.API.RateLimit.RequestsPerMinute = override.API.RateLimit.RequestsPerMinute
	}

	if override.Gemini.Project != "" {
		result.Gemini.Project = override.Gemini.Project
	}
	if override.Gemini.Location != "" {
		result.Gemini.Location = override.Gemini.Location
	}

	result.Chat = l.mergeChat(result.Chat, override.Chat)

	if override.Data.Directory != "" {
		result.Data.Directory = override.Data.Directory
	}

	if override.Observability.Logging.Level != "" {
		result.Observability.Logging.Level = override.Observability.Logging.Level
	}
	if override.Observability.Logging.Format != "" {
		result.Observability.Logging.Format = override.Observability.Logging.Format
	}
	if override.Observability.Logging.File != "" {
		result.Observability.Logging.File = override.Observability.Logging.File
	}
	if override.Observability.Metrics.Textfile != "" {
		result.Observability.Metrics.Textfile = override.Observability.Metrics.Textfile
	}

	if override.Debug {
		result.Debug = true
	}

	return &result
}

// mergeChat merges chat configurations
func (l *Loader) mergeChat(base, override ChatConfig) ChatConfig {
	result := base

	if override.Theme != "" {
		result.Theme = override.Theme
	}
	if override.Plain {
		result.Plain = true
	}
	if override.Width != 0 {
		result.Width = override.Width
	}

	return result
}

// applyEnvironmentOverrides applies environment variable overrides to config
func (l *Loader) applyEnvironmentOverrides(config *Config) {
	prefix := l.precedence.EnvironmentPrefix

	if apiKey := l.getenv(prefix + "_API_KEY"); apiKey != "" {
		config.API.APIKey = apiKey
	}
	// fall back to the provider's conventional variable
	if config.API.APIKey == "" && config.API.APIKeyEnvVar != "" {
		if apiKey := l.getenv(config.API.APIKeyEnvVar); apiKey != "" {
			config.API.APIKey = apiKey
		}
	}

	if model := l.getenv(prefix + "_MODEL"); model != "" {
		config.API.Model = model
	}

	if provider := l.getenv(prefix + "_PROVIDER"); provider != "" {
		config.API.Provider = provider
	}

	if baseURL := l.getenv(prefix + "_BASE_URL"); baseURL != "" {
		config.API.BaseURL = baseURL
	}

	if timeout := l.getenv(prefix + "_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.API.Timeout = d
		}
	}

	if rpm := l.getenv(prefix + "_REQUESTS_PER_MINUTE"); rpm != "" {
		if n, err := strconv.Atoi(rpm); err == nil {
			config.API.RateLimit.RequestsPerMinute = n
		}
	}

	if dir := l.getenv(prefix + "_DATA_DIR"); dir != "" {
		config.Data.Directory = dir
	}

	if level := l.getenv(prefix + "_LOG_LEVEL"); level != "" {
		config.Observability.Logging.Level = strings.ToLower(level)
	}

	if textfile := l.getenv(prefix + "_METRICS_TEXTFILE"); textfile != "" {
		config.Observability.Metrics.Textfile = textfile
	}

	if debug := l.getenv(prefix + "_DEBUG"); strings.ToLower(debug) == "true" || debug == "1" {
		config.Debug = true
	}
}

// GetConfigPaths returns the configuration file paths to check
func GetConfigPaths() ConfigPrecedence {
	userConfigPath := filepath.Join(xdg.ConfigHome, "gem", "config.json")

	systemConfigPath := "/etc/gem/config.json"
	if runtime.GOOS == "windows" {
		systemConfigPath = filepath.Join(os.Getenv("PROGRAMDATA"), "gem", "config.json")
	}

	return ConfigPrecedence{
		SystemConfig:      systemConfigPath,
		UserConfig:        userConfigPath,
		ProjectConfig:     filepath.Join(".gem", "config.json"),
		LocalConfig:       filepath.Join(".gem", "config.local.json"),
		EnvironmentPrefix: "GEM",
	}
}

// FindConfigFile searches for a configuration file in standard locations
func (l *Loader) FindConfigFile() (string, error) {
	checkPaths := []string{
		l.precedence.LocalConfig,
		l.precedence.ProjectConfig,
		l.precedence.UserConfig,
		l.precedence.SystemConfig,
	}

	for _, path := range checkPaths {
		if path == "" {
			continue
		}
		if _, err := l.fs.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no configuration file found")
}
