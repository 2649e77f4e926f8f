package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", config.Version)
	}
	if config.API.Provider != ProviderGemini {
		t.Errorf("Expected provider gemini, got %s", config.API.Provider)
	}
	if config.Chat.Plain {
		t.Error("Expected rendering to be on by default")
	}
	if err := NewValidator().Validate(config); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "unknown provider", mutate: func(c *Config) { c.API.Provider = "anthropic" }, wantErr: "Provider"},
		{name: "bad base url", mutate: func(c *Config) { c.API.BaseURL = "not a url" }, wantErr: "BaseURL"},
		{name: "bad theme", mutate: func(c *Config) { c.Chat.Theme = "neon" }, wantErr: "Theme"},
		{name: "bad log level", mutate: func(c *Config) { c.Observability.Logging.Level = "trace" }, wantErr: "Level"},
		{name: "negative width", mutate: func(c *Config) { c.Chat.Width = -1 }, wantErr: "Width"},
		{
			name:    "openrouter without model",
			mutate:  func(c *Config) { c.API.Provider = ProviderOpenRouter },
			wantErr: "api.model",
		},
		{
			name: "openrouter with model",
			mutate: func(c *Config) {
				c.API.Provider = ProviderOpenRouter
				c.API.Model = "google/gemini-2.5-flash"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := validator.Validate(c)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var vErr ValidationError
			require.True(t, errors.As(err, &vErr), "expected ValidationError, got %v", err)
			assert.Contains(t, vErr.Error(), tt.wantErr)
		})
	}
}

func TestLoaderPrecedence(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/gem/config.json", []byte(`{"api":{"timeout":5000000000},"chat":{"width":100}}`), 0644))
	require.NoError(t, afero.WriteFile(fs, "/home/u/.config/gem/config.json", []byte(`{"api":{"provider":"openrouter","model":"google/gemini-2.5-flash"}}`), 0644))
	require.NoError(t, afero.WriteFile(fs, ".gem/config.local.json", []byte(`{"chat":{"plain":true},"data":{"directory":"/data"}}`), 0644))

	loader := NewLoaderFs(fs, ConfigPrecedence{
		SystemConfig:  "/etc/gem/config.json",
		UserConfig:    "/home/u/.config/gem/config.json",
		ProjectConfig: ".gem/config.json",
		LocalConfig:   ".gem/config.local.json",
	})

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, ProviderOpenRouter, cfg.API.Provider)
	assert.Equal(t, "google/gemini-2.5-flash", cfg.API.Model)
	assert.Equal(t, 100, cfg.Chat.Width)
	assert.True(t, cfg.Chat.Plain)
	assert.Equal(t, "/data/gem.db", cfg.StoragePaths().DatabasePath)

	path, err := loader.FindConfigFile()
	require.NoError(t, err)
	assert.Equal(t, ".gem/config.local.json", path)
}

func TestLoaderRejectsBadJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg.json", []byte(`{"api":`), 0644))

	_, err := NewLoaderFs(fs, ConfigPrecedence{UserConfig: "/cfg.json"}).Load()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "user config"))
}

func TestEnvironmentOverrides(t *testing.T) {
	env := map[string]string{
		"TEST_PROVIDER":            "deepseek",
		"TEST_MODEL":               "deepseek-chat",
		"TEST_TIMEOUT":             "45s",
		"TEST_REQUESTS_PER_MINUTE": "20",
		"TEST_LOG_LEVEL":           "DEBUG",
		"GEMINI_API_KEY":           "from-conventional-var",
	}
	loader := NewLoaderFs(afero.NewMemMapFs(), ConfigPrecedence{EnvironmentPrefix: "TEST"})
	loader.getenv = func(k string) string { return env[k] }

	config := DefaultConfig()
	loader.applyEnvironmentOverrides(config)

	assert.Equal(t, "deepseek", config.API.Provider)
	assert.Equal(t, "deepseek-chat", config.API.Model)
	assert.Equal(t, 45*time.Second, config.API.Timeout)
	assert.Equal(t, 20, config.API.RateLimit.RequestsPerMinute)
	assert.Equal(t, "debug", config.Observability.Logging.Level)
	assert.Equal(t, "from-conventional-var", config.API.APIKey)

	env["TEST_API_KEY"] = "explicit"
	loader.applyEnvironmentOverrides(config)
	assert.Equal(t, "explicit", config.API.APIKey)
}

func TestSaveFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	loader := NewLoaderFs(fs, ConfigPrecedence{UserConfig: "/u/gem/config.json"})

	cfg := DefaultConfig()
	cfg.Chat.Width = 72
	require.NoError(t, loader.SaveFile(cfg, "/u/gem/config.json"))

	exists, err := afero.Exists(fs, "/u/gem/config.json")
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 72, loaded.Chat.Width)
}

func TestManagerUpdate(t *testing.T) {
	m, err := NewManagerWithConfig(DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, m.Update(map[string]interface{}{
		"chat": map[string]interface{}{"theme": "dark"},
	}))
	assert.Equal(t, "dark", m.GetConfig().Chat.Theme)

	err = m.Update(map[string]interface{}{"api": map[string]interface{}{"provider": "nope"}})
	assert.Error(t, err)
	assert.Equal(t, ProviderGemini, m.GetAPIConfig().Provider)

	m.config.API.APIKey = "secret"
	data, err := m.ExportConfig(false)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
}
