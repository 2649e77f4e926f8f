package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/elee1766/gem/src/app"
	"github.com/elee1766/gem/src/config"
)

// loadConfig loads the layered configuration and applies CLI flags on top
func loadConfig(cli *CLI) (*config.Config, error) {
	if cli.Config != "" {
		if _, err := os.Stat(cli.Config); err != nil {
			return nil, usagef("config file %s: %v", cli.Config, err)
		}
	}

	cfg, err := config.NewLoader(configPrecedence(cli)).Load()
	if err != nil {
		return nil, err
	}

	overrideConfigFromCLI(cfg, cli)
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// overrideConfigFromCLI overrides configuration values with CLI flags
func overrideConfigFromCLI(cfg *config.Config, cli *CLI) {
	if cli.Provider != "" {
		cfg.API.Provider = cli.Provider
	}
	if cli.Model != "" {
		cfg.API.Model = cli.Model
	}
	if cli.APIKey != "" {
		cfg.API.APIKey = cli.APIKey
	}
	if cli.BaseURL != "" {
		cfg.API.BaseURL = cli.BaseURL
	}
	if cli.DataDir != "" {
		cfg.Data.Directory = cli.DataDir
	}
	if cli.LogLevel != "" {
		cfg.Observability.Logging.Level = strings.ToLower(cli.LogLevel)
	}
}

// openApp resolves the config and opens the app. Interactive sessions log
// to a file so records do not interleave with replies.
func openApp(ctx context.Context, cli *CLI, interactive bool) (*app.App, error) {
	cfg, err := loadConfig(cli)
	if err != nil {
		return nil, err
	}

	var logger *slog.Logger
	if interactive {
		logger = createREPLLogger(cfg)
	} else {
		logger = configLogger(cfg)
	}

	return app.New(ctx, app.AppConfig{
		Config: cfg,
		Logger: logger,
	})
}

// maskAPIKey masks an API key for display
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// readAll reads piped input for commands that accept text on stdin
func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
