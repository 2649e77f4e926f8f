// Package settings persists the user's model choice and API key.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/elee1766/gem/src/aisdk"
	"github.com/elee1766/gem/src/apperr"
	"github.com/elee1766/gem/src/storage"
	"github.com/go-playground/validator/v10"
)

const userConfigKey = "user_config"

// MinAPIKeyLength is the shortest key accepted by SaveAPIKey.
const MinAPIKeyLength = 12

var errNoKeyTester = errors.New("no key tester configured")

// UserConfig is the persisted user record. APIKey holds the sealed key.
type UserConfig struct {
	Model     AIModel `json:"model"`
	APIKey    string  `json:"api_key,omitempty"`
	HasAPIKey bool    `json:"has_api_key"`
}

// DefaultUserConfig is returned when nothing usable is stored.
func DefaultUserConfig() UserConfig {
	return UserConfig{Model: DefaultModel}
}

type apiKeyInput struct {
	Key string `validate:"required,min=12"`
}

// keyValidationMessage names the rule a rejected key broke.
func keyValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "min" {
		return fmt.Sprintf("API key is too short; expected at least %d characters", MinAPIKeyLength)
	}
	return "API key cannot be empty"
}

// Config wires a Service.
type Config struct {
	DB     storage.ExecQuerier
	Cipher *Cipher
	// Tester verifies keys before they are saved.
	Tester  aisdk.KeyTester
	Timeout time.Duration
	Logger  *slog.Logger
}

// Service reads and writes the user config.
type Service struct {
	db       storage.ExecQuerier
	cipher   *Cipher
	tester   aisdk.KeyTester
	timeout  time.Duration
	validate *validator.Validate
	logger   *slog.Logger

	mu sync.Mutex
}

// New creates a settings service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = apperr.DefaultTimeout
	}
	return &Service{
		db:       cfg.DB,
		cipher:   cfg.Cipher,
		tester:   cfg.Tester,
		timeout:  timeout,
		validate: validator.New(),
		logger:   logger.With("component", "settings"),
	}
}

// Load returns the stored config, or DefaultUserConfig when none is stored
// or the record cannot be decoded.
func (s *Service) Load(ctx context.Context) (UserConfig, error) {
	setting, err := storage.GetSetting(ctx, s.db, userConfigKey)
	if err != nil {
		return DefaultUserConfig(), fmt.Errorf("load user config: %w", err)
	}
	if setting == nil {
		return DefaultUserConfig(), nil
	}

	cfg := DefaultUserConfig()
	if err := json.Unmarshal([]byte(setting.Value), &cfg); err != nil {
		s.logger.Warn("stored user config is unreadable, using defaults", "error", err)
		return DefaultUserConfig(), nil
	}
	return cfg, nil
}

func (s *Service) save(ctx context.Context, cfg UserConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return storage.PutSetting(ctx, s.db, userConfigKey, string(data))
}

// SaveAPIKey validates key, tests it against the live API and stores it
// sealed. Every failure is a credential error.
func (s *Service) SaveAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if err := s.validate.Struct(apiKeyInput{Key: key}); err != nil {
		return apperr.APIKey(keyValidationMessage(err), nil)
	}
	if s.tester == nil {
		return apperr.APIKey("cannot verify API key", errNoKeyTester)
	}

	_, err := apperr.Try(ctx, s.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.tester.TestKey(ctx, key)
	})
	if err != nil {
		s.logger.Info("API key rejected", "error", err)
		return apperr.APIKey("enter a valid API key", err)
	}

	sealed, err := s.cipher.Encrypt(key)
	if err != nil {
		return apperr.APIKey("could not encrypt API key", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.Load(ctx)
	if err != nil {
		return apperr.APIKey("could not save API key", err)
	}
	cfg.APIKey = sealed
	cfg.HasAPIKey = true
	if err := s.save(ctx, cfg); err != nil {
		return apperr.APIKey("could not save API key", err)
	}
	s.logger.Info("API key saved")
	return nil
}

// APIKey returns the decrypted key.
func (s *Service) APIKey(ctx context.Context) (string, error) {
	cfg, err := s.Load(ctx)
	if err != nil {
		return "", apperr.APIKey("API key is not set", err)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return "", apperr.APIKey("API key is not set", nil)
	}
	key, err := s.cipher.Decrypt(cfg.APIKey)
	if err != nil || strings.TrimSpace(key) == "" {
		return "", apperr.APIKey("API key is not set", err)
	}
	return key, nil
}

// SaveModel stores the chosen model.
func (s *Service) SaveModel(ctx context.Context, model AIModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.Load(ctx)
	if err != nil {
		return err
	}
	cfg.Model = ModelFromNumber(model.Number)
	if err := s.save(ctx, cfg); err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

// Model returns the stored model.
func (s *Service) Model(ctx context.Context) (AIModel, error) {
	cfg, err := s.Load(ctx)
	return cfg.Model, err
}
