package config

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Manager manages configuration loading, validation, and access
type Manager struct {
	config     *Config
	loader     *Loader
	validator  *Validator
	configPath string
	mu         sync.RWMutex
}

// NewManager loads configuration through loader
func NewManager(loader *Loader) (*Manager, error) {
	config, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Find which config file was actually loaded
	configPath, _ := loader.FindConfigFile()

	return &Manager{
		config:     config,
		loader:     loader,
		validator:  NewValidator(),
		configPath: configPath,
	}, nil
}

// NewManagerWithConfig creates a manager with a specific configuration
func NewManagerWithConfig(config *Config) (*Manager, error) {
	validator := NewValidator()
	if err := validator.Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Manager{
		config:    config,
		loader:    NewLoader(GetConfigPaths()),
		validator: validator,
	}, nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// GetAPIConfig returns the API configuration
func (m *Manager) GetAPIConfig() APIConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.API
}

// GetConfigPath returns the path of the loaded configuration file
func (m *Manager) GetConfigPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.configPath
}

// SaveTo saves the configuration to a specific path
func (m *Manager) SaveTo(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.loader.SaveFile(m.config, path)
}

// Update applies a partial configuration given as a JSON-shaped map
func (m *Manager) Update(updates map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	updateJSON, err := json.Marshal(updates)
	if err != nil {
		return fmt.Errorf("failed to marshal updates: %w", err)
	}

	var partialConfig Config
	if err := json.Unmarshal(updateJSON, &partialConfig); err != nil {
		return fmt.Errorf("failed to unmarshal updates: %w", err)
	}

	merged := m.loader.mergeConfigs(m.config, &partialConfig)
	if err := m.validator.Validate(merged); err != nil {
		return fmt.Errorf("invalid configuration after update: %w", err)
	}
	m.config = merged

	return nil
}

// ExportConfig exports the configuration as JSON
func (m *Manager) ExportConfig(includeSecrets bool) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	config := *m.config
	if !includeSecrets {
		config.API.APIKey = ""
	}

	return json.MarshalIndent(config, "", "  ")
}
