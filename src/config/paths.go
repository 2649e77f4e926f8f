package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// StoragePaths contains paths for application storage
type StoragePaths struct {
	DatabasePath string
	KeyPath      string
	LogDir       string
}

// GetDefaultStoragePaths returns default storage paths using XDG base directories
func GetDefaultStoragePaths() StoragePaths {
	return StoragePaths{
		DatabasePath: filepath.Join(xdg.StateHome, "gem", "gem.db"),
		KeyPath:      filepath.Join(xdg.DataHome, "gem", "secret.key"),
		LogDir:       filepath.Join(xdg.StateHome, "gem", "logs"),
	}
}

// StoragePaths resolves storage locations, honoring data.directory.
func (c *Config) StoragePaths() StoragePaths {
	paths := GetDefaultStoragePaths()
	if dir := c.Data.Directory; dir != "" {
		paths.DatabasePath = filepath.Join(dir, "gem.db")
		paths.KeyPath = filepath.Join(dir, "secret.key")
	}
	if c.Observability.Logging.File != "" {
		paths.LogDir = filepath.Dir(c.Observability.Logging.File)
	}
	return paths
}
