package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// SupportedFormats lists the config file formats we support
var SupportedFormats = []string{"yaml", "toml", "json"}

// GenerateConfig writes a default configuration file into dir.
// An empty dir means the user config directory.
func GenerateConfig(dir, format string) (string, error) {
	if !slices.Contains(SupportedFormats, format) {
		return "", fmt.Errorf("unsupported format %q, supported: %v", format, SupportedFormats)
	}

	if dir == "" {
		var err error
		dir, err = UserConfigDir(AppName)
		if err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(dir, fmt.Sprintf("config.%s", format))

	if _, err := os.Stat(configPath); err == nil {
		return configPath, fmt.Errorf("config file already exists: %s", configPath)
	}

	v := NewViperFromConfig(DefaultConfig())
	v.SetConfigType(format)

	if err := v.WriteConfigAs(configPath); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
