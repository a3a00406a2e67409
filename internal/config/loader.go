package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// AppName is used for the config directory and the environment prefix.
const AppName = "canelevation"

// configSearchPaths returns the paths to search for config files in order of precedence
// (later paths have higher priority in Viper)
func configSearchPaths(appName string) []string {
	paths := []string{}

	// System-wide (lowest priority)
	paths = append(paths, filepath.Join("/etc", appName))

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, cwd)
	}

	return paths
}

// UserConfigDir returns the user-specific config directory for the app
func UserConfigDir(appName string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// newViper creates and configures a new Viper instance for the given app
func newViper(appName string) *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml") // default, but will auto-detect

	for _, path := range configSearchPaths(appName) {
		v.AddConfigPath(path)
	}

	// CANELEVATION_PDAL_BINARY overrides pdal.binary, and so on
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load loads the configuration. An empty cfgFile searches the default locations;
// a missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := newViper(AppName)

	setViperDefaults(v, DefaultConfig())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setViperDefaults registers every key so AutomaticEnv can override it
func setViperDefaults(v *viper.Viper, c *Config) {
	for key, value := range flatten(c) {
		v.SetDefault(key, value)
	}
}

// NewViperFromConfig creates a viper instance populated with values from a config struct
func NewViperFromConfig(c *Config) *viper.Viper {
	v := viper.New()
	for key, value := range flatten(c) {
		v.Set(key, value)
	}
	return v
}

// ConfigFileUsed returns the config file path that would be loaded, if any
func ConfigFileUsed(cfgFile string) string {
	if cfgFile != "" {
		return cfgFile
	}
	v := newViper(AppName)
	_ = v.ReadInConfig()
	return v.ConfigFileUsed()
}

func flatten(c *Config) map[string]any {
	return map[string]any{
		"log.level":          c.Log.Level,
		"log.format":         c.Log.Format,
		"log.output":         c.Log.Output,
		"log.file_path":      c.Log.FilePath,
		"log.max_size_mb":    c.Log.MaxSizeMB,
		"log.max_backups":    c.Log.MaxBackups,
		"log.max_age_days":   c.Log.MaxAgeDays,
		"log.enable_caller":  c.Log.EnableCaller,
		"log.no_color":       c.Log.NoColor,
		"output.format":      c.Output.Format,
		"output.color":       c.Output.Color,
		"pdal.binary":        c.PDAL.Binary,
		"pdal.timeout":       c.PDAL.Timeout,
		"http.timeout":       c.HTTP.Timeout,
		"http.user_agent":    c.HTTP.UserAgent,
		"validation.enabled": c.Validation.Enabled,
	}
}
