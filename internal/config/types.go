package config

import (
	"time"
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level        string `mapstructure:"level"`         // debug, info, warn, error
	Format       string `mapstructure:"format"`        // text, json, pretty
	Output       string `mapstructure:"output"`        // stdout, stderr, or file path
	FilePath     string `mapstructure:"file_path"`     // path to log file (in addition to output)
	MaxSizeMB    int    `mapstructure:"max_size_mb"`   // max size in MB before rotation
	MaxBackups   int    `mapstructure:"max_backups"`   // max number of old log files to keep
	MaxAgeDays   int    `mapstructure:"max_age_days"`  // max days to retain old log files
	EnableCaller bool   `mapstructure:"enable_caller"` // include source file/line in logs
	NoColor      bool   `mapstructure:"no_color"`      // disable colored output (pretty format only)
}

// OutputConfig holds output formatting options
type OutputConfig struct {
	Format string `mapstructure:"format"` // table, json, yaml, quiet
	Color  bool   `mapstructure:"color"`
}

// PDALConfig controls how the pdal executable is invoked
type PDALConfig struct {
	// Binary is the pdal executable name or path
	Binary string `mapstructure:"binary"`

	// Timeout bounds a single pdal invocation. Statistics over large
	// remote files can take a long time, so keep this generous.
	Timeout time.Duration `mapstructure:"timeout"`
}

// HTTPConfig holds settings for the metadata and schema HTTP client
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// ValidationConfig controls STAC schema validation of written records
type ValidationConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Config is the complete configuration for the canelevation CLI
type Config struct {
	Log        LogConfig        `mapstructure:"log"`
	Output     OutputConfig     `mapstructure:"output"`
	PDAL       PDALConfig       `mapstructure:"pdal"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Validation ValidationConfig `mapstructure:"validation"`
}

// DefaultConfig returns sensible defaults for the CLI
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:        "info",
			Format:       "pretty",
			Output:       "stderr",
			FilePath:     "",
			MaxSizeMB:    100,
			MaxBackups:   3,
			MaxAgeDays:   28,
			EnableCaller: false,
		},
		Output: OutputConfig{
			Format: "table",
			Color:  true,
		},
		PDAL: PDALConfig{
			Binary:  "pdal",
			Timeout: 2 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:   60 * time.Second,
			UserAgent: "canelevation",
		},
		Validation: ValidationConfig{
			Enabled: true,
		},
	}
}
