// Package config provides configuration loading and validation for pop-upgrade.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/tessro/pop-upgrade/internal/paths"
)

// GlobalConfig represents the client configuration file.
type GlobalConfig struct {
	// LogLevel is the client log verbosity ("debug", "info", "warn", "error").
	LogLevel string `toml:"log_level"`

	// SocketPath overrides the daemon socket location.
	SocketPath string `toml:"socket_path"`

	// Output controls terminal rendering.
	Output OutputConfig `toml:"output"`
}

// OutputConfig controls terminal rendering.
type OutputConfig struct {
	// Color enables styled output. Unset means enabled.
	Color *bool `toml:"color"`
	// Format is the default format for machine-readable commands ("text", "json", "yaml").
	Format string `toml:"format"`
}

// DefaultLogLevel is the default client log level.
const DefaultLogLevel = "info"

// DefaultOutputFormat is the default format for status-style commands.
const DefaultOutputFormat = "text"

// GlobalConfigPath returns the path to the client config.
func GlobalConfigPath() (string, error) {
	return paths.ConfigPath()
}

// LoadGlobalConfig loads the client configuration.
// Returns nil config and nil error if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	path, err := GlobalConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadGlobalConfigFromPath(path)
}

// LoadGlobalConfigFromPath loads the config from a specific path and validates it.
// Returns nil config and nil error if the file doesn't exist.
func LoadGlobalConfigFromPath(path string) (*GlobalConfig, error) {
	var cfg GlobalConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field values that have a closed set of options.
func (c *GlobalConfig) Validate() error {
	if c == nil {
		return nil
	}
	if c.LogLevel != "" {
		if err := ValidateLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	if c.Output.Format != "" {
		if err := ValidateOutputFormat(c.Output.Format); err != nil {
			return err
		}
	}
	return nil
}

// GetLogLevel returns the configured log level or the default.
func (c *GlobalConfig) GetLogLevel() string {
	if c != nil && c.LogLevel != "" {
		return c.LogLevel
	}
	return DefaultLogLevel
}

// GetSocketPath returns the configured socket path or the environment/default path.
func (c *GlobalConfig) GetSocketPath() string {
	if c != nil && c.SocketPath != "" {
		return c.SocketPath
	}
	return paths.SocketPath()
}

// ColorEnabled reports whether styled output is enabled.
func (c *GlobalConfig) ColorEnabled() bool {
	if c != nil && c.Output.Color != nil {
		return *c.Output.Color
	}
	return true
}

// GetOutputFormat returns the configured output format or the default.
func (c *GlobalConfig) GetOutputFormat() string {
	if c != nil && c.Output.Format != "" {
		return c.Output.Format
	}
	return DefaultOutputFormat
}
