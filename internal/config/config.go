// Package config handles parley configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Command-line flags bound with BindFlag
//  2. Environment variables (PARLEY_*)
//  3. Config file (~/.config/parley/config.yaml)
//  4. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// DefaultBackendURL is where the app is assumed to be deployed.
	DefaultBackendURL = "http://localhost"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	DefaultLogStderr  = "auto"

	KeyBackendURL = "backend.url"
	KeyLogLevel   = "log.level"
	KeyLogFormat  = "log.format"
	KeyLogFile    = "log.file"
	KeyLogStderr  = "log.stderr"
)

// Config holds the parley configuration.
type Config struct {
	v *viper.Viper
}

// Load reads configuration from the config file, environment and defaults.
// A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault(KeyBackendURL, DefaultBackendURL)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogStderr, DefaultLogStderr)

	if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("PARLEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// Dir returns the directory holding config.yaml.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "parley"), nil
}

// BindFlag lets an explicitly set flag override key.
func (c *Config) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag for config key %q", key)
	}
	return c.v.BindPFlag(key, flag)
}

// GetString returns a configuration value as string.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// BackendURL returns the deployment URL the backend origin is derived from.
func (c *Config) BackendURL() string {
	return strings.TrimSpace(c.GetString(KeyBackendURL))
}

func (c *Config) LogLevel() string  { return c.GetString(KeyLogLevel) }
func (c *Config) LogFormat() string { return c.GetString(KeyLogFormat) }
func (c *Config) LogFile() string   { return c.GetString(KeyLogFile) }
func (c *Config) LogStderr() string { return c.GetString(KeyLogStderr) }
