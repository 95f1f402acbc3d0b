// Package config loads CLI configuration from a YAML file with viper.
// A default config file is written on first run so users have something
// to edit.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	keyBaseURL     = "base_url"
	keyHTTPTimeout = "http_timeout"
	keyDataDir     = "data_dir"
	keyVerbose     = "verbose"

	defaultBaseURL     = "http://localhost:8080"
	defaultHTTPTimeout = 30 * time.Second
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# gudang CLI configuration

# Server base URL
base_url: http://localhost:8080

# HTTP request timeout
http_timeout: 30s

# Data directory for tokens and offline snapshots
# (optional; overridable by --data-dir flag)
# data_dir:

# Log every request and response
verbose: false
`

// Config holds the resolved CLI configuration.
type Config struct {
	BaseURL     string
	HTTPTimeout time.Duration
	DataDir     string
	Verbose     bool
}

// Load reads config.yaml from configDir. The directory and a default
// config.yaml are created on first run; a missing config file is not an
// error.
func Load(configDir string) (*Config, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensuring config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensuring default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(keyBaseURL, defaultBaseURL)
	v.SetDefault(keyHTTPTimeout, defaultHTTPTimeout)
	v.SetDefault(keyDataDir, filepath.Join(configDir, "data"))
	v.SetDefault(keyVerbose, false)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return &Config{
		BaseURL:     v.GetString(keyBaseURL),
		HTTPTimeout: v.GetDuration(keyHTTPTimeout),
		DataDir:     v.GetString(keyDataDir),
		Verbose:     v.GetBool(keyVerbose),
	}, nil
}

// DefaultConfigDir returns the per-user config directory, honoring the
// GUDANG_CONFIG_DIR environment variable.
func DefaultConfigDir() (string, error) {
	if dir := os.Getenv("GUDANG_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}
	return filepath.Join(base, "gudang"), nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if none exists.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("checking config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
