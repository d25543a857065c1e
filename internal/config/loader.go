package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is the per-project configuration file name.
	DefaultConfigFile = ".lane-detector.yaml"

	// UserConfigFile is the file name inside XDGConfigDir.
	UserConfigFile = "config.yaml"

	// DefaultEnvFile is the dotenv file read by LoadEnv.
	DefaultEnvFile = ".env"
)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel = "LANES_LOG_LEVEL"
	EnvWorkers  = "LANES_WORKERS"
)

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .lane-detector.yaml in the current directory
// 3. Look for config.yaml in XDGConfigDir
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	userConfig := filepath.Join(XDGConfigDir(), UserConfigFile)
	if _, err := os.Stat(userConfig); err == nil {
		return userConfig
	}

	return ""
}

// Load reads a YAML configuration file on top of Default().
// Keys missing from the file keep their default values.
// If the file does not exist, it returns ErrConfigNotFound.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads the configuration a command should run with.
//
// An explicit configPath must exist. Without one, FindConfigFile is used and
// Default() is returned when nothing is found. Environment overrides are
// applied in both cases; the result is not validated.
func Resolve(configPath string) (*Config, string, error) {
	if err := LoadEnv(DefaultEnvFile); err != nil {
		return nil, "", err
	}

	path := FindConfigFile(configPath)
	if configPath != "" && path == "" {
		return nil, "", fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
	}

	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, "", err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// LoadEnv loads variables from a dotenv file into the process environment.
// Variables that are already set are not overridden. A missing file is not
// an error.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides configuration values from the environment.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidWorkers, EnvWorkers, v)
		}
		c.Video.Workers = n
	}
	return nil
}
