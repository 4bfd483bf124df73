// Package config provides configuration management for the key-value
// store binaries. It loads default settings from config.yml and
// optionally from a .env file, with thread-safe singleton access; the
// cmd/ binaries' flag values take precedence over whatever config.yml
// supplies.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Config holds the defaults the cmd/ binaries fall back to when a flag
// is not given explicitly.
type Config struct {
	DATA_DIR string `yaml:"DATA_DIR"` // default directory for the engine's on-disk state
	ADDR     string `yaml:"ADDR"`     // default TCP listen/dial address
	ENGINE   string `yaml:"ENGINE"`   // default engine name: "kvs" or "sled"
}

var defaultConfig = Config{
	DATA_DIR: "./data",
	ADDR:     "127.0.0.1:4000",
	ENGINE:   "kvs",
}

var (
	appConfig *Config
	once      sync.Once
	initErr   error
)

// LoadConfig loads a .env file if present (ignored if missing), then
// reads internal/config/config.yml if present, overlaying it onto the
// built-in defaults; a missing config.yml is not an error, since the
// defaults alone are a usable configuration. Environment variables
// referenced in config.yml are expanded via os.ExpandEnv. A sync.Once
// ensures the file is read only once per process even under concurrent
// callers.
func LoadConfig() (*Config, error) {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			slog.Debug("config: no .env file found", "error", err)
		} else {
			slog.Debug("config: .env file loaded")
		}

		cfg := defaultConfig

		raw, err := os.ReadFile("internal/config/config.yml")
		switch {
		case err == nil:
			if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
				initErr = fmt.Errorf("config: parse config.yml: %w", err)
				return
			}
		case os.IsNotExist(err):
			slog.Debug("config: no config.yml found, using built-in defaults")
		default:
			initErr = fmt.Errorf("config: read config.yml: %w", err)
			return
		}

		appConfig = &cfg
	})
	if initErr != nil {
		return nil, initErr
	}
	return appConfig, nil
}

// GetConfig returns the singleton configuration instance. Panics if
// LoadConfig has not yet been called successfully.
func GetConfig() *Config {
	if appConfig == nil {
		panic("config not loaded - call LoadConfig() first")
	}
	return appConfig
}
