// Package config loads sfxd configuration from a YAML file with defaults
// merged underneath and environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// ElevenLabsConfig configures the ElevenLabs API client.
type ElevenLabsConfig struct {
	APIKey        string   `yaml:"api_key,omitempty"`        // ElevenLabs API key (env: ELEVENLABS_API_KEY)
	BaseURL       string   `yaml:"base_url,omitempty"`       // API endpoint override
	MaxRetries    *int     `yaml:"max_retries,omitempty"`    // Retries after the first attempt (default: 3)
	BackoffFactor *float64 `yaml:"backoff_factor,omitempty"` // Base backoff delay in seconds (default: 1.0)
}

// TempFilesConfig configures where generated audio lands by default and how
// long it is kept.
type TempFilesConfig struct {
	Dir             string `yaml:"dir,omitempty"`              // Default output directory
	MaxAgeHours     int    `yaml:"max_age_hours,omitempty"`    // Files older than this are pruned (default: 24)
	CleanupSchedule string `yaml:"cleanup_schedule,omitempty"` // Cron schedule for pruning (default: @hourly)
}

// Config is the sfxd server configuration.
type Config struct {
	ElevenLabs ElevenLabsConfig `yaml:"elevenlabs,omitempty"`
	TempFiles  TempFilesConfig  `yaml:"temp_files,omitempty"`
}

// GetConfigPath returns the default config file path.
// Can be overridden via SFXD_CONFIG_PATH environment variable.
func GetConfigPath() string {
	if envPath := os.Getenv("SFXD_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.sfxd/config.yaml"
	}
	return filepath.Join(homeDir, ".sfxd", "config.yaml")
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// Load loads configuration from the given path, merging file values over
// defaults. A missing file is not an error; defaults and environment
// variables still apply. ELEVENLABS_API_KEY takes precedence over the file.
func Load(path string) (*Config, error) {
	defaults := Config{
		ElevenLabs: ElevenLabsConfig{
			BaseURL: "https://api.elevenlabs.io",
		},
		TempFiles: TempFilesConfig{
			Dir:             defaultTempDir(),
			MaxAgeHours:     24,
			CleanupSchedule: "@hourly",
		},
	}

	expandedPath := expandPath(path)
	if _, err := os.Stat(expandedPath); err == nil {
		data, err := os.ReadFile(expandedPath) //#nosec 304 -- intentional file read for config
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", expandedPath, err)
		}

		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", expandedPath, err)
		}

		if err := mergo.Merge(&defaults, fileConfig, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge config: %w", err)
		}
	}

	if envKey := os.Getenv("ELEVENLABS_API_KEY"); envKey != "" {
		defaults.ElevenLabs.APIKey = envKey
	}

	return &defaults, nil
}

func defaultTempDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sfxd")
	}
	return filepath.Join(homeDir, ".sfxd", "tmp")
}
