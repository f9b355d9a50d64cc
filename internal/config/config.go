// ABOUTME: Configuration loading and parsing for miraged
// ABOUTME: Supports YAML files with environment variable expansion

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config represents the complete miraged configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Registration RegistrationConfig `yaml:"registration"`
	Fixtures     FixturesConfig     `yaml:"fixtures"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds the listener address and the server name used as the
// domain part of every identifier the double mints
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	Name     string `yaml:"name"`
}

// RegistrationConfig holds account registration configuration
type RegistrationConfig struct {
	Enabled            bool   `yaml:"enabled"`
	DefaultRoomVersion string `yaml:"default_room_version"`
}

// FixturesConfig points at an optional TOML seed file applied at startup
type FixturesConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration suitable for local client testing.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: "127.0.0.1:8008",
			Name:     "mirage.test",
		},
		Registration: RegistrationConfig{
			Enabled:            true,
			DefaultRoomVersion: "10",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Fields left unset fall back to Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Server.Name == "" {
		return fmt.Errorf("server.name is required")
	}
	if c.Registration.DefaultRoomVersion == "" {
		return fmt.Errorf("registration.default_room_version is required")
	}
	return nil
}
