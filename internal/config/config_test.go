// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "miraged.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8008"
  name: "example.test"

registration:
  enabled: false
  default_room_version: "11"

fixtures:
  path: "./seed.toml"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8008" {
		t.Errorf("HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Server.Name != "example.test" {
		t.Errorf("Name = %q", cfg.Server.Name)
	}
	if cfg.Registration.Enabled {
		t.Error("Registration.Enabled should be false")
	}
	if cfg.Registration.DefaultRoomVersion != "11" {
		t.Errorf("DefaultRoomVersion = %q", cfg.Registration.DefaultRoomVersion)
	}
	if cfg.Fixtures.Path != "./seed.toml" {
		t.Errorf("Fixtures.Path = %q", cfg.Fixtures.Path)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_DefaultsApply(t *testing.T) {
	path := writeConfig(t, `
server:
  name: "example.test"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.HTTPAddr != "127.0.0.1:8008" {
		t.Errorf("HTTPAddr default = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Registration.DefaultRoomVersion != "10" {
		t.Errorf("DefaultRoomVersion default = %q", cfg.Registration.DefaultRoomVersion)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("MIRAGE_TEST_NAME", "env.test")

	path := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8008"
  name: "${MIRAGE_TEST_NAME}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Name != "env.test" {
		t.Errorf("Name = %q, want env.test", cfg.Server.Name)
	}
}

func TestLoad_MissingServerName(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "127.0.0.1:8008"
  name: ""
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "server.name") {
		t.Errorf("expected server.name validation error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
