package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kyberchat/kyberchat/internal/bytesize"
)

// writeConfig drops a config file with the given name into dir and returns
// its path.
func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// dbPath builds a YAML-safe sqlite path under dir. Backslashes inside
// double-quoted YAML strings read as escape sequences on Windows, so the
// path goes through ToSlash first.
func dbPath(dir string) string {
	return filepath.ToSlash(filepath.Join(dir, "kyberchat.db"))
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
logging:
  level: "INFO"

database:
  type: sqlite
  sqlite:
    path: "`+dbPath(dir)+`"

server:
  port: 5000

auth:
  jwt_secret: "test-secret-key-for-testing-minimum-32-chars"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Everything the file leaves out comes from defaults.
	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"logging format", cfg.Logging.Format, "text"},
		{"logging output", cfg.Logging.Output, "stdout"},
		{"shutdown timeout", cfg.ShutdownTimeout, 30 * time.Second},
		{"server port", cfg.Server.Port, 5000},
		{"uploads backend", cfg.Uploads.Backend, "filesystem"},
		{"max file size", cfg.Uploads.MaxFileSize, 50 * bytesize.MiB},
		{"access token ttl", cfg.Auth.AccessTokenTTL, time.Hour},
		{"refresh token ttl", cfg.Auth.RefreshTokenTTL, 720 * time.Hour},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	// A missing config file is not an error: the server runs on defaults,
	// which keeps quick local testing config-free.
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Load without a config file: %v", err)
	}
	if cfg == nil {
		t.Fatal("got a nil config")
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("default server port: got %d, want 5000", cfg.Server.Port)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "invalid.yaml", `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error for malformed YAML")
	}
}

func TestLoad_TOML(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.toml", `
[logging]
level = "WARN"
format = "json"

[database]
type = "sqlite"

[database.sqlite]
path = "`+dbPath(dir)+`"

[auth]
jwt_secret = "test-secret-key-for-testing-minimum-32-chars"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load TOML: %v", err)
	}

	if cfg.Logging.Level != "WARN" {
		t.Errorf("level: got %q, want WARN", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("format: got %q, want json", cfg.Logging.Format)
	}
}

func TestLoad_HumanReadableValues(t *testing.T) {
	// Durations and byte sizes accept the human-readable forms.
	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
shutdown_timeout: 45s

database:
  type: sqlite
  sqlite:
    path: "`+dbPath(dir)+`"

auth:
  jwt_secret: "test-secret-key-for-testing-minimum-32-chars"
  access_token_ttl: 2h
  refresh_token_ttl: 168h

uploads:
  max_file_size: 10Mi
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ShutdownTimeout != 45*time.Second {
		t.Errorf("shutdown_timeout: got %v, want 45s", cfg.ShutdownTimeout)
	}
	if cfg.Auth.AccessTokenTTL != 2*time.Hour {
		t.Errorf("access_token_ttl: got %v, want 2h", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Auth.RefreshTokenTTL != 168*time.Hour {
		t.Errorf("refresh_token_ttl: got %v, want 168h", cfg.Auth.RefreshTokenTTL)
	}
	if cfg.Uploads.MaxFileSize != 10*bytesize.MiB {
		t.Errorf("max_file_size: got %v, want 10Mi", cfg.Uploads.MaxFileSize)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("KYBERCHAT_LOGGING_LEVEL", "ERROR")
	t.Setenv("KYBERCHAT_SERVER_PORT", "9090")

	dir := t.TempDir()
	path := writeConfig(t, dir, "config.yaml", `
logging:
  level: "INFO"

database:
  type: sqlite
  sqlite:
    path: "`+dbPath(dir)+`"

server:
  port: 5000

auth:
  jwt_secret: "test-secret-key-for-testing-minimum-32-chars"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("level: got %q, want the ERROR set via env", cfg.Logging.Level)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port: got %d, want the 9090 set via env", cfg.Server.Port)
	}
}

func TestMustLoad_MissingExplicitFile(t *testing.T) {
	_, err := MustLoad(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected an error for a missing explicit config file")
	}
	if !strings.Contains(err.Error(), "configuration file not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"log level", cfg.Logging.Level, "INFO"},
		{"log format", cfg.Logging.Format, "text"},
		{"log output", cfg.Logging.Output, "stdout"},
		{"shutdown timeout", cfg.ShutdownTimeout, 30 * time.Second},
		{"server port", cfg.Server.Port, 5000},
		{"uploads backend", cfg.Uploads.Backend, "filesystem"},
		{"uploads path", cfg.Uploads.Path, "./uploads"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()

	if !filepath.IsAbs(path) {
		t.Errorf("expected an absolute path, got %q", path)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("file name: got %q, want config.yaml", filepath.Base(path))
	}
}

func TestGetConfigDir(t *testing.T) {
	dir := GetConfigDir()

	if filepath.Base(dir) != "kyberchat" {
		t.Errorf("directory name: got %q, want kyberchat", filepath.Base(dir))
	}
}
