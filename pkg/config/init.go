package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
)

// configFileTemplate is the sample configuration written by InitConfig.
// Durations and sizes use the human-readable forms the loader accepts.
const configFileTemplate = `# KyberChat Configuration File
#
# Any value can be overridden with a KYBERCHAT_-prefixed environment
# variable, e.g. KYBERCHAT_SERVER_PORT=8443 or KYBERCHAT_LOGGING_LEVEL=DEBUG.

logging:
  # DEBUG, INFO, WARN, ERROR
  level: INFO
  # text or json
  format: text
  # stdout, stderr, or a file path
  output: stdout

server:
  # HTTP port serving both the REST API and the websocket gateway
  port: 5000
  cors_origins:
    - "*"
  debug: false

# Maximum time to wait for in-flight requests on shutdown
shutdown_timeout: 30s

database:
  # sqlite (single node) or postgres
  type: sqlite
  sqlite:
    path: %q
#  postgres:
#    host: localhost
#    port: 5432
#    database: kyberchat
#    user: kyberchat
#    password: ""
#    sslmode: disable

auth:
  # HMAC signing key for access and refresh tokens (at least 32 characters)
  jwt_secret: %q
  access_token_ttl: 1h
  refresh_token_ttl: 720h
  # Set to true when serving over HTTPS
  cookie_secure: false
  # Require upper, lower, and digit characters in passwords
  validate_password_strength: false

uploads:
  # filesystem or s3
  backend: filesystem
  path: ./uploads
  max_file_size: 50Mi
#  s3:
#    bucket: kyberchat-attachments
#    region: us-east-1
#    key_prefix: attachments/
#    force_path_style: false

metrics:
  enabled: false
  port: 9091

telemetry:
  enabled: false
  endpoint: localhost:4317
  insecure: true
  sample_rate: 1.0
  profiling:
    enabled: false
    endpoint: http://localhost:4040
`

// InitConfig writes a sample configuration file to the default location
// and returns the path written. Fails when a config file already exists
// unless force is set.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()
	if err := InitConfigToPath(configPath, force); err != nil {
		return "", err
	}

	return configPath, nil
}

// InitConfigToPath writes a sample configuration file with a freshly
// generated JWT secret to the given path, creating parent directories as
// needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	secret, err := generateJWTSecret()
	if err != nil {
		return fmt.Errorf("failed to generate JWT secret: %w", err)
	}

	dbPath := filepath.Join(GetConfigDir(), "kyberchat.db")
	content := fmt.Sprintf(configFileTemplate, dbPath, secret)

	// Restricted permissions: the file holds the JWT signing secret.
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateJWTSecret returns a fresh random secret long enough for HMAC
// signing (48 characters).
func generateJWTSecret() (string, error) {
	buf := make([]byte, 36)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
