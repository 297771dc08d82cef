package api

import "time"

// Config configures the HTTP server fronting the REST API and the
// websocket gateway. Both surfaces share one listener.
type Config struct {
	// Port is the HTTP+WS listen port.
	// Default: 5000
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// CORSOrigins lists the origins allowed to call the API from a
	// browser. Default: ["*"]
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`

	// Debug drops the logger to debug level for this process.
	Debug bool `mapstructure:"debug" yaml:"debug"`

	// ShutdownTimeout bounds the graceful drain after the serve context is
	// cancelled. Set by the caller, not by the server config section.
	// Default: 30s
	ShutdownTimeout time.Duration `mapstructure:"-" yaml:"-"`
}

// applyDefaults fills in zero values with sensible defaults.
func (c *Config) applyDefaults() {
	if c.Port <= 0 {
		c.Port = 5000
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}
