package telemetry

// Config controls trace export.
type Config struct {
	// Enabled turns span export on. Off means every span is a no-op.
	Enabled bool

	// ServiceName and ServiceVersion identify this process on the trace
	// backend.
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP gRPC collector address, host:port.
	Endpoint string

	// Insecure disables TLS on the collector connection.
	Insecure bool

	// SampleRate is the fraction of traces exported, 0.0 to 1.0.
	SampleRate float64
}

// DefaultConfig returns the config used when none is given: tracing off,
// pointed at a local collector should it be turned on.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "kyberchat",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
