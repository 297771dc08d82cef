package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kyberchat/kyberchat/internal/logger"
	"github.com/kyberchat/kyberchat/internal/telemetry"
	"github.com/kyberchat/kyberchat/pkg/api"
	"github.com/kyberchat/kyberchat/pkg/api/handlers"
	"github.com/kyberchat/kyberchat/pkg/chat"
	"github.com/kyberchat/kyberchat/pkg/config"
	"github.com/kyberchat/kyberchat/pkg/gateway"
	"github.com/kyberchat/kyberchat/pkg/metrics"
	"github.com/kyberchat/kyberchat/pkg/store"

	// Import prometheus metrics to register init() functions
	_ "github.com/kyberchat/kyberchat/pkg/metrics/prometheus"
)

// tokenPurgeInterval is how often expired refresh tokens are deleted.
const tokenPurgeInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the KyberChat server",
	Long: `Start the KyberChat server with the specified configuration.

The server runs in the foreground and serves the REST API and the websocket
gateway on a single port. Send SIGINT or SIGTERM for a graceful shutdown:
connected clients receive a close frame and in-flight requests get to finish
within shutdown_timeout.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/kyberchat/config.yaml.

Examples:
  # Start with the default config
  kyberchat serve

  # Start with a custom config file
  kyberchat serve --config /etc/kyberchat/config.yaml

  # Start with environment variable overrides
  KYBERCHAT_LOGGING_LEVEL=DEBUG kyberchat serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// The schema tolerates an empty secret so that init can write a config
	// file without one, but the server never starts without it.
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not set: add it to the config file or set KYBERCHAT_AUTH_JWT_SECRET")
	}

	if cfg.Server.Debug {
		cfg.Logging.Level = "DEBUG"
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "kyberchat",
		ServiceVersion: build.version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	// Initialize Pyroscope profiling (if enabled)
	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "kyberchat",
		ServiceVersion: build.version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	fmt.Println("KyberChat - Post-quantum end-to-end encrypted chat server")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	// Initialize metrics (if enabled)
	metricsResult := config.InitializeMetrics(cfg)
	if metricsResult.Server != nil {
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
		go func() {
			if err := metricsResult.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer shutdownCancel()
			if err := metricsResult.Server.Shutdown(shutdownCtx); err != nil {
				logger.Error("Metrics server shutdown error", "error", err)
			}
		}()
	} else {
		logger.Info("Metrics collection disabled")
	}

	// Open the relational store (runs schema migration)
	st, err := config.CreateStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("Store close error", "error", err)
		}
	}()
	logger.Info("Database ready", "type", cfg.Database.Type)

	// Open the attachment store
	blobs, err := config.CreateBlobStore(ctx, cfg.Uploads)
	if err != nil {
		return fmt.Errorf("failed to initialize uploads backend: %w", err)
	}
	defer func() {
		if err := blobs.Close(); err != nil {
			logger.Error("Blob store close error", "error", err)
		}
	}()
	logger.Info("Uploads backend ready", "backend", cfg.Uploads.Backend, "max_file_size", cfg.Uploads.MaxFileSize.String())

	// Token service
	jwtService, err := cfg.CreateJWTService()
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	// The hub fans events out to connected websocket sessions; the chat
	// service publishes through it as its Notifier.
	hub := gateway.NewHub()
	hub.SetMetrics(metrics.NewGatewayMetrics())

	svc := chat.NewService(st, hub)

	gw := gateway.New(svc, hub, jwtService, gateway.Config{
		AllowedOrigins: cfg.Server.CORSOrigins,
	})

	cfg.Server.ShutdownTimeout = cfg.ShutdownTimeout
	router := api.NewRouter(cfg.Server, api.Deps{
		Store:   st,
		JWT:     jwtService,
		Blobs:   blobs,
		Gateway: gw,
		Version: build.version,
		Auth: handlers.AuthOptions{
			CookieSecure:    cfg.Auth.CookieSecure,
			StrictPasswords: cfg.Auth.ValidatePasswordStrength,
		},
		MaxUploadSize: cfg.Uploads.MaxFileSize.Int64(),
	})

	srv := api.NewServer(cfg.Server, router)
	logger.Info("Server configured", "port", cfg.Server.Port)

	// Session registry hygiene: drop expired refresh tokens in the background
	go purgeExpiredTokens(ctx, st)

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Start(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		// Wait for server to shut down gracefully
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

// purgeExpiredTokens deletes expired refresh tokens once at startup and then
// on a fixed interval, until the context is cancelled.
func purgeExpiredTokens(ctx context.Context, st store.Store) {
	purge := func() {
		n, err := st.PurgeExpiredTokens(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("Refresh token purge failed", "error", err)
			}
			return
		}
		if n > 0 {
			logger.Debug("Purged expired refresh tokens", "count", n)
		}
	}

	purge()

	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purge()
		}
	}
}
