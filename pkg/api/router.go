package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kyberchat/kyberchat/internal/logger"
	"github.com/kyberchat/kyberchat/pkg/api/handlers"
	apiMiddleware "github.com/kyberchat/kyberchat/pkg/api/middleware"
	"github.com/kyberchat/kyberchat/pkg/auth"
	"github.com/kyberchat/kyberchat/pkg/blob"
	"github.com/kyberchat/kyberchat/pkg/store"
)

// Deps carries the collaborators the router wires into handlers.
type Deps struct {
	// Store is the relational store behind every handler.
	Store store.Store

	// JWT validates access tokens and mints new pairs.
	JWT *auth.JWTService

	// Blobs holds encrypted attachment content.
	Blobs blob.Store

	// Gateway is the websocket entrypoint, mounted at /ws. May be nil in
	// tests that exercise only the REST surface.
	Gateway http.Handler

	// Version is reported by the liveness probe.
	Version string

	// Auth tunes cookie and password behavior of the auth endpoints.
	Auth handlers.AuthOptions

	// MaxUploadSize bounds a single attachment upload in bytes.
	// Zero selects the handler default.
	MaxUploadSize int64
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - CORS for the configured origins
//   - Request timeouts on the REST routes only
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /ready - Readiness probe (DB + blob store)
//   - POST /api/auth/register - Account creation
//   - POST /api/auth/login - User authentication
//   - POST /api/auth/refresh - Access token refresh (cookie)
//   - POST /api/auth/logout - Refresh token revocation (cookie)
//   - GET /api/auth/me - Current user info
//   - GET /api/users/search - Username search
//   - GET /api/users/{user}/public-key - Public key lookup
//   - POST /api/files/upload - Encrypted attachment upload
//   - GET /api/files/download/{filename} - Encrypted attachment download
//   - DELETE /api/files/delete/{filename} - Encrypted attachment deletion
//   - GET /ws - Websocket gateway (session auth in-band)
func NewRouter(cfg Config, deps Deps) http.Handler {
	cfg.applyDefaults()

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handlers.NewAuthHandler(deps.Store, deps.JWT, deps.Auth)
	userHandler := handlers.NewUserHandler(deps.Store)
	fileHandler := handlers.NewFileHandler(deps.Store, deps.Blobs, deps.MaxUploadSize)
	healthHandler := handlers.NewHealthHandler(deps.Store, deps.Blobs, deps.Version)

	requireAuth := apiMiddleware.JWTAuth(deps.JWT)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		// Health probes - unauthenticated
		r.Get("/health", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)

		r.Route("/api/auth", func(r chi.Router) {
			// Public endpoints; refresh and logout authenticate via the
			// refresh cookie rather than a bearer token.
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.Me)
			})
		})

		r.Route("/api/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/search", userHandler.Search)
			r.Get("/{user}/public-key", userHandler.PublicKey)
		})
	})

	// Attachment transfer gets a wider window than the REST timeout: a
	// full-size upload on a slow link can legitimately take minutes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Minute))

		r.Route("/api/files", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/upload", fileHandler.Upload)
			r.Get("/download/{filename}", fileHandler.Download)
			r.Delete("/delete/{filename}", fileHandler.Delete)
		})
	})

	// Websocket sessions authenticate in-band and outlive any request
	// timeout, so the gateway mounts outside the timeout groups.
	if deps.Gateway != nil {
		r.Handle("/ws", deps.Gateway)
	}

	return r
}

// requestLogger is a custom middleware that logs requests using the
// internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//
// Health probe completions are demoted to DEBUG to keep orchestrator
// polling out of the logs.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			logger.RequestID(requestID),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.ClientIP(r.RemoteAddr),
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logFn := logger.Info
		if isHealthPath(r.URL.Path) {
			logFn = logger.Debug
		}
		logFn("API request completed",
			logger.RequestID(requestID),
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Status(ww.Status()),
			logger.DurationMs(float64(duration.Microseconds())/1000.0),
		)
	})
}

// isHealthPath reports whether the path belongs to an orchestrator probe.
func isHealthPath(path string) bool {
	return path == "/health" || path == "/ready"
}
