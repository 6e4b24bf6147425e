// Package api provides the HTTP control surface for netsweep. It exposes
// fire-and-forget sweep triggers, run status and history, and network
// registry management.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/netsweep/netsweep/internal/config"
	"github.com/netsweep/netsweep/internal/history"
	"github.com/netsweep/netsweep/internal/lockfile"
	"github.com/netsweep/netsweep/internal/logging"
	"github.com/netsweep/netsweep/internal/metrics"
	"github.com/netsweep/netsweep/internal/registry"
	"github.com/netsweep/netsweep/internal/worker"
)

// Server timeout constants.
const (
	serverShutdownTimeout = 30 * time.Second
	serverReadTimeout     = 10 * time.Second
	serverWriteTimeout    = 10 * time.Second
	serverIdleTimeout     = 60 * time.Second
)

// Server represents the API server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	config     *config.Config
	submitter  *worker.Submitter
	registry   *registry.Registry
	ledger     *history.Ledger
	lock       *lockfile.Lock
	metrics    *metrics.Metrics
	validate   *validator.Validate
	logger     *logging.Logger
	startTime  time.Time
}

// Dependencies bundles everything the handlers delegate to.
type Dependencies struct {
	Submitter *worker.Submitter
	Registry  *registry.Registry
	Ledger    *history.Ledger
	Lock      *lockfile.Lock
	Metrics   *metrics.Metrics
}

// New creates a new API server instance.
func New(cfg *config.Config, deps Dependencies) *Server {
	server := &Server{
		router:    mux.NewRouter(),
		config:    cfg,
		submitter: deps.Submitter,
		registry:  deps.Registry,
		ledger:    deps.Ledger,
		lock:      deps.Lock,
		metrics:   deps.Metrics,
		validate:  validator.New(),
		logger:    logging.Default().WithComponent("api"),
		startTime: time.Now(),
	}

	server.setupRoutes()
	server.setupMiddleware()

	server.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.API.ListenAddr, strconv.Itoa(cfg.API.Port)),
		Handler:      server.router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeout,
		IdleTimeout:  serverIdleTimeout,
	}

	return server
}

// Start starts the API server and blocks until the context is canceled or
// the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server", "address", s.httpServer.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("API server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errChan:
		return err
	}
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("API server shutdown error", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Health endpoints
	api.HandleFunc("/livez", s.livenessHandler).Methods("GET")
	api.HandleFunc("/healthz", s.healthHandler).Methods("GET")

	// Sweep lifecycle
	api.HandleFunc("/sweeps", s.triggerSweepHandler).Methods("POST")
	api.HandleFunc("/status", s.statusHandler).Methods("GET")
	api.HandleFunc("/history", s.historyHandler).Methods("GET")

	// Network registry
	api.HandleFunc("/networks", s.listNetworksHandler).Methods("GET")
	api.HandleFunc("/networks", s.addNetworkHandler).Methods("POST")
	api.HandleFunc("/networks/{name}", s.getNetworkHandler).Methods("GET")
	api.HandleFunc("/networks/{name}", s.removeNetworkHandler).Methods("DELETE")
	api.HandleFunc("/networks/{name}/enable", s.enableNetworkHandler).Methods("POST")
	api.HandleFunc("/networks/{name}/disable", s.disableNetworkHandler).Methods("POST")

	// Prometheus metrics
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}

	// Root index for API clients poking around
	s.router.HandleFunc("/", s.indexHandler).Methods("GET")
}

// setupMiddleware configures middleware for the API server.
func (s *Server) setupMiddleware() {
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.loggingMiddleware)

	if s.config.API.CORS.Enabled {
		corsOptions := handlers.AllowedOrigins(s.config.API.CORS.AllowedOrigins)
		corsHeaders := handlers.AllowedHeaders(s.config.API.CORS.AllowedHeaders)
		corsMethods := handlers.AllowedMethods(s.config.API.CORS.AllowedMethods)
		s.router.Use(handlers.CORS(corsOptions, corsHeaders, corsMethods))
	}

	s.router.Use(s.contentTypeMiddleware)
}

// indexHandler returns API information for root requests.
func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"service": "netsweep API",
		"version": "v1",
		"endpoints": map[string]string{
			"sweeps":   "/api/v1/sweeps",
			"status":   "/api/v1/status",
			"history":  "/api/v1/history",
			"networks": "/api/v1/networks",
			"health":   "/api/v1/healthz",
		},
		"timestamp": time.Now().UTC(),
	}
	s.WriteJSON(w, r, http.StatusOK, response)
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// GetAddress returns the server address.
func (s *Server) GetAddress() string {
	return s.httpServer.Addr
}

// ErrorResponse represents a standard API error response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// writeError writes a standardized error response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, statusCode int, code string, err error) {
	s.logger.Error("API error",
		"method", r.Method,
		"path", r.URL.Path,
		"status", statusCode,
		"error", err,
		"remote_addr", r.RemoteAddr)

	response := ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		Timestamp: time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		s.logger.Error("Failed to encode error response", "error", encodeErr)
	}
}

// WriteJSON writes a JSON response.
func (s *Server) WriteJSON(w http.ResponseWriter, r *http.Request, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response",
			"error", err,
			"path", r.URL.Path,
			"method", r.Method)
	}
}

// ParseJSON parses a JSON request body into the provided struct. Unknown
// fields are rejected and the body is capped at the configured size.
func (s *Server) ParseJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}

	body := http.MaxBytesReader(nil, r.Body, s.config.API.MaxRequestSize)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// Middleware functions.

// recoveryMiddleware recovers from panics and returns a 500 error.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("Panic in API handler",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method)
				s.writeError(w, r, http.StatusInternalServerError, "INTERNAL",
					fmt.Errorf("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests and records request metrics.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)
		duration := time.Since(start)

		if s.config.Logging.RequestLogging {
			s.logger.Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration", duration,
				"remote_addr", r.RemoteAddr)
		}

		if s.metrics != nil {
			s.metrics.HTTPRequest(r.Method, r.URL.Path,
				strconv.Itoa(wrapped.statusCode), duration)
		}
	})
}

// contentTypeMiddleware validates content type for POST/PUT requests.
func (s *Server) contentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			contentType := r.Header.Get("Content-Type")
			if contentType != "" && contentType != "application/json" {
				s.writeError(w, r, http.StatusUnsupportedMediaType, "VALIDATION",
					fmt.Errorf("unsupported content type: %s", contentType))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
