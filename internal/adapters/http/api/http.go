// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/cors"

	"github.com/okian/accounts/internal/domain/model"
	"github.com/okian/accounts/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// CreateUser persists a new account. Errors are classified by the
	// persistence gateway (repository.ErrConflict and friends).
	CreateUser(ctx context.Context, u model.User) error
	// ListUsers returns every account in store order.
	ListUsers(ctx context.Context) ([]model.User, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	usersHandler   *UsersHandler
	metricsHandler http.Handler
	cors           func(http.Handler) http.Handler
}

// Option applies a configuration option to the Server.
type Option func(*serverOptions)

type serverOptions struct {
	allowedOrigins []string
	logger         logger.Logger
}

// WithAllowedOrigins restricts CORS to the given origins. "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(o *serverOptions) {
		if len(origins) > 0 {
			o.allowedOrigins = origins
		}
	}
}

// WithLogger sets the logger used by the handlers.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{allowedOrigins: []string{"*"}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("api")
	}
	return &Server{
		healthHandler:  NewHealthHandler(deps),
		statsHandler:   NewStatsHandler(statsProvider),
		usersHandler:   NewUsersHandler(deps, o.logger),
		metricsHandler: NewMetricsHandler(),
		cors: cors.Handler(cors.Options{
			AllowedOrigins: o.allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader},
			MaxAge:         300,
		}),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/api/user", s.cors(MetricsMiddleware(s.usersHandler.HandleCreateUser, "create_user")))
	mux.Handle("/api/users", s.cors(MetricsMiddleware(s.usersHandler.HandleListUsers, "list_users")))
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.Handle("/metrics", s.metricsHandler)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends a public message; internal causes are logged, never written.
func writeError(w http.ResponseWriter, status int, code, message string) {
	if message == "" {
		message = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
