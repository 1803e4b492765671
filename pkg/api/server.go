package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/verdantlabs/canopy/pkg/auth"
	"github.com/verdantlabs/canopy/pkg/greenhouse"
	"github.com/verdantlabs/canopy/pkg/httputil"
	"github.com/verdantlabs/canopy/pkg/middleware"
	"github.com/verdantlabs/canopy/pkg/observability"
)

// Server wires the entity services into an HTTP surface
type Server struct {
	svc     *greenhouse.Service
	tokens  *auth.TokenManager
	logger  *observability.Logger
	metrics *observability.Metrics

	// tokenTTL is the lifetime of tokens issued at login; zero means they
	// never expire
	tokenTTL time.Duration

	router *mux.Router
}

// Option configures a Server
type Option func(*Server)

// WithMetrics attaches a metrics collector
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithTokenTTL sets the lifetime of login-issued tokens
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// NewServer creates the API server and registers all routes
func NewServer(svc *greenhouse.Service, tokens *auth.TokenManager, logger *observability.Logger, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		tokens: tokens,
		logger: logger,
		router: mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

// Router returns the configured router
func (s *Server) Router() *mux.Router { return s.router }

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(httputil.RecoveryMiddleware)
	s.router.Use(httputil.LoggingMiddleware)
	s.router.Use(httputil.ContentTypeMiddleware)
	s.router.Use(httputil.MaxBytesMiddleware(1 << 20))

	if s.metrics != nil {
		s.router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path := r.URL.Path
				if route := mux.CurrentRoute(r); route != nil {
					if tpl, err := route.GetPathTemplate(); err == nil {
						path = tpl
					}
				}
				s.metrics.InstrumentHandler(path, next).ServeHTTP(w, r)
			})
		})
	}

	// Auth is resolved for every request; routes that demand a principal
	// additionally pass through RequireAuth
	authn := middleware.NewAuthMiddleware(s.tokens, true)
	s.router.Use(authn.Handler)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	// Public authentication surface
	s.router.HandleFunc("/auth/register", s.handleRegister).Methods("POST")
	s.router.HandleFunc("/auth/login", s.handleLogin).Methods("POST")

	protected := s.router.NewRoute().Subrouter()
	protected.Use(middleware.RequireAuth)

	protected.HandleFunc("/auth/logout", s.handleLogout).Methods("POST")
	protected.HandleFunc("/auth/users/{id:[0-9]+}/password", s.handleChangePassword).Methods("POST")

	protected.HandleFunc("/users", s.handleListUsers).Methods("GET")
	protected.HandleFunc("/users/{id:[0-9]+}", s.handleGetUser).Methods("GET")
	protected.HandleFunc("/users/{id:[0-9]+}", s.handleUpdateUser).Methods("PUT")
	protected.HandleFunc("/users/{id:[0-9]+}", s.handleDeleteUser).Methods("DELETE")

	protected.HandleFunc("/locations", s.handleCreateLocation).Methods("POST")
	protected.HandleFunc("/locations", s.handleListLocations).Methods("GET")
	protected.HandleFunc("/locations/{id:[0-9]+}", s.handleGetLocation).Methods("GET")
	protected.HandleFunc("/locations/{id:[0-9]+}", s.handleUpdateLocation).Methods("PUT")
	protected.HandleFunc("/locations/{id:[0-9]+}", s.handleDeleteLocation).Methods("DELETE")

	protected.HandleFunc("/greenhouses", s.handleCreateGreenHouse).Methods("POST")
	protected.HandleFunc("/greenhouses", s.handleListGreenHouses).Methods("GET")
	protected.HandleFunc("/greenhouses/{id:[0-9]+}", s.handleGetGreenHouse).Methods("GET")
	protected.HandleFunc("/greenhouses/{id:[0-9]+}", s.handleUpdateGreenHouse).Methods("PUT")
	protected.HandleFunc("/greenhouses/{id:[0-9]+}", s.handleDeleteGreenHouse).Methods("DELETE")

	protected.HandleFunc("/devices", s.handleCreateDevice).Methods("POST")
	protected.HandleFunc("/devices", s.handleListDevices).Methods("GET")
	protected.HandleFunc("/devices/{id:[0-9]+}", s.handleGetDevice).Methods("GET")
	protected.HandleFunc("/devices/{id:[0-9]+}", s.handleUpdateDevice).Methods("PUT")
	protected.HandleFunc("/devices/{id:[0-9]+}", s.handleDeleteDevice).Methods("DELETE")

	// Environment records are immutable: no update route
	protected.HandleFunc("/environments", s.handleCreateEnvironment).Methods("POST")
	protected.HandleFunc("/environments", s.handleListEnvironments).Methods("GET")
	protected.HandleFunc("/environments/{id:[0-9]+}", s.handleGetEnvironment).Methods("GET")
	protected.HandleFunc("/environments/{id:[0-9]+}", s.handleDeleteEnvironment).Methods("DELETE")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DB().PingContext(r.Context()); err != nil {
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	httputil.WriteSuccess(w, map[string]string{"status": "ok"})
}
