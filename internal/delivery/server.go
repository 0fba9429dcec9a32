package delivery

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zombor/logiflow/internal/locale"
)

// Server handles HTTP requests for deliveries
type Server struct {
	service   *Service
	basicAuth BasicAuth
	profile   locale.Profile
	mux       *http.ServeMux
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, basicAuth BasicAuth) *Server {
	return NewServerWithMux(service, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		service:   service,
		basicAuth: basicAuth,
		profile:   locale.Detect(""),
		mux:       mux,
	}
	s.registerRoutes()
	return s
}

// SetProfile sets the language and distance unit reported to clients
func (s *Server) SetProfile(p locale.Profile) {
	s.profile = p
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return false
	}

	return username == s.basicAuth.Username && password == s.basicAuth.Password
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="LogiFlow"`)
			jsonError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// Label scanning and geocoding previews
	s.mux.HandleFunc("POST /api/scans", s.requireAuth(s.handleScan))
	s.mux.HandleFunc("POST /api/geocode", s.requireAuth(s.handleGeocode))

	// Deliveries (literal segments win over wildcards)
	s.mux.HandleFunc("POST /api/deliveries/complete", s.requireAuth(s.handleCompleteDeliveries))
	s.mux.HandleFunc("POST /api/deliveries/{id}/complete", s.requireAuth(s.handleCompleteDelivery))
	s.mux.HandleFunc("GET /api/deliveries/{id}/links", s.requireAuth(s.handleDeliveryLinks))
	s.mux.HandleFunc("GET /api/deliveries/{id}", s.requireAuth(s.handleGetDelivery))
	s.mux.HandleFunc("DELETE /api/deliveries/{id}", s.requireAuth(s.handleDeleteDelivery))
	s.mux.HandleFunc("GET /api/deliveries", s.requireAuth(s.handleListDeliveries))
	s.mux.HandleFunc("POST /api/deliveries", s.requireAuth(s.handleCreateDelivery))
	s.mux.HandleFunc("DELETE /api/deliveries", s.requireAuth(s.handleDeleteAllDeliveries))

	s.mux.HandleFunc("GET /api/profile", s.requireAuth(s.handleProfile))

	// Routes
	s.mux.HandleFunc("GET /api/routes/latest", s.requireAuth(s.handleLatestRoute))
	s.mux.HandleFunc("POST /api/routes", s.requireAuth(s.handlePlanRoute))
}

// Handler returns the mux wrapped with CORS handling
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
