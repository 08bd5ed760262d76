// Package api exposes the invoice pipeline over HTTP: email search,
// batch processing, aggregate summaries, the accountant report and the
// CSV/XLSX exports.
package api

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/invoicebot/invoicebot/internal/invoice"
)

// Server handles HTTP requests for the invoice pipeline
type Server struct {
	service   *invoice.Service
	storage   invoice.Storage
	basicAuth BasicAuth
	mux       *http.ServeMux
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux
func NewServer(service *invoice.Service, storage invoice.Storage, basicAuth BasicAuth) *Server {
	return NewServerWithMux(service, storage, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *invoice.Service, storage invoice.Storage, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		service:   service,
		storage:   storage,
		basicAuth: basicAuth,
		mux:       mux,
	}
	s.registerRoutes()
	return s
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

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			// Ensure CORS headers are set before error response
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="InvoiceBot"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/emails", s.requireAuth(s.handleSearchEmails))
	s.mux.HandleFunc("POST /api/process", s.requireAuth(s.handleProcess))

	s.mux.HandleFunc("GET /api/processed", s.requireAuth(s.handleListProcessed))
	s.mux.HandleFunc("DELETE /api/processed/{id}", s.requireAuth(s.handleDeleteProcessed))

	s.mux.HandleFunc("GET /api/summary", s.requireAuth(s.handleSummary))
	s.mux.HandleFunc("GET /api/report", s.requireAuth(s.handleReport))
	s.mux.HandleFunc("GET /api/export/csv", s.requireAuth(s.handleExportCSV))
	s.mux.HandleFunc("GET /api/export/xlsx", s.requireAuth(s.handleExportXLSX))
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	// Wrap the mux with CORS middleware to handle all requests including OPTIONS
	return http.ListenAndServe(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		})(w, r)
	}))
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
