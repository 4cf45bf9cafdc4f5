package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/haguru/kakashi/internal/interfaces"
)

var (
	ReadTimeout       = 10 * time.Second
	ReadHeaderTimeout = 5 * time.Second
	WriteTimeout      = 15 * time.Second
	IdleTimeout       = 30 * time.Second
)

type Server struct {
	Port   string
	Host   string
	server *http.Server
	mux    *http.ServeMux
	Logger interfaces.Logger
}

// NewServer creates a new Server instance with the specified host and port.
// middlewares wrap every route; the first one listed runs first.
func NewServer(host, port string, logger interfaces.Logger, middlewares ...func(http.Handler) http.Handler) interfaces.Server {
	mux := http.NewServeMux()

	var handler http.Handler = mux
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	server := &http.Server{
		Addr:              net.JoinHostPort(host, port),
		Handler:           handler,
		ReadTimeout:       ReadTimeout,
		ReadHeaderTimeout: ReadHeaderTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	return &Server{
		Host:   host,
		Port:   port,
		server: server,
		mux:    mux,
		Logger: logger,
	}
}

// AddRoute adds a new route to the server.
// Patterns follow http.ServeMux, including "METHOD /path" forms.
func (s *Server) AddRoute(route string, handler func(w http.ResponseWriter, r *http.Request)) error {
	if handler == nil {
		return fmt.Errorf("nil handler for route %s", route)
	}
	return s.Handle(route, http.HandlerFunc(handler))
}

// Handle registers an http.Handler for route.
func (s *Server) Handle(route string, handler http.Handler) (err error) {
	if route == "" || handler == nil {
		return fmt.Errorf("route and handler are required")
	}
	// ServeMux panics on conflicting or malformed patterns
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to add route %s: %v", route, r)
		}
	}()
	s.mux.Handle(route, handler)
	s.Logger.Info("Route added", "route", route)
	return nil
}

// ListenAndServe starts the HTTP server and blocks until it stops.
// A graceful Shutdown is not reported as an error.
func (s *Server) ListenAndServe() error {
	s.Logger.Info("Starting server", "host", s.Host, "port", s.Port)
	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.Logger.Error("Failed to start server", "error", err)
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("Shutting down server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
