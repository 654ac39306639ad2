package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"route-planner/internal/handlers"
	"route-planner/internal/metrics"
)

// Server serves the planning API
type Server struct {
	http    *http.Server
	addr    string
	closers []func() error
}

// Config holds server configuration
type Config struct {
	// Addr to listen on; a ":0" port picks a free one
	Addr string
	// AllowedOrigins lists extra CORS origins besides localhost
	AllowedOrigins []string
}

// New builds a server around a ready handler without starting it. closers run
// after the HTTP server has shut down.
func New(cfg Config, handler *handlers.Handler, closers ...func() error) *Server {
	return &Server{
		http: &http.Server{
			Addr:         cfg.Addr,
			Handler:      withRequestLog(withCORS(cfg.AllowedOrigins, routes(handler))),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		addr:    cfg.Addr,
		closers: closers,
	}
}

// Handler exposes the full middleware chain
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start listens and serves in the background, returning the bound address
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	bound := ln.Addr().String()
	log.Printf("[HTTP] Listening: addr=%s", bound)

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] Server stopped unexpectedly: %v", err)
		}
	}()

	return bound, nil
}

// Shutdown drains in-flight requests, then runs the closers. The first closer
// error is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}
	var firstErr error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

const (
	pathHealth  = "/api/v1/health"
	pathPlan    = "/api/v1/routes/plan"
	pathNearby  = "/api/v1/places/nearby"
	pathMetrics = "/metrics"
)

func routes(h *handlers.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc(pathHealth, h.HandleHealthCheck)
	mux.Handle(pathMetrics, metrics.Handler())
	mux.Handle(pathPlan, only(http.MethodPost, h.HandlePlanRoute))
	mux.Handle(pathNearby, only(http.MethodGet, h.HandleNearbyPlaces))
	return mux
}

// only rejects every method but the given one with 405
func only(method string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fn(w, r)
	})
}

// routeLabel keeps metric cardinality bounded to known routes
func routeLabel(path string) string {
	switch path {
	case pathHealth, pathPlan, pathNearby, pathMetrics:
		return path
	}
	return "other"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		began := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(began)
		if r.URL.Path != pathMetrics {
			log.Printf("[HTTP] %s %s status=%d elapsed=%s", r.Method, r.URL.Path, rec.status, elapsed.Round(time.Microsecond))
		}
		metrics.ObserveHTTPRequest(r.Method, routeLabel(r.URL.Path), rec.status, elapsed)
	})
}

func withCORS(allowed []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && originAllowed(origin, allowed) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func originAllowed(origin string, allowed []string) bool {
	for _, local := range []string{"http://localhost:", "http://127.0.0.1:"} {
		if strings.HasPrefix(origin, local) {
			return true
		}
	}
	return slices.Contains(allowed, origin)
}
