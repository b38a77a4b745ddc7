// Package health serves the keep-alive HTTP endpoint.
//
// Hosting platforms that recycle idle processes keep them alive by polling an
// HTTP URL; the same endpoint doubles as a liveness probe reporting the login
// state machine's current state.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Status is the payload served on every probe.
type Status struct {
	Status        string  `json:"status"`
	State         string  `json:"state"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version"`
}

// Server wraps the HTTP listener. stateFn is polled on each request so the
// payload always reflects the controller's live state.
type Server struct {
	srv     *http.Server
	start   time.Time
	version string
	stateFn func() string
}

// New builds a Server listening on addr. stateFn must be safe for concurrent
// use; it is called from request handlers.
func New(addr, version string, stateFn func() string) *Server {
	s := &Server{
		start:   time.Now(),
		version: version,
		stateFn: stateFn,
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router returns the route table. Split out so tests can drive handlers
// without a listener.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleStatus).Methods("GET")
	r.HandleFunc("/healthz", s.handleStatus).Methods("GET")
	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	payload := Status{
		Status:        "alive",
		State:         s.stateFn(),
		UptimeSeconds: time.Since(s.start).Seconds(),
		Version:       s.version,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Debug("failed to write health response", "error", err)
	}
}

// Start begins serving in a background goroutine. Listener failures other than
// a clean shutdown are logged, not fatal: the idler keeps running without its
// keep-alive endpoint.
func (s *Server) Start() {
	slog.Info("health endpoint listening", "addr", s.srv.Addr)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("health endpoint failed", "error", err)
		}
	}()
}

// Shutdown drains the listener within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
