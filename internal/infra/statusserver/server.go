// Package statusserver exposes the connection monitor's status and the
// client metrics over a local HTTP endpoint, for watch mode.
package statusserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vocalyze/client-go/internal/infra/api"
)

// Server provides HTTP endpoints for connection status monitoring.
type Server struct {
	monitor *api.Monitor
	server  *http.Server
}

// NewServer creates a new status server listening on addr.
func NewServer(monitor *api.Monitor, addr string) *Server {
	mux := http.NewServeMux()
	s := &Server{
		monitor: monitor,
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}

	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", promhttp.Handler())

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type statusPayload struct {
	State         string `json:"state"`
	LatencyMs     int64  `json:"latency_ms,omitempty"`
	LastError     string `json:"last_error,omitempty"`
	LastCheckedAt string `json:"last_checked_at,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.monitor.Status()

	payload := statusPayload{State: status.State.String()}
	switch status.State {
	case api.StateConnected:
		payload.LatencyMs = status.Latency.Milliseconds()
	case api.StateDisconnected:
		payload.LastError = status.LastError
	}
	if !status.LastCheckedAt.IsZero() {
		payload.LastCheckedAt = status.LastCheckedAt.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	if status.State == api.StateDisconnected {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	_ = json.NewEncoder(w).Encode(payload)
}
