package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/psantana5/focusguard/pkg/logging"
)

// Server exposes /metrics and /healthz for a running loop
type Server struct {
	addr    string
	loop    *Loop
	metrics *Metrics
	logger  *logging.Logger
	srv     *http.Server
}

// NewServer creates a status server bound to addr once started
func NewServer(addr string, loop *Loop, metrics *Metrics, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		addr:    addr,
		loop:    loop,
		metrics: metrics,
		logger:  logger,
	}
}

// Router builds the HTTP routes
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.loop.Snapshot()); err != nil {
		s.logger.Error(fmt.Sprintf("Failed to encode health response: %v", err))
	}
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	s.srv = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(fmt.Sprintf("Status server failed: %v", err))
		}
	}()

	s.logger.Info(fmt.Sprintf("Status server listening on %s", ln.Addr()))
	return nil
}

// Shutdown stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
