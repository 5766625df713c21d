package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"contact-sheet/internal/logging"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter returns the router serving /metrics and /healthz.
func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods("GET")
	return r
}

// Server exposes metrics over HTTP for the duration of a run.
type Server struct {
	srv    *http.Server
	router *mux.Router
}

// Serve starts a metrics server on addr in the background. It returns nil
// when addr is empty.
func Serve(addr string) *Server {
	if addr == "" {
		return nil
	}

	router := NewRouter()
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logging.Info("Metrics available at http://%s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn("Metrics server error: %v", err)
		}
	}()

	return &Server{srv: srv, router: router}
}

// Router returns the server's routes, or nil for a nil *Server.
func (s *Server) Router() *mux.Router {
	if s == nil {
		return nil
	}
	return s.router
}

// Shutdown stops the server. It is safe to call on a nil *Server.
func (s *Server) Shutdown(ctx context.Context) {
	if s == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		logging.Warn("Metrics server shutdown error: %v", err)
	}
}
