// package server exposes the optional metrics endpoint for long-running
// tracker deployments
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// WithLogging logs each request's method, path, and duration.
func WithLogging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
		})
	}
}

// apply wraps a handler with middleware in reverse order (last added wraps first).
func apply(handler http.Handler, middlewares ...Middleware) http.Handler {
	wrapped := handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

// MetricsServer serves the Prometheus scrape endpoint and a health check.
type MetricsServer struct {
	logger *log.Logger
	srv    *http.Server
}

// NewMetricsServer creates a metrics server bound to addr (e.g. ":9090").
func NewMetricsServer(addr string, logger *log.Logger, middlewares ...Middleware) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &MetricsServer{
		logger: logger,
		srv: &http.Server{
			Addr:              addr,
			Handler:           apply(mux, middlewares...),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (m *MetricsServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		m.logger.Info("metrics server listening", "addr", m.srv.Addr)
		if err := m.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return m.srv.Shutdown(shutdownCtx)
	}
}
