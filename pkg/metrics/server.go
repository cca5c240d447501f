package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/storfiler/internal/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// shutdownGrace bounds how long in-flight scrapes may finish once Start's
// context is done.
const shutdownGrace = 5 * time.Second

// ServerConfig configures the metrics HTTP server.
type ServerConfig struct {
	// Port to listen on. Default: 9090
	Port int
}

// Server exposes the global registry over HTTP.
//
// Routes:
//   - /metrics  Prometheus exposition (OpenMetrics when negotiated), or 503
//     when no registry was initialized
//   - /healthz  liveness probe
type Server struct {
	port int
	http *http.Server

	stopOnce sync.Once
	stopErr  error
}

// NewServer builds a stopped metrics server. Call Start to listen.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Port <= 0 {
		cfg.Port = 9090
	}

	s := &Server{port: cfg.Port}
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	if reg := GetRegistry(); reg != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorLog:          promLogger{},
		}))
	} else {
		mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics collection is disabled", http.StatusServiceUnavailable)
		})
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})

	return mux
}

// Start listens on the configured port and serves until ctx is done, then
// shuts down gracefully. A failure to bind is returned immediately.
func (s *Server) Start(ctx context.Context) error {
	l, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("metrics server listen on %s: %w", s.http.Addr, err)
	}
	logger.Info("Metrics server listening on port %d", s.port)

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.http.Serve(l) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	}
}

// Stop shuts the server down. Only the first call does any work; later calls
// return its result.
func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		if err := s.http.Shutdown(ctx); err != nil {
			s.stopErr = fmt.Errorf("metrics server shutdown: %w", err)
			logger.Warn("Metrics server shutdown: %v", err)
			return
		}
		logger.Debug("Metrics server stopped")
	})
	return s.stopErr
}

// Port returns the configured listen port.
func (s *Server) Port() int {
	return s.port
}

// promLogger routes promhttp errors to the application logger.
type promLogger struct{}

func (promLogger) Println(v ...any) {
	logger.Error("metrics handler: %s", fmt.Sprint(v...))
}
