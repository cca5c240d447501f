package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/storfiler/internal/logger"
	"github.com/marmos91/storfiler/pkg/adapter"
	"github.com/marmos91/storfiler/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// ErrAlreadyServing is returned by Serve when called a second time.
var ErrAlreadyServing = errors.New("server: Serve already called")

// errStoppedEarly is reported for an adapter whose Serve returned nil while
// the server was still running.
var errStoppedEarly = errors.New("stopped unexpectedly")

// Server manages the lifecycle of the protocol adapters and the optional
// metrics server of one gateway process.
//
// Lifecycle:
//  1. Creation: New() with the shutdown timeout
//  2. Registration: AddAdapter() for each protocol, SetMetricsServer() if enabled
//  3. Startup: Serve() starts everything concurrently
//  4. Shutdown: Context cancellation, or any component failing, stops all
//     adapters in reverse registration order
//
// Thread safety:
// Server is safe for concurrent use. Serve() may only be called once;
// registration after Serve() is rejected.
//
// Example usage:
//
//	srv := server.New(cfg.Server.ShutdownTimeout)
//	for _, a := range adapters.All {
//	    if err := srv.AddAdapter(a); err != nil {
//	        return err
//	    }
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer cancel()
//
//	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
//	    log.Fatal(err)
//	}
type Server struct {
	// adapters contains all registered protocol adapters
	adapters []adapter.Adapter

	// metrics is started alongside the adapters when set
	metrics *metrics.Server

	// stopTimeout bounds the Stop() calls issued during shutdown
	stopTimeout time.Duration

	// mu protects adapters and metrics
	mu sync.RWMutex

	served atomic.Bool
}

// New creates a Server. stopTimeout bounds graceful shutdown; zero means
// 30 seconds.
func New(stopTimeout time.Duration) *Server {
	if stopTimeout <= 0 {
		stopTimeout = 30 * time.Second
	}
	return &Server{
		stopTimeout: stopTimeout,
		adapters:    make([]adapter.Adapter, 0, 2),
	}
}

// AddAdapter registers a protocol adapter.
//
// Returns an error if another adapter already serves the same protocol or
// port, or if Serve() has been called. Port 0 (ephemeral) never conflicts.
//
// Panics if a is nil (programmer error).
func (s *Server) AddAdapter(a adapter.Adapter) error {
	if a == nil {
		panic("adapter cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served.Load() {
		return fmt.Errorf("cannot add %s adapter: %w", a.Protocol(), ErrAlreadyServing)
	}

	protocol, port := a.Protocol(), a.Port()
	for _, existing := range s.adapters {
		if existing.Protocol() == protocol {
			return fmt.Errorf("adapter for protocol %s already registered", protocol)
		}
		if port != 0 && existing.Port() == port {
			return fmt.Errorf("port %d already in use by %s adapter", port, existing.Protocol())
		}
	}
	if port != 0 && s.metrics != nil && s.metrics.Port() == port {
		return fmt.Errorf("port %d already in use by the metrics server", port)
	}

	s.adapters = append(s.adapters, a)
	logger.Info("Registered %s adapter on port %d", protocol, port)
	return nil
}

// SetMetricsServer attaches the metrics server. It is started by Serve()
// and stopped with the adapters.
func (s *Server) SetMetricsServer(m *metrics.Server) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.served.Load() {
		return fmt.Errorf("cannot attach metrics server: %w", ErrAlreadyServing)
	}
	for _, a := range s.adapters {
		if m != nil && a.Port() != 0 && a.Port() == m.Port() {
			return fmt.Errorf("metrics port %d already in use by %s adapter", m.Port(), a.Protocol())
		}
	}
	s.metrics = m
	return nil
}

// Serve starts all registered components and blocks until ctx is cancelled
// or one of them fails.
//
// Shutdown behavior:
//   - All adapters receive Stop() in reverse registration order, sharing one
//     stopTimeout deadline
//   - Serve() waits for every adapter goroutine before returning
//   - An adapter whose Serve() returns while the server is running counts as
//     failed, even when it returns nil
//
// Returns:
//   - ctx.Err() when shutdown was triggered by cancellation
//   - the first component error otherwise
//   - ErrAlreadyServing on a second call
func (s *Server) Serve(ctx context.Context) error {
	if !s.served.CompareAndSwap(false, true) {
		return ErrAlreadyServing
	}

	s.mu.RLock()
	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	metricsServer := s.metrics
	s.mu.RUnlock()

	if len(adapters) == 0 {
		return fmt.Errorf("no adapters registered; call AddAdapter() before Serve()")
	}

	logger.Info("Starting Storfiler with %d adapter(s)", len(adapters))
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)

	for _, a := range adapters {
		a := a
		g.Go(func() error {
			protocol := a.Protocol()
			logger.Info("Starting %s adapter on port %d", protocol, a.Port())

			err := a.Serve(gctx)
			if gctx.Err() != nil {
				logger.Debug("%s adapter stopped", protocol)
				return nil
			}
			if err == nil {
				err = errStoppedEarly
			}
			logger.Error("%s adapter failed: %v", protocol, err)
			return fmt.Errorf("%s adapter error: %w", protocol, err)
		})
	}

	if metricsServer != nil {
		g.Go(func() error {
			err := metricsServer.Start(gctx)
			if gctx.Err() != nil {
				return nil
			}
			if err == nil {
				err = errStoppedEarly
			}
			return fmt.Errorf("metrics server: %w", err)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		} else {
			logger.Warn("Component failure, shutting down all adapters")
		}
		s.stopAll(adapters)
		return nil
	})

	logger.Debug("Adapters launched in %v", time.Since(startTime))

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	logger.Info("Storfiler stopped")
	return err
}

// stopAll issues Stop() to every adapter in reverse registration order.
// Errors are logged and do not interrupt the remaining calls.
func (s *Server) stopAll(adapters []adapter.Adapter) {
	ctx, cancel := context.WithTimeout(context.Background(), s.stopTimeout)
	defer cancel()

	logger.Info("Initiating graceful shutdown of %d adapter(s)", len(adapters))

	for i := len(adapters) - 1; i >= 0; i-- {
		a := adapters[i]
		if err := a.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Error stopping %s adapter: %v", a.Protocol(), err)
			continue
		}
		logger.Debug("%s adapter stop signal sent", a.Protocol())
	}
}

// Adapters returns a snapshot of the registered adapters.
func (s *Server) Adapters() []adapter.Adapter {
	s.mu.RLock()
	defer s.mu.RUnlock()

	adapters := make([]adapter.Adapter, len(s.adapters))
	copy(adapters, s.adapters)
	return adapters
}
