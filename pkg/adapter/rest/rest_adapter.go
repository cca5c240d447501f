package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marmos91/storfiler/internal/logger"
	"github.com/marmos91/storfiler/internal/ratelimiter"
	"github.com/marmos91/storfiler/pkg/gateway"
	"github.com/marmos91/storfiler/pkg/metrics"
)

// RESTAdapter implements the adapter.Adapter interface for the HTTP gateway.
//
// Every method of every catalog resource is compiled into a gin route at
// {BasePath}/{resource}/{method path}. The compiled engine sits behind an
// atomic pointer: Reload compiles a new catalog off to the side and swaps
// it in, so in-flight requests finish on the engine they started on.
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. Listener closed (no new connections)
//  3. In-flight requests drain (up to ShutdownTimeout)
//
// Thread safety:
// All methods are safe for concurrent use.
type RESTAdapter struct {
	config     RESTConfig
	dispatcher *gateway.Dispatcher
	metrics    metrics.HTTPMetrics

	// limiter outlives catalog reloads; nil when rate limiting is off
	limiter *ratelimiter.Limiter

	// engine is the compiled router for the current catalog
	engine atomic.Pointer[gin.Engine]

	// catalog is the catalog engine was compiled from
	catalog atomic.Pointer[gateway.Catalog]

	mu     sync.Mutex
	server *http.Server

	// port is the bound port once Serve has a listener
	port atomic.Int32

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

func init() {
	// Debug mode prints every route on compile, which is noise on reload.
	gin.SetMode(gin.ReleaseMode)
}

// New creates a RESTAdapter serving cat through d.
//
// The adapter is created in a stopped state; call Serve() to start
// accepting connections. A nil httpMetrics disables request metrics.
//
// Returns an error when the configuration is invalid or the catalog cannot
// be compiled into routes.
func New(config RESTConfig, cat *gateway.Catalog, d *gateway.Dispatcher, httpMetrics metrics.HTTPMetrics) (*RESTAdapter, error) {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid HTTP config: %w", err)
	}
	if d == nil {
		return nil, errors.New("HTTP adapter requires a dispatcher")
	}
	if httpMetrics == nil {
		httpMetrics = metrics.NewNoopHTTPMetrics()
	}

	a := &RESTAdapter{
		config:     config,
		dispatcher: d,
		metrics:    httpMetrics,
		limiter: ratelimiter.New(ratelimiter.Config{
			RequestsPerSecond: config.RateLimit.RequestsPerSecond,
			Burst:             config.RateLimit.Burst,
		}),
		shutdown: make(chan struct{}),
	}
	a.port.Store(int32(config.Port))

	if err := a.swap(cat); err != nil {
		return nil, err
	}
	return a, nil
}

// Reload compiles cat and makes it the served catalog.
//
// On failure the previously served catalog stays active.
func (a *RESTAdapter) Reload(cat *gateway.Catalog) error {
	err := a.swap(cat)
	a.metrics.RecordCatalogReload(err == nil)
	if err != nil {
		logger.Warn("HTTP catalog reload rejected: %v", err)
		return err
	}
	logger.Info("HTTP catalog reloaded: %d resource(s)", len(cat.Resources()))
	return nil
}

func (a *RESTAdapter) swap(cat *gateway.Catalog) error {
	if cat == nil {
		return errors.New("HTTP adapter requires a catalog")
	}
	engine, err := a.compile(cat)
	if err != nil {
		return err
	}
	a.engine.Store(engine)
	a.catalog.Store(cat)
	return nil
}

// Catalog returns the catalog currently being served.
func (a *RESTAdapter) Catalog() *gateway.Catalog {
	return a.catalog.Load()
}

// ServeHTTP routes through the current engine.
func (a *RESTAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.engine.Load().ServeHTTP(w, r)
}

// Serve starts the HTTP server and blocks until ctx is cancelled or Stop is
// called.
//
// Returns nil after a graceful shutdown, or an error if the listener could
// not be created or the server failed.
func (a *RESTAdapter) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", a.config.Port))
	if err != nil {
		return fmt.Errorf("failed to create HTTP listener on port %d: %w", a.config.Port, err)
	}
	if tcp, ok := listener.Addr().(*net.TCPAddr); ok {
		a.port.Store(int32(tcp.Port))
	}

	srv := &http.Server{
		Handler:           a,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       a.config.ReadTimeout,
		WriteTimeout:      a.config.WriteTimeout,
		IdleTimeout:       a.config.IdleTimeout,
	}
	a.mu.Lock()
	a.server = srv
	a.mu.Unlock()

	// Stop may have run before the server was published.
	select {
	case <-a.shutdown:
		_ = listener.Close()
		return nil
	default:
	}

	logger.Info("HTTP server listening on port %d (base path %s)", a.Port(), a.config.BasePath)

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		select {
		case <-ctx.Done():
			logger.Info("HTTP shutdown signal received: %v", ctx.Err())
			stopCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
			defer cancel()
			_ = a.Stop(stopCtx)
		case <-a.shutdown:
		}
	}()

	err = srv.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		<-drained
		return nil
	}

	a.initiateShutdown()
	<-drained
	return fmt.Errorf("HTTP server failed: %w", err)
}

func (a *RESTAdapter) initiateShutdown() {
	a.shutdownOnce.Do(func() {
		close(a.shutdown)
	})
}

// Stop initiates graceful shutdown and waits for in-flight requests until
// ctx expires.
//
// Safe to call multiple times and before Serve().
func (a *RESTAdapter) Stop(ctx context.Context) error {
	a.initiateShutdown()

	a.mu.Lock()
	srv := a.server
	a.mu.Unlock()
	if srv == nil {
		return nil
	}

	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
		defer cancel()
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("HTTP shutdown did not complete: %v", err)
		return err
	}
	logger.Info("HTTP graceful shutdown complete")
	return nil
}

// Port returns the bound port after Serve() started, the configured one
// before.
func (a *RESTAdapter) Port() int {
	return int(a.port.Load())
}

// Protocol returns "HTTP".
func (a *RESTAdapter) Protocol() string {
	return "HTTP"
}
