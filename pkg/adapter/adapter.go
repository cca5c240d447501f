package adapter

import (
	"context"
)

// Adapter represents a protocol-specific front end that can be managed by
// server.Server.
//
// Each adapter exposes the gateway over one protocol and owns its listener.
// All adapters share the same dispatcher and catalog, so a resource behaves
// the same whichever protocol reaches it.
//
// Lifecycle:
//  1. Creation: Adapter is created with protocol-specific configuration
//  2. Startup: Serve() starts the protocol server and blocks until shutdown
//  3. Shutdown: Stop() initiates graceful shutdown with timeout
//
// Thread safety:
// Implementations must be safe for concurrent use. Stop() may be called
// concurrently with Serve().
type Adapter interface {
	// Serve starts the protocol server and blocks until the context is cancelled
	// or an unrecoverable error occurs.
	//
	// When the context is cancelled, Serve must initiate graceful shutdown:
	//   - Stop accepting new connections
	//   - Wait for active operations to complete (with timeout)
	//   - Return context.Canceled or nil
	//
	// If Serve returns before context cancellation, server.Server treats it as
	// a fatal error and stops all other adapters.
	Serve(ctx context.Context) error

	// Stop initiates graceful shutdown of the protocol server.
	//
	// Implementations must be idempotent, safe to call concurrently with
	// Serve() and must respect the context deadline.
	Stop(ctx context.Context) error

	// Protocol returns the human-readable protocol name for logging and metrics.
	Protocol() string

	// Port returns the TCP port the adapter is listening on.
	//
	// Returns the configured port before Serve() binds, and the bound port
	// afterwards (which differs when the configured port is 0).
	Port() int
}
