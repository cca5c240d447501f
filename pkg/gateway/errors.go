package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/marmos91/storfiler/pkg/store"
)

var (
	// ErrNotFound and ErrInvalidInput are the store sentinels, re-exported
	// so callers of the gateway need a single import.
	ErrNotFound     = store.ErrNotFound
	ErrInvalidInput = store.ErrInvalidInput

	// ErrUnsupportedPayload indicates an upload request that is not a
	// multipart form.
	ErrUnsupportedPayload = errors.New("unsupported payload")

	// ErrPayloadTooLarge indicates an upload exceeding the configured limit.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// ConfigurationError reports a resource/method that cannot be served as
// configured, such as one with no resolvable endpoint.
type ConfigurationError struct {
	Resource string
	Method   string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("configuration error: resource %q: %s", e.Resource, e.Reason)
	}
	return fmt.Sprintf("configuration error: resource %q method %q: %s", e.Resource, e.Method, e.Reason)
}

// BackendError reports a failed storage provider call.
type BackendError struct {
	Op       string
	Endpoint string
	Path     string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s on %s (path %q): %v", e.Op, e.Endpoint, e.Path, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// StatusCode maps an error returned by the gateway to an HTTP status.
//
// Sentinels win over wrappers: a BackendError wrapping ErrNotFound is a 404.
func StatusCode(err error) int {
	var cfgErr *ConfigurationError
	var backendErr *BackendError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnsupportedPayload):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.As(err, &backendErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
