package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Nil", nil, http.StatusOK},
		{"Configuration", &ConfigurationError{Resource: "r", Reason: "x"}, http.StatusInternalServerError},
		{"NotFound", fmt.Errorf("a: %w", ErrNotFound), http.StatusNotFound},
		{"InvalidInput", fmt.Errorf("a: %w", ErrInvalidInput), http.StatusBadRequest},
		{"Unsupported", ErrUnsupportedPayload, http.StatusUnsupportedMediaType},
		{"TooLarge", fmt.Errorf("upload: %w", ErrPayloadTooLarge), http.StatusRequestEntityTooLarge},
		{"Backend", &BackendError{Op: "list", Err: errors.New("boom")}, http.StatusBadGateway},
		{"BackendWrappingNotFound", &BackendError{Op: "read", Err: ErrNotFound}, http.StatusNotFound},
		{"Deadline", fmt.Errorf("x: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"Unknown", errors.New("?"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, `configuration error: resource "r" method "GET /": no read endpoint configured`,
		(&ConfigurationError{Resource: "r", Method: "GET /", Reason: "no read endpoint configured"}).Error())

	err := &BackendError{Op: "list", Endpoint: "memory(m):/", Path: "/", Err: errors.New("boom")}
	assert.Contains(t, err.Error(), "boom")
	assert.ErrorIs(t, err, err.Err)
}
