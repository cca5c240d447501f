package metrics

import "time"

// Outcome labels shared by gateway metrics.
const (
	OutcomeSuccess  = "success"
	OutcomePartial  = "partial"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// GatewayMetrics provides observability for dispatcher operations.
//
// This interface is optional - if not provided to the dispatcher, a no-op
// implementation is used.
type GatewayMetrics interface {
	// RecordOperation records a completed gateway operation.
	//
	// Parameters:
	//   - action: List, Download, Add, Remove or Search
	//   - resource: Resource name from the catalog
	//   - duration: Time taken by the whole fan-out
	//   - outcome: One of the Outcome* constants
	RecordOperation(action, resource string, duration time.Duration, outcome string)

	// RecordEndpointCall records one per-endpoint backend call.
	//
	// Parameters:
	//   - action: Gateway action the call belongs to
	//   - kind: Backend family ("directory", "cloud_blob", "s3", "memory")
	//   - outcome: One of the Outcome* constants
	RecordEndpointCall(action, kind, outcome string)

	// RecordBytes records payload bytes moved through the gateway.
	//
	// Parameters:
	//   - direction: "read" or "write"
	//   - bytes: Number of bytes transferred
	RecordBytes(direction string, bytes int64)
}

// NewNoopGatewayMetrics returns a GatewayMetrics that discards everything.
func NewNoopGatewayMetrics() GatewayMetrics {
	return noopGatewayMetrics{}
}

type noopGatewayMetrics struct{}

func (noopGatewayMetrics) RecordOperation(action, resource string, duration time.Duration, outcome string) {
}
func (noopGatewayMetrics) RecordEndpointCall(action, kind, outcome string) {}
func (noopGatewayMetrics) RecordBytes(direction string, bytes int64)       {}
