package metrics

import "time"

// HTTPMetrics provides observability for the HTTP adapter.
type HTTPMetrics interface {
	// RecordRequest records a completed HTTP request.
	//
	// Parameters:
	//   - method: HTTP verb
	//   - route: Matched route template (unmatched requests use "unmatched")
	//   - status: Response status code
	//   - duration: Time taken to serve the request
	RecordRequest(method, route string, status int, duration time.Duration)

	// RecordRequestStart increments the in-flight request gauge.
	RecordRequestStart()

	// RecordRequestEnd decrements the in-flight request gauge.
	RecordRequestEnd()

	// RecordCatalogReload records a configuration reload attempt.
	RecordCatalogReload(success bool)
}

// NewNoopHTTPMetrics returns an HTTPMetrics that discards everything.
func NewNoopHTTPMetrics() HTTPMetrics {
	return noopHTTPMetrics{}
}

type noopHTTPMetrics struct{}

func (noopHTTPMetrics) RecordRequest(method, route string, status int, duration time.Duration) {}
func (noopHTTPMetrics) RecordRequestStart()                                                    {}
func (noopHTTPMetrics) RecordRequestEnd()                                                      {}
func (noopHTTPMetrics) RecordCatalogReload(success bool)                                       {}
