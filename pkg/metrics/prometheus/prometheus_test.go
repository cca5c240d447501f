package prometheus

import (
	"testing"
	"time"

	"github.com/marmos91/storfiler/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistered(t *testing.T) {
	metrics.InitRegistry()

	gw := NewGatewayMetrics()
	gw.RecordOperation("List", "reports", 12*time.Millisecond, metrics.OutcomeSuccess)
	gw.RecordEndpointCall("List", "directory", metrics.OutcomeSuccess)
	gw.RecordBytes("read", 128)

	h := NewHTTPMetrics()
	h.RecordRequestStart()
	h.RecordRequest("GET", "/api/reports/", 200, time.Millisecond)
	h.RecordRequestEnd()
	h.RecordCatalogReload(true)

	families, err := metrics.GetRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	for _, want := range []string{
		"storfiler_gateway_operations_total",
		"storfiler_gateway_operation_duration_milliseconds",
		"storfiler_gateway_endpoint_calls_total",
		"storfiler_gateway_bytes_transferred_total",
		"storfiler_http_requests_total",
		"storfiler_http_request_duration_seconds",
		"storfiler_http_requests_in_flight",
		"storfiler_catalog_reloads_total",
	} {
		assert.True(t, names[want], "missing metric family %s", want)
	}
}
