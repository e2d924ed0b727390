package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordRPCCall_IncrementsCounterByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordRPCCall("getblockhash", 5*time.Millisecond, true)
	m.RecordRPCCall("getblockhash", 5*time.Millisecond, false)

	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, f := range families {
		if f.GetName() != "btcindexer_rpc_calls_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(2), total)
}

func TestMetrics_Handler_ServesExpositionFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.RecordBlockIngested()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "btcindexer_blocks_ingested_total")
}
