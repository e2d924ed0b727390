// Package metrics instruments the pipeline's RPC and ingest throughput.
//
// The interface shape below follows ChainMetrics
// (src/chainadapter/metrics/metrics.go) — record-call / get-health /
// export-for-scraping — but the implementation swaps the hand-rolled
// Prometheus-text-format Export() for the real prometheus/client_golang
// registry, since the indexer's scrape endpoint (served by
// cmd/btcindexer on --metrics-addr through Handler) can serve a genuine
// promhttp handler instead of a string built by hand.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records pipeline throughput and RPC health.
type Metrics struct {
	rpcCalls       *prometheus.CounterVec
	rpcDuration    *prometheus.HistogramVec
	blocksFetched  prometheus.Counter
	blocksIngested prometheus.Counter
	ingestErrors   prometheus.Counter
	chainHeight    prometheus.Gauge
}

// New registers the pipeline's metrics against reg. Both
// cmd/btcindexer and the tests pass a fresh prometheus.NewRegistry(),
// which Handler then serves.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		rpcCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "btcindexer",
			Name:      "rpc_calls_total",
			Help:      "Total Bitcoin Core RPC calls by method and outcome.",
		}, []string{"method", "outcome"}),
		rpcDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "btcindexer",
			Name:      "rpc_call_duration_seconds",
			Help:      "Bitcoin Core RPC call latency by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		blocksFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "btcindexer",
			Name:      "blocks_fetched_total",
			Help:      "Total blocks successfully fetched from the node.",
		}),
		blocksIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "btcindexer",
			Name:      "blocks_ingested_total",
			Help:      "Total blocks successfully persisted to the store.",
		}),
		ingestErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "btcindexer",
			Name:      "ingest_errors_total",
			Help:      "Total blocks that failed to persist (logged and skipped).",
		}),
		chainHeight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "btcindexer",
			Name:      "chain_height",
			Help:      "Highest block height fetched so far.",
		}),
	}
}

// RecordRPCCall records one Bitcoin Core RPC call's outcome and
// latency.
func (m *Metrics) RecordRPCCall(method string, duration time.Duration, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.rpcCalls.WithLabelValues(method, outcome).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordBlockFetched counts one fetched block and sets the chain
// height gauge to height.
func (m *Metrics) RecordBlockFetched(height uint64) {
	m.blocksFetched.Inc()
	m.chainHeight.Set(float64(height))
}

// RecordBlockIngested marks one block successfully persisted.
func (m *Metrics) RecordBlockIngested() {
	m.blocksIngested.Inc()
}

// RecordIngestError marks one block that failed to persist.
func (m *Metrics) RecordIngestError() {
	m.ingestErrors.Inc()
}

// Handler returns an http.Handler serving these metrics in Prometheus
// exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
