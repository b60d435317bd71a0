// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang counter and summary collectors.
//   - Mapping the pipeline labels (step, status, kind, column) onto
//     Prometheus labels.
//   - Pushing collected metrics to a Pushgateway instead of exposing a
//     scrape endpoint; batch jobs finish before a scraper would come around.
//
// The package intentionally contains all Prometheus-specific dependencies so
// the rest of the project stays decoupled from Prometheus and can swap to
// alternative backends without changes to the pipeline itself.
package prompush

import (
	"fmt"

	"winsor/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // "winsor_step_total"
	stepDuration *prometheus.SummaryVec // "winsor_step_duration_seconds"

	rowCounter   *prometheus.CounterVec // "winsor_rows_total"
	cellCounter  *prometheus.CounterVec // "winsor_cells_clamped_total"
	batchCounter prometheus.Counter     // "winsor_batches_total"
}

// NewBackend constructs a Pushgateway backend. jobName becomes the
// Pushgateway "job" grouping key; gatewayURL is the base URL of the server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "winsor"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winsor_step_total",
			Help: "Total pipeline stage executions, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "winsor_step_duration_seconds",
			Help:       "Duration of pipeline stages in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winsor_rows_total",
			Help: "Row-level counts per kind (parsed, parse_skipped, trimmed, loaded).",
		},
		[]string{"kind"},
	)
	cellCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winsor_cells_clamped_total",
			Help: "Winsorized cells per target column.",
		},
		[]string{"column"},
	)
	batchCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "winsor_batches_total",
			Help: "Total load batches flushed for this job.",
		},
	)

	for _, c := range []prometheus.Collector{stepCounter, stepDuration, rowCounter, cellCounter, batchCounter} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		stepCounter:  stepCounter,
		stepDuration: stepDuration,
		rowCounter:   rowCounter,
		cellCounter:  cellCounter,
		batchCounter: batchCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "winsor_step_total":
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case "winsor_rows_total":
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)
	case "winsor_cells_clamped_total":
		b.cellCounter.WithLabelValues(labels["column"]).Add(delta)
	case "winsor_batches_total":
		b.batchCounter.Add(delta)
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "winsor_step_duration_seconds" {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
