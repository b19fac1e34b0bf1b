// Package metrics records loading and differencing counters for the
// node-exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sartorproj/gasweather/stats"
)

const namespace = "gasweather"

// Recorder owns a private registry so several runs in one process do not
// collide on the default one.
type Recorder struct {
	registry *prometheus.Registry

	// RowsLoaded counts rows read per source
	RowsLoaded *prometheus.CounterVec
	// StationarityTests counts test verdicts per test and outcome
	StationarityTests *prometheus.CounterVec
	// DifferencingPasses observes the passes applied per series
	DifferencingPasses prometheus.Histogram
	// CappedSeries counts series that hit the differencing cap
	CappedSeries prometheus.Counter
	// ReduceErrors counts failed reductions per error kind
	ReduceErrors *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		RowsLoaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_loaded_total",
				Help:      "Total number of rows read per source",
			},
			[]string{"source"},
		),
		StationarityTests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stationarity_tests_total",
				Help:      "Total number of stationarity tests by verdict",
			},
			[]string{"test", "verdict"},
		),
		DifferencingPasses: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "differencing_passes",
				Help:      "Differencing passes applied per series",
				Buckets:   []float64{0, 1, 2, 3, 4, 5},
			},
		),
		CappedSeries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "capped_series_total",
				Help:      "Series that reached the differencing cap without a stationary verdict",
			},
		),
		ReduceErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reduce_errors_total",
				Help:      "Failed reductions by error kind",
			},
			[]string{"kind"},
		),
	}
}

// Registry returns the registry the metrics are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRows adds n loaded rows for source.
func (r *Recorder) ObserveRows(source string, n int) {
	r.RowsLoaded.WithLabelValues(source).Add(float64(n))
}

// ObserveReduction records every verdict of a reduction and its pass count.
func (r *Recorder) ObserveReduction(red *stats.Reduction) {
	for _, v := range red.Verdicts {
		r.StationarityTests.WithLabelValues(v.Test, verdictLabel(v)).Inc()
	}
	r.DifferencingPasses.Observe(float64(red.Diffs))
	if red.Capped {
		r.CappedSeries.Inc()
	}
}

// ObserveError counts a failed reduction under kind.
func (r *Recorder) ObserveError(kind string) {
	r.ReduceErrors.WithLabelValues(kind).Inc()
}

// WriteTextfile writes all metrics in the text exposition format to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

func verdictLabel(v *stats.Verdict) string {
	switch {
	case v.Degenerate:
		return "constant"
	case v.Stationary:
		return "stationary"
	}
	return "non_stationary"
}
