package pipeline

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nao1215/linkrank/internal/model"
	"github.com/nao1215/linkrank/internal/pagerank"
)

// Metrics names as constants for consistency.
const (
	MetricRuns           = "linkrank_runs_total"
	MetricRunFailures    = "linkrank_run_failures_total"
	MetricCacheHits      = "linkrank_cache_hits_total"
	MetricSolveIters     = "linkrank_solve_iterations"
	MetricSolveDuration  = "linkrank_solve_duration_seconds"
	MetricGraphVertices  = "linkrank_graph_vertices"
	MetricRunWarnings    = "linkrank_run_warnings_total"
	MetricNonConvergence = "linkrank_solve_nonconvergence_total"
)

// Metrics contains Prometheus metrics for ranking runs.
// All operations are thread-safe.
type Metrics struct {
	runs           prometheus.Counter
	runFailures    prometheus.Counter
	cacheHits      prometheus.Counter
	runWarnings    prometheus.Counter
	nonConvergence prometheus.Counter
	solveIters     prometheus.Histogram
	solveDuration  prometheus.Histogram
	graphVertices  *prometheus.GaugeVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRuns,
			Help: "Total number of ranking runs executed",
		}),
		runFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRunFailures,
			Help: "Total number of ranking runs that ended with an error",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCacheHits,
			Help: "Total number of runs whose scores came from the result cache",
		}),
		runWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRunWarnings,
			Help: "Total number of warnings recorded by optional steps",
		}),
		nonConvergence: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricNonConvergence,
			Help: "Total number of solves that hit the iteration cap",
		}),
		solveIters: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricSolveIters,
			Help:    "Histogram of power iteration steps per solve",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}),
		solveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricSolveDuration,
			Help:    "Histogram of PageRank solve time in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		graphVertices: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: MetricGraphVertices,
			Help: "Number of vertices in the link graph of the last run per corpus",
		}, []string{"corpus"}),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRun records the outcome of a finished run.
func (m *Metrics) ObserveRun(run *model.RankRun) {
	m.runs.Inc()
	if run.Failed() {
		m.runFailures.Inc()
	}
	if run.CacheHit {
		m.cacheHits.Inc()
	}
	m.runWarnings.Add(float64(len(run.Warnings)))
	if run.VertexCount > 0 {
		m.graphVertices.WithLabelValues(run.Corpus).Set(float64(run.VertexCount))
	}
}

// ObserveSolve records one solver invocation.
func (m *Metrics) ObserveSolve(elapsed time.Duration, res *pagerank.Result, err error) {
	m.solveDuration.Observe(elapsed.Seconds())

	var convErr *pagerank.ConvergenceError
	switch {
	case res != nil:
		m.solveIters.Observe(float64(res.Iterations()))
	case errors.As(err, &convErr):
		m.nonConvergence.Inc()
		m.solveIters.Observe(float64(convErr.Iterations))
	}
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.runs,
		m.runFailures,
		m.cacheHits,
		m.runWarnings,
		m.nonConvergence,
		m.solveIters,
		m.solveDuration,
		m.graphVertices,
	}
}

// WriteFile registers the metrics with a fresh registry and writes them
// to path in the Prometheus text exposition format, for the node exporter
// textfile collector.
func (m *Metrics) WriteFile(path string) error {
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, reg)
}
