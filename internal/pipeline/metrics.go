package pipeline

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics captures per-stage pipeline signals.
type Metrics struct {
	rowsWritten   *prometheus.CounterVec
	rowsLoaded    *prometheus.GaugeVec
	queryDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
}

// NewMetrics registers the pipeline collectors on registerer, falling back to
// the default registerer when nil. Calling it twice on one registerer reuses
// the existing collectors.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		rowsWritten: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecom_pipeline_rows_written_total",
			Help: "Rows written to exchange files by entity.",
		}, []string{"entity"})),
		rowsLoaded: register(registerer, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ecom_pipeline_rows_loaded",
			Help: "Rows present in each store table after the last ingest.",
		}, []string{"table"})),
		queryDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecom_pipeline_query_duration_seconds",
			Help:    "Analytical query latency by query name.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"query"})),
		stageFailures: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecom_pipeline_stage_failures_total",
			Help: "Pipeline stage failures by stage.",
		}, []string{"stage"})),
	}
}

// register returns the collector already registered under the same
// descriptor, if any, so repeated construction shares one set of series.
func register[T prometheus.Collector](registerer prometheus.Registerer, c T) T {
	if err := registerer.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *Metrics) AddRowsWritten(entity string, n int) {
	m.rowsWritten.WithLabelValues(entity).Add(float64(n))
}

func (m *Metrics) SetRowsLoaded(table string, n int64) {
	m.rowsLoaded.WithLabelValues(table).Set(float64(n))
}

func (m *Metrics) ObserveQuery(name string, d time.Duration) {
	m.queryDuration.WithLabelValues(name).Observe(d.Seconds())
}

func (m *Metrics) IncStageFailure(stage string) {
	m.stageFailures.WithLabelValues(stage).Inc()
}
