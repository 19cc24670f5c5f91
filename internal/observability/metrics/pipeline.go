package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics tracks pipeline steps and run outcomes. It implements Recorder
// with the step name as the operation label.
type PipelineMetrics struct {
	stepsTotal    *prometheus.CounterVec
	stepDuration  *prometheus.HistogramVec
	stepErrors    *prometheus.CounterVec
	stageRows     *prometheus.GaugeVec
	runsTotal     *prometheus.CounterVec
	lastRunStatus *prometheus.GaugeVec
	lastSuccess   prometheus.Gauge

	collectors []prometheus.Collector
}

// NewPipelineMetrics creates and registers pipeline metrics
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}

	m.stepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_steps_total",
			Help: "Total number of pipeline steps executed",
		},
		[]string{"step", "status"},
	)
	m.stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_step_duration_seconds",
			Help:    "Time taken by each pipeline step",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount15), // 10ms to ~160s
		},
		[]string{"step"},
	)
	m.stepErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_step_errors_total",
			Help: "Total number of failed pipeline steps by error category",
		},
		[]string{"step", "error_type"},
	)
	m.stageRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pipeline_stage_rows",
			Help: "Rows produced by each stage in the last run",
		},
		[]string{"stage"},
	)
	m.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of pipeline runs",
		},
		[]string{"status"},
	)
	m.lastRunStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pipeline_last_run_status",
			Help: "1 for the status of the last run, 0 otherwise",
		},
		[]string{"status"},
	)
	m.lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pipeline_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run",
	})

	m.collectors = []prometheus.Collector{
		m.stepsTotal, m.stepDuration, m.stepErrors, m.stageRows,
		m.runsTotal, m.lastRunStatus, m.lastSuccess,
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements the Collector interface
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordOperation implements Recorder.
func (m *PipelineMetrics) RecordOperation(step, status string) {
	m.stepsTotal.WithLabelValues(step, status).Inc()
}

// RecordDuration implements Recorder.
func (m *PipelineMetrics) RecordDuration(step string, seconds float64) {
	m.stepDuration.WithLabelValues(step).Observe(seconds)
}

// RecordError implements Recorder.
func (m *PipelineMetrics) RecordError(step, errorType string) {
	m.stepErrors.WithLabelValues(step, errorType).Inc()
}

// SetStageRows records how many rows a stage produced.
func (m *PipelineMetrics) SetStageRows(stage string, rows int) {
	m.stageRows.WithLabelValues(stage).Set(float64(rows))
}

// RecordRun records the outcome of a whole run finished at ts.
func (m *PipelineMetrics) RecordRun(status string, ts time.Time) {
	m.runsTotal.WithLabelValues(status).Inc()
	for _, s := range []string{StatusSuccess, StatusError} {
		v := 0.0
		if s == status {
			v = 1
		}
		m.lastRunStatus.WithLabelValues(s).Set(v)
	}
	if status == StatusSuccess {
		m.lastSuccess.Set(float64(ts.Unix()))
	}
}

var _ Recorder = (*PipelineMetrics)(nil)
