// Package metrics records run metrics and writes them in the Prometheus
// textfile exposition format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FileName is the textfile written next to the run artifacts.
const FileName = "fundsim.prom"

// Metrics holds all Prometheus metrics for one process
type Metrics struct {
	registry *prometheus.Registry

	RecordsGenerated  *prometheus.CounterVec
	GenerationSeconds *prometheus.GaugeVec
	RunDuration       prometheus.Gauge
	LastRunTimestamp  prometheus.Gauge
	RunsFailed        prometheus.Counter
}

// New creates and registers all metrics on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RecordsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fundsim_records_generated_total",
			Help: "Total number of investor records generated, by segment",
		}, []string{"segment"}),
		GenerationSeconds: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fundsim_segment_generation_seconds",
			Help: "Wall time spent generating the last run's segment",
		}, []string{"segment"}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fundsim_run_duration_seconds",
			Help: "Wall time of the last completed run",
		}),
		LastRunTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fundsim_last_run_timestamp_seconds",
			Help: "Unix time the last run completed",
		}),
		RunsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "fundsim_runs_failed_total",
			Help: "Total number of runs that ended with an error",
		}),
	}
}

// ObserveSegment records one finished segment.
func (m *Metrics) ObserveSegment(label string, records int, took time.Duration) {
	m.RecordsGenerated.WithLabelValues(label).Add(float64(records))
	m.GenerationSeconds.WithLabelValues(label).Set(took.Seconds())
}

// ObserveRun records a completed run.
func (m *Metrics) ObserveRun(took time.Duration, finishedAt time.Time) {
	m.RunDuration.Set(took.Seconds())
	m.LastRunTimestamp.Set(float64(finishedAt.Unix()))
}

// IncrementRunsFailed increments the failed runs counter by 1
func (m *Metrics) IncrementRunsFailed() {
	m.RunsFailed.Inc()
}

// WriteTextfile atomically writes the current values to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
