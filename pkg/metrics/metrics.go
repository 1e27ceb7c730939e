// Package metrics records per-target dump metrics in a private prometheus registry,
// for export as a node-exporter textfile.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Recorder holds the collectors for one process. The zero value is not usable; use New.
type Recorder struct {
	registry *prometheus.Registry

	dumps    *prometheus.CounterVec
	duration *prometheus.GaugeVec
	size     *prometheus.GaugeVec
	lastRun  prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		dumps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mysql_db_dump_total",
			Help: "Number of database dumps run, by outcome",
		}, []string{"database", "status"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mysql_db_dump_duration_seconds",
			Help: "Duration of the most recent dump of each database",
		}, []string{"database"}),
		size: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mysql_db_dump_size_bytes",
			Help: "Size of the most recent dump artifact of each database",
		}, []string{"database"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mysql_db_dump_last_run_timestamp_seconds",
			Help: "Unix time the most recent dump run finished",
		}),
	}
	r.registry.MustRegister(r.dumps, r.duration, r.size, r.lastRun)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveTarget records the outcome of dumping one target.
func (r *Recorder) ObserveTarget(database string, success bool, duration time.Duration, size int64) {
	status := StatusSuccess
	if !success {
		status = StatusFailure
	}
	r.dumps.WithLabelValues(database, status).Inc()
	r.duration.WithLabelValues(database).Set(duration.Seconds())
	if success {
		r.size.WithLabelValues(database).Set(float64(size))
	}
}

// RunFinished stamps the end of a run.
func (r *Recorder) RunFinished(t time.Time) {
	r.lastRun.Set(float64(t.Unix()))
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("error writing metrics file %s: %w", path, err)
	}
	return nil
}
