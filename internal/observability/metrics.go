package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	stepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "redockctl",
			Subsystem: "step",
			Name:      "runs_total",
			Help:      "Workflow steps executed.",
		},
		[]string{"operation", "step", "success"},
	)
	stepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "redockctl",
			Subsystem: "step",
			Name:      "duration_seconds",
			Help:      "Workflow step duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"operation", "step", "success"},
	)
	operationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "redockctl",
			Subsystem: "operation",
			Name:      "runs_total",
			Help:      "Workflow operations executed, by exit code.",
		},
		[]string{"operation", "exit_code"},
	)
	operationLastSuccess = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "redockctl",
			Subsystem: "operation",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run per operation.",
		},
		[]string{"operation"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(stepRuns, stepDuration, operationRuns, operationLastSuccess)
	})
}

func RecordStep(operation, step string, duration time.Duration, success bool) {
	RegisterMetrics()
	successLabel := strconv.FormatBool(success)
	stepRuns.WithLabelValues(operation, step, successLabel).Inc()
	stepDuration.WithLabelValues(operation, step, successLabel).Observe(duration.Seconds())
}

func RecordOperation(operation string, exitCode int, finished time.Time) {
	RegisterMetrics()
	operationRuns.WithLabelValues(operation, strconv.Itoa(exitCode)).Inc()
	if exitCode == 0 {
		operationLastSuccess.WithLabelValues(operation).Set(float64(finished.Unix()))
	}
}

// WriteTextfile dumps the default registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	RegisterMetrics()
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
