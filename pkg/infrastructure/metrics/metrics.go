// Package metrics exposes allocation run statistics as Prometheus collectors.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vsinha/linealloc/pkg/application/services/allocation"
)

const namespace = "linealloc"

// TextfileName is the file written by WriteTextfile, in the text exposition
// format read by the node exporter's textfile collector
const TextfileName = "metrics.prom"

// Recorder implements allocation.MetricsRecorder with Prometheus collectors
type Recorder struct {
	solveDuration *prometheus.HistogramVec
	runs          *prometheus.CounterVec
	fallbackMass  prometheus.Counter
	gapMass       prometheus.Counter
}

var _ allocation.MetricsRecorder = (*Recorder)(nil)

// NewRecorder creates the collectors and registers them with reg
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		solveDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "solve_duration_seconds",
			Help:      "Time spent in the allocation pipeline, by outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"status"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Allocation runs, by outcome.",
		}, []string{"status"}),
		fallbackMass: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_mass_total",
			Help:      "Mass assigned to the fallback line before redistribution.",
		}),
		gapMass: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gap_mass_total",
			Help:      "Demand mass no real line could absorb.",
		}),
	}

	for _, c := range []prometheus.Collector{r.solveDuration, r.runs, r.fallbackMass, r.gapMass} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveSolve records one pipeline outcome
func (r *Recorder) ObserveSolve(status string, elapsed time.Duration, fallbackMass, gapMass float64) {
	r.solveDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	r.runs.WithLabelValues(status).Inc()
	if fallbackMass > 0 {
		r.fallbackMass.Add(fallbackMass)
	}
	if gapMass > 0 {
		r.gapMass.Add(gapMass)
	}
}

// WriteTextfile writes everything g gathers to dir/metrics.prom and returns
// the file's path
func WriteTextfile(g prometheus.Gatherer, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create metrics directory: %w", err)
	}
	path := filepath.Join(dir, TextfileName)
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return "", fmt.Errorf("failed to write metrics: %w", err)
	}
	return path, nil
}
