// Package metrics counts scrape outcomes in a Prometheus registry that is
// dumped to a node_exporter textfile at the end of a run.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"salary-trends/models"
)

const namespace = "salary_trends"

// Recorder holds the run metrics. A nil *Recorder discards everything.
type Recorder struct {
	registry *prometheus.Registry

	pairsAttempted *prometheus.CounterVec
	pairsFailed    *prometheus.CounterVec
	records        *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	lastSuccess    *prometheus.GaugeVec
}

// NewRecorder registers the run metrics on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)

	return &Recorder{
		registry: reg,
		pairsAttempted: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_attempted_total",
			Help:      "Team/season pairs attempted.",
		}, []string{"league"}),
		pairsFailed: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_failed_total",
			Help:      "Team/season pairs skipped, by stage and failure kind.",
		}, []string{"league", "stage", "kind"}),
		records: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Player records collected.",
		}, []string{"league"}),
		fetchDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching one payroll page, retries included.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"league"}),
		lastSuccess: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that produced data.",
		}, []string{"league"}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) PairAttempted(league string) {
	if r == nil {
		return
	}
	r.pairsAttempted.WithLabelValues(league).Inc()
}

// PairFailed counts a skipped pair under the stage and kind of err.
func (r *Recorder) PairFailed(league string, err error) {
	if r == nil {
		return
	}
	stage, kind := "unknown", "unknown"
	var pe *models.PipelineError
	if errors.As(err, &pe) {
		stage, kind = string(pe.Stage), string(pe.Kind)
	}
	r.pairsFailed.WithLabelValues(league, stage, kind).Inc()
}

func (r *Recorder) Records(league string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.records.WithLabelValues(league).Add(float64(n))
}

func (r *Recorder) ObserveFetch(league string, d time.Duration) {
	if r == nil {
		return
	}
	r.fetchDuration.WithLabelValues(league).Observe(d.Seconds())
}

func (r *Recorder) MarkSuccess(league string, at time.Time) {
	if r == nil {
		return
	}
	r.lastSuccess.WithLabelValues(league).Set(float64(at.Unix()))
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
