// Package metrics exposes Prometheus collectors for the pipeline and API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "soltab"

// Recorder owns the pipeline collectors. A nil *Recorder records nothing.
type Recorder struct {
	tables        *prometheus.CounterVec
	tableDuration *prometheus.HistogramVec
	methodErrors  *prometheus.CounterVec
	agreement     prometheus.Histogram
	qualityScore  prometheus.Histogram
	flags         *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
}

// NewRecorder registers the collectors on reg. A nil reg uses the default registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		tables: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "tables_processed_total",
			Help:      "Tables processed, by outcome (ok, review, failed)",
		}, []string{"outcome"}),
		tableDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "table_duration_seconds",
			Help:      "Time spent processing one table",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"stage"}),
		methodErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consensus",
			Name:      "method_failures_total",
			Help:      "Extraction method failures, by method",
		}, []string{"method"}),
		agreement: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "consensus",
			Name:      "agreement_ratio",
			Help:      "Mean pairwise agreement between extraction methods",
			Buckets:   []float64{0.5, 0.7, 0.8, 0.9, 0.95, 0.99, 1},
		}),
		qualityScore: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "quality_score",
			Help:      "Table quality scores",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		flags: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "validation",
			Name:      "flags_total",
			Help:      "Validation flags raised, by severity and check",
		}, []string{"severity", "check"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by route and status",
		}, []string{"method", "route", "status"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// TableProcessed records a finished table.
func (r *Recorder) TableProcessed(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.tables.WithLabelValues(outcome).Inc()
	r.tableDuration.WithLabelValues("total").Observe(d.Seconds())
}

// StageDuration records the time one processing stage took.
func (r *Recorder) StageDuration(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.tableDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// MethodFailed counts a failed extraction method.
func (r *Recorder) MethodFailed(method string) {
	if r == nil {
		return
	}
	r.methodErrors.WithLabelValues(method).Inc()
}

// Agreement observes a consensus agreement ratio.
func (r *Recorder) Agreement(v float64) {
	if r == nil {
		return
	}
	r.agreement.Observe(v)
}

// Quality observes a quality score and its flags.
func (r *Recorder) Quality(score int, flags map[string]map[string]int) {
	if r == nil {
		return
	}
	r.qualityScore.Observe(float64(score))
	for sev, byCheck := range flags {
		for check, n := range byCheck {
			r.flags.WithLabelValues(sev, check).Add(float64(n))
		}
	}
}

// HTTPRequest records one served request.
func (r *Recorder) HTTPRequest(method, route, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(method, route, status).Inc()
	r.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
