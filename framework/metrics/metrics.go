// Package metrics exports container resolution counters to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-container/framework/container"
)

// Outcome labels of container_resolutions_total.
const (
	OutcomeResolved = "resolved"
	OutcomeFailed   = "failed"
	OutcomeCycle    = "cycle"
)

// Recorder implements container.Recorder on a private Prometheus registry.
type Recorder struct {
	registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
	cacheHits   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

var _ container.Recorder = (*Recorder)(nil)

// New creates a Recorder whose metric names start with namespace.
// Go runtime and process collectors are registered alongside.
func New(namespace string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Resolutions that built an instance, by abstract and outcome.",
			},
			[]string{"abstract", "outcome"},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Gets answered from the resolved cache.",
			},
			[]string{"abstract"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Time spent building instances.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"abstract"},
		),
	}

	r.registry.MustRegister(
		r.resolutions,
		r.cacheHits,
		r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) Resolved(abstract string, took time.Duration) {
	r.resolutions.WithLabelValues(abstract, OutcomeResolved).Inc()
	r.duration.WithLabelValues(abstract).Observe(took.Seconds())
}

func (r *Recorder) CacheHit(abstract string) {
	r.cacheHits.WithLabelValues(abstract).Inc()
}

func (r *Recorder) Failed(abstract string, err error) {
	outcome := OutcomeFailed
	if errors.Is(err, container.ErrCircularDependency) {
		outcome = OutcomeCycle
	}
	r.resolutions.WithLabelValues(abstract, outcome).Inc()
}

// Registry exposes the underlying registry, e.g. for tests or extra collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
