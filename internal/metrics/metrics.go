package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pingboard"

// label names
const (
	labelAddress = "address"
	labelName    = "name"
	labelTier    = "tier"
	labelResult  = "result"
)

// probeBuckets covers fast LAN answers up to the HTTP timeout plus two TCP
// attempts.
var probeBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8}

// Recorder records probe and cycle metrics.
type Recorder struct {
	registry *prometheus.Registry

	probes        *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	targetUp      *prometheus.GaugeVec
	responseTime  *prometheus.GaugeVec
	cycles        prometheus.Counter
	cycleDuration prometheus.Histogram
	targets       prometheus.Gauge
	lastCycle     prometheus.Gauge
}

// NewRecorder creates a [Recorder] backed by a fresh registry that also
// carries the Go runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),

		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_total",
			Help:      "Total number of completed probes by deciding tier and result.",
		}, []string{labelTier, labelResult}),

		probeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Wall-clock duration of a whole probe, all tiers included.",
			Buckets:   probeBuckets,
		}, []string{labelTier}),

		targetUp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_up",
			Help:      "Whether the target was reachable on its last probe (1) or not (0).",
		}, []string{labelAddress, labelName}),

		responseTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_response_time_milliseconds",
			Help:      "Response time of the deciding tier on the last successful probe.",
		}, []string{labelAddress, labelName}),

		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Total number of completed probing cycles.",
		}),

		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a full probing cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),

		targets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "targets",
			Help:      "Number of configured targets.",
		}),

		lastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time at which the last probing cycle completed.",
		}),
	}

	r.registry.MustRegister(
		r.probes,
		r.probeDuration,
		r.targetUp,
		r.responseTime,
		r.cycles,
		r.cycleDuration,
		r.targets,
		r.lastCycle,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// SetTargets records the number of configured targets.
func (r *Recorder) SetTargets(n int) {
	r.targets.Set(float64(n))
}

// ObserveProbe records the verdict of one probe.
//
// responseTimeMs is the deciding tier's time and is ignored when nil.
// elapsed is the duration of the whole probe.
func (r *Recorder) ObserveProbe(address, name, tier string, reachable bool, responseTimeMs *float64, elapsed time.Duration) {
	result := "offline"
	up := 0.0
	if reachable {
		result = "online"
		up = 1
	}

	r.probes.WithLabelValues(tier, result).Inc()
	r.probeDuration.WithLabelValues(tier).Observe(elapsed.Seconds())
	r.targetUp.WithLabelValues(address, name).Set(up)
	if responseTimeMs != nil {
		r.responseTime.WithLabelValues(address, name).Set(*responseTimeMs)
	}
}

// ObserveCycle records a completed probing cycle.
func (r *Recorder) ObserveCycle(elapsed time.Duration, completedAt time.Time) {
	r.cycles.Inc()
	r.cycleDuration.Observe(elapsed.Seconds())
	r.lastCycle.Set(float64(completedAt.Unix()))
}

// Registry returns the underlying Prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns an http.Handler serving the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		Registry: r.registry,
	})
}
