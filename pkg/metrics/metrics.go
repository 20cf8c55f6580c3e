package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Unmatched labels requests that matched no route.
const Unmatched = "unmatched"

// Collector records request and lifecycle metrics in its own registry.
type Collector struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	phases   *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// New creates a Collector. Runtime and process collectors are included.
func New(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		phases: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "lifecycle",
				Name:      "phase_duration_seconds",
				Help:      "Time spent in listeners of each lifecycle phase",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"phase"},
		),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "In-flight HTTP requests",
		}),
	}

	c.registry.MustRegister(
		c.requests, c.duration, c.phases, c.inflight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObservePhase records the duration of one lifecycle phase.
func (c *Collector) ObservePhase(phase string, d time.Duration) {
	c.phases.WithLabelValues(phase).Observe(d.Seconds())
}

// ObserveRequest records a finished request. Use the route pattern, not
// the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveRequest(route, method string, status int, d time.Duration) {
	if route == "" {
		route = Unmatched
	}
	code := strconv.Itoa(status)
	c.requests.WithLabelValues(route, method, code).Inc()
	c.duration.WithLabelValues(route, method, code).Observe(d.Seconds())
}

// Begin marks a request in flight and returns the function ending it.
func (c *Collector) Begin() func() {
	c.inflight.Inc()
	return c.inflight.Dec
}

// Registry exposes the registry for custom application metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
