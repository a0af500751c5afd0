package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "albion_marketplace"

// Metrics is nil-safe: a nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	chartBuild       *prometheus.HistogramVec
	skipped          *prometheus.CounterVec
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	collectorRuns    *prometheus.CounterVec
	collectorSamples prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		gatherer: reg,
		chartBuild: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chart_build_seconds",
			Help:      "Time spent aggregating observations into a chart.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		}, []string{"view"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_skipped_total",
			Help:      "Malformed observations dropped during aggregation.",
		}, []string{"view"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		collectorRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collector_runs_total",
			Help:      "Price collector runs by result.",
		}, []string{"result"}),
		collectorSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collector_observations_total",
			Help:      "Observations recorded by the price collector.",
		}),
	}
	reg.MustRegister(
		m.chartBuild, m.skipped, m.requests, m.requestDuration,
		m.collectorRuns, m.collectorSamples,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveChartBuild(view string, d time.Duration, skipped int) {
	if m == nil {
		return
	}
	m.chartBuild.WithLabelValues(view).Observe(d.Seconds())
	if skipped > 0 {
		m.skipped.WithLabelValues(view).Add(float64(skipped))
	}
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) CollectorRun(err error, recorded int) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.collectorRuns.WithLabelValues(result).Inc()
	m.collectorSamples.Add(float64(recorded))
}
