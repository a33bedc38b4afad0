package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	analysesTotal       *prometheus.CounterVec
	analysisDuration    prometheus.Histogram
	priceCacheTotal     *prometheus.CounterVec
	cointegrationPValue prometheus.Histogram
	providerFetches     *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairscope_analyses_total",
			Help: "Total number of pair analyses by outcome",
		},
		[]string{"status"},
	)
	r.analysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pairscope_analysis_duration_seconds",
			Help:    "End-to-end analysis duration in seconds, fetch included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
	r.priceCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairscope_price_cache_total",
			Help: "Price cache lookups by result",
		},
		[]string{"result"},
	)
	r.cointegrationPValue = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pairscope_cointegration_pvalue",
			Help:    "Distribution of Engle-Granger p-values of analysed pairs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 0.75, 1},
		},
	)
	r.providerFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pairscope_provider_fetches_total",
			Help: "Price history fetches by provider and status",
		},
		[]string{"provider", "status"},
	)

	reg.MustRegister(r.analysesTotal)
	reg.MustRegister(r.analysisDuration)
	reg.MustRegister(r.priceCacheTotal)
	reg.MustRegister(r.cointegrationPValue)
	reg.MustRegister(r.providerFetches)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordAnalysis records a finished analysis.
func (r *Registry) RecordAnalysis(status string, duration float64) {
	r.analysesTotal.WithLabelValues(status).Inc()
	r.analysisDuration.Observe(duration)
}

// RecordCointegration records the p-value of an analysed pair.
func (r *Registry) RecordCointegration(pvalue float64) {
	r.cointegrationPValue.Observe(pvalue)
}

// RecordCacheLookup records a price cache lookup result.
func (r *Registry) RecordCacheLookup(result string) {
	r.priceCacheTotal.WithLabelValues(result).Inc()
}

// RecordFetch records a provider fetch.
func (r *Registry) RecordFetch(provider, status string) {
	r.providerFetches.WithLabelValues(provider, status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
