package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Simulation metrics
	simulationsTotal   *prometheus.CounterVec
	simulationDuration prometheus.Histogram
	linesTotal         *prometheus.CounterVec
	instructionsTotal  prometheus.Counter
	lastReturns        prometheus.Gauge
	lastInvestment     prometheus.Gauge
	jobsActive         *prometheus.GaugeVec
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

	r.simulationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradesim_simulations_total",
			Help: "Total number of simulation runs",
		},
		[]string{"status"},
	)
	r.simulationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tradesim_simulation_duration_seconds",
			Help:    "Simulation run duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)
	r.linesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradesim_input_lines_total",
			Help: "Input lines seen by the date grouper",
		},
		[]string{"outcome"},
	)
	r.instructionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tradesim_instructions_total",
			Help: "Total number of investment instructions generated",
		},
	)
	r.lastReturns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradesim_last_returns",
			Help: "Returns of the most recent successful simulation",
		},
	)
	r.lastInvestment = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradesim_last_total_investment",
			Help: "Total investment value of the most recent successful simulation",
		},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tradesim_jobs_active",
			Help: "Number of active jobs",
		},
		[]string{"type"},
	)

	reg.MustRegister(r.simulationsTotal)
	reg.MustRegister(r.simulationDuration)
	reg.MustRegister(r.linesTotal)
	reg.MustRegister(r.instructionsTotal)
	reg.MustRegister(r.lastReturns)
	reg.MustRegister(r.lastInvestment)
	reg.MustRegister(r.jobsActive)

	return r
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry for the node_exporter textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Registry)
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

// RecordLines records how many input lines were parsed and dropped.
func (r *Registry) RecordLines(parsed, dropped int) {
	r.linesTotal.WithLabelValues("parsed").Add(float64(parsed))
	r.linesTotal.WithLabelValues("dropped").Add(float64(dropped))
}

// RecordSimulation records a simulation run.
func (r *Registry) RecordSimulation(status string, duration float64) {
	r.simulationsTotal.WithLabelValues(status).Inc()
	r.simulationDuration.Observe(duration)
}

// RecordResult records the outcome of a successful simulation.
func (r *Registry) RecordResult(instructions int, returns, investment float64) {
	r.instructionsTotal.Add(float64(instructions))
	r.lastReturns.Set(returns)
	r.lastInvestment.Set(investment)
}

// SetJobsActive sets the number of active jobs of a type.
func (r *Registry) SetJobsActive(jobType string, count int) {
	r.jobsActive.WithLabelValues(jobType).Set(float64(count))
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
