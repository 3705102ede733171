package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/limaJavier/slotplanner/pkg/solver"
)

// Results attached to solve observations
const (
	ResultSuccess    = "success"
	ResultInfeasible = "infeasible"
	ResultViolation  = "invariant_violation"
)

// Metrics encapsulates the Prometheus collectors of the service
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	solveDuration   *prometheus.HistogramVec
	solveTotal      *prometheus.CounterVec
	checkTotal      *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	solveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solve_duration_seconds",
		Help:    "Duration of solver runs in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"algorithm", "result"})

	solveTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solve_runs_total",
		Help: "Total number of solver runs",
	}, []string{"algorithm", "result"})

	checkTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "check_runs_total",
		Help: "Total number of constraint checks",
	}, []string{"valid"})

	registry.MustRegister(requestDuration, requestTotal, solveDuration, solveTotal, checkTotal)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		solveDuration:   solveDuration,
		solveTotal:      solveTotal,
		checkTotal:      checkTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// SolveObserver records every solver run it is handed to
func (m *Metrics) SolveObserver() solver.Observer {
	return func(algorithm solver.Algorithm, outcome solver.Outcome, err error, elapsed time.Duration) {
		if m == nil {
			return
		}
		result := ResultInfeasible
		switch {
		case err != nil:
			result = ResultViolation
		case outcome.Success:
			result = ResultSuccess
		}
		m.solveDuration.WithLabelValues(algorithm.String(), result).Observe(elapsed.Seconds())
		m.solveTotal.WithLabelValues(algorithm.String(), result).Inc()
	}
}

func (m *Metrics) ObserveCheck(valid bool) {
	if m == nil {
		return
	}
	m.checkTotal.WithLabelValues(strconv.FormatBool(valid)).Inc()
}

// GinMiddleware records request metrics keyed by route template
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		m.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
