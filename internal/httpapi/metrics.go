package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"fluxpipe/internal/lp"
	"fluxpipe/internal/pipeline"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fluxpipe",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fluxpipe",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	httpInflight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "fluxpipe",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "In-flight HTTP requests",
		},
		[]string{"method"},
	)

	samplesProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fluxpipe",
			Subsystem: "pipeline",
			Name:      "samples_processed_total",
			Help:      "Samples processed and persisted",
		},
	)

	stageOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fluxpipe",
			Subsystem: "pipeline",
			Name:      "stage_outcomes_total",
			Help:      "Stage outcomes by stage and solver status",
		},
		[]string{"stage", "status"},
	)

	lpSolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fluxpipe",
			Subsystem: "lp",
			Name:      "solve_duration_seconds",
			Help:      "Duration of LP solves in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, httpInflight, samplesProcessed, stageOutcomes, lpSolveDuration)
}

// statusRecorder wraps http.ResponseWriter to capture status code
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware instruments requests for Prometheus
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method
		httpInflight.WithLabelValues(method).Inc()
		defer httpInflight.WithLabelValues(method).Dec()

		sr := &statusRecorder{ResponseWriter: w, status: 200}
		start := time.Now()
		next.ServeHTTP(sr, r)
		// the route pattern is only known once chi has routed the request
		path := routePatternOrPath(r)
		statusLabel := itoa(sr.status)
		dur := time.Since(start).Seconds()
		httpRequestsTotal.WithLabelValues(path, method, statusLabel).Inc()
		httpRequestDuration.WithLabelValues(path, method, statusLabel).Observe(dur)
	})
}

// routePatternOrPath returns the chi route pattern if available, otherwise
// falls back to URL path. This avoids high-cardinality label values.
func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// ObserveSolve records one LP solve. It has the lp.ObserveFunc signature.
func ObserveSolve(status lp.Status, elapsed time.Duration) {
	lpSolveDuration.WithLabelValues(status.String()).Observe(elapsed.Seconds())
}

// MetricsPublisher turns driver events into Prometheus counters.
type MetricsPublisher struct{}

func (MetricsPublisher) Publish(e pipeline.Event) {
	switch e.Name {
	case pipeline.EventSamplePersisted:
		samplesProcessed.Inc()
	case pipeline.EventStageSolved:
		stageOutcomes.WithLabelValues(field(e, "stage"), lp.StatusOptimal.String()).Inc()
	case pipeline.EventStageInfeasible:
		stageOutcomes.WithLabelValues(field(e, "stage"), field(e, "status")).Inc()
	}
}

func field(e pipeline.Event, key string) string {
	if s, ok := e.Fields[key].(string); ok && s != "" {
		return s
	}
	return "unknown"
}

// fast integer to ascii for small set of status codes
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
