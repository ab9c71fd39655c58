package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "openwrt_monitor"

// Recorder owns a private registry with the poller and API metrics.
// It satisfies the recorder interfaces of the coordinator and actions packages.
type Recorder struct {
	registry *prometheus.Registry

	pollCycles   *prometheus.CounterVec
	pollDuration *prometheus.HistogramVec
	logins       *prometheus.CounterVec
	actions      *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewRecorder creates a recorder with Go runtime and process collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		pollCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_cycles_total",
				Help:      "Poll cycles by router and result",
			},
			[]string{"router", "result"},
		),
		pollDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "poll_duration_seconds",
				Help:      "Poll cycle duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
			},
			[]string{"router"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Login attempts by router and result",
			},
			[]string{"router", "result"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Executed actions by router, kind and result",
			},
			[]string{"router", "kind", "result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.pollCycles,
		r.pollDuration,
		r.logins,
		r.actions,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RegisterSource exports the snapshots returned by src.
func (r *Recorder) RegisterSource(src SnapshotSource) error {
	return r.registry.Register(NewSnapshotCollector(src))
}

func (r *Recorder) ObservePoll(router, result string, d time.Duration) {
	r.pollCycles.WithLabelValues(router, result).Inc()
	r.pollDuration.WithLabelValues(router).Observe(d.Seconds())
}

func (r *Recorder) ObserveLogin(router, result string) {
	r.logins.WithLabelValues(router, result).Inc()
}

func (r *Recorder) ObserveAction(router, kind, result string) {
	r.actions.WithLabelValues(router, kind, result).Inc()
}

// Middleware counts API requests by chi route pattern.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, req)

		route := req.URL.Path
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		r.httpDuration.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
		r.httpRequests.WithLabelValues(req.Method, route, strconv.Itoa(rw.status)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
