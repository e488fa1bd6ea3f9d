package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"aitools-backend/internal/inference"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aitools_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aitools_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	inferenceRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aitools_inference_requests_total",
			Help: "Inference calls by provider, kind and outcome.",
		},
		[]string{"provider", "kind", "outcome"},
	)

	inferenceDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aitools_inference_duration_seconds",
			Help:    "Inference call latency by provider and kind.",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"provider", "kind"},
	)

	HistoryWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aitools_history_writes_total",
			Help: "History records written by response type.",
		},
		[]string{"response_type"},
	)

	HistoryCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aitools_history_cache_lookups_total",
			Help: "History cache lookups by result (hit, miss, error).",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(httpRequests)
	prometheus.MustRegister(httpDuration)
	prometheus.MustRegister(inferenceRequests)
	prometheus.MustRegister(inferenceDuration)
	prometheus.MustRegister(HistoryWrites)
	prometheus.MustRegister(HistoryCacheLookups)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency labelled by the matched chi
// route pattern, which keeps label cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type instrumentedBinding struct {
	provider string
	next     inference.Binding
}

func InstrumentBinding(provider string, b inference.Binding) inference.Binding {
	return &instrumentedBinding{provider: provider, next: b}
}

func (b *instrumentedBinding) Run(ctx context.Context, model string, inputs inference.Inputs) (inference.Result, error) {
	kind := string(inputs.Kind)
	if kind == "" {
		kind = string(inference.KindText)
	}

	start := time.Now()
	res, err := b.next.Run(ctx, model, inputs)
	inferenceDuration.WithLabelValues(b.provider, kind).Observe(time.Since(start).Seconds())

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	inferenceRequests.WithLabelValues(b.provider, kind, outcome).Inc()

	return res, err
}
