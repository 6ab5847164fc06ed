package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pet_adoption",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern, method and status.",
	}, []string{"route", "method", "status"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pet_adoption",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	realtimeSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pet_adoption",
		Subsystem: "realtime",
		Name:      "subscribers",
		Help:      "Currently connected realtime subscribers.",
	})

	realtimeEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pet_adoption",
		Subsystem: "realtime",
		Name:      "events_total",
		Help:      "Change events published to the hub, by table.",
	}, []string{"table"})

	realtimeDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pet_adoption",
		Subsystem: "realtime",
		Name:      "dropped_total",
		Help:      "Events dropped because a subscriber buffer was full.",
	})

	webhookDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pet_adoption",
		Subsystem: "webhook",
		Name:      "deliveries_total",
		Help:      "Webhook delivery attempts by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		realtimeSubscribers,
		realtimeEventsTotal,
		realtimeDroppedTotal,
		webhookDeliveriesTotal,
	)
}

// Handler expone /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMiddleware instrumenta cada request con el route pattern de chi
// (no la URL cruda, para no explotar la cardinalidad con IDs).
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		httpRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(sw.status)).Inc()
		httpRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

func SubscriberConnected()    { realtimeSubscribers.Inc() }
func SubscriberDisconnected() { realtimeSubscribers.Dec() }

func EventPublished(table string) { realtimeEventsTotal.WithLabelValues(table).Inc() }
func EventDropped()               { realtimeDroppedTotal.Inc() }

func WebhookDelivered(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	webhookDeliveriesTotal.WithLabelValues(outcome).Inc()
}

// statusWriter captura el status final para las métricas.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush pasa el flush al writer real (lo necesita el stream SSE).
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
