package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors published by the service.
type Metrics struct {
	registry *prometheus.Registry

	OrdersCreated     prometheus.Counter
	StatusTransitions *prometheus.CounterVec
	StreamSubscribers prometheus.Gauge
	HTTPRequests      *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "foodorder",
			Name:      "orders_created_total",
			Help:      "Orders successfully placed.",
		}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foodorder",
			Name:      "order_status_transitions_total",
			Help:      "Order status transitions by target status.",
		}, []string{"status"}),
		StreamSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "foodorder",
			Name:      "stream_subscribers",
			Help:      "Currently connected status-stream subscribers.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foodorder",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status class.",
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.OrdersCreated,
		m.StatusTransitions,
		m.StreamSubscribers,
		m.HTTPRequests,
	)
	return m
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
