package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetricsExposition(t *testing.T) {
	m := New()

	m.OrdersCreated.Inc()
	m.StatusTransitions.WithLabelValues("confirmed").Inc()
	m.StatusTransitions.WithLabelValues("confirmed").Inc()
	m.StreamSubscribers.Set(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	require.Contains(t, body, "foodorder_orders_created_total 1")
	require.Contains(t, body, `foodorder_order_status_transitions_total{status="confirmed"} 2`)
	require.Contains(t, body, "foodorder_stream_subscribers 3")
}

func TestIndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.OrdersCreated.Inc()

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if strings.Contains(rec.Body.String(), "foodorder_orders_created_total 1") {
		t.Fatal("registries must not share state")
	}
}
