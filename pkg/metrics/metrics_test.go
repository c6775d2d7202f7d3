package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.OrderAccepted()
	m.OrderAccepted()
	m.OrderProcessed("buy")
	m.Filled(5)
	m.Filled(2)
	m.SetQueueDepth(3)

	if got := testutil.ToFloat64(m.ordersAccepted); got != 2 {
		t.Errorf("orders accepted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.filledQty); got != 7 {
		t.Errorf("filled qty = %v, want 7", got)
	}
	if got := testutil.ToFloat64(m.queueDepth); got != 3 {
		t.Errorf("queue depth = %v, want 3", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "ome_fills_total 2") {
		t.Errorf("exposition missing fills counter:\n%s", rec.Body.String())
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.OrderAccepted()
	m.OrderProcessed("sell")
	m.Filled(1)
	m.QueryServed()
	m.AcceptFailed()
	m.SetQueueDepth(1)
	m.ConnOpened()
	m.ConnClosed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Errorf("nil metrics handler code = %d, want 404", rec.Code)
	}
}
