// Package metrics exposes engine counters to Prometheus. All methods are safe
// to call on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	ordersAccepted  prometheus.Counter
	ordersProcessed *prometheus.CounterVec
	fills           prometheus.Counter
	filledQty       prometheus.Counter
	queries         prometheus.Counter
	acceptErrors    prometheus.Counter

	queueDepth    prometheus.Gauge
	inflightConns prometheus.Gauge
}

// New registers collectors on a private registry so several instances can
// coexist (one per test).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		reg: reg,
		ordersAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ome", Name: "orders_accepted_total",
			Help: "Orders parsed by the gateway and pushed onto the ingestion queue.",
		}),
		ordersProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ome", Name: "orders_processed_total",
			Help: "Orders applied to the book by the matching worker.",
		}, []string{"side"}),
		fills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ome", Name: "fills_total",
			Help: "Crosses executed by the matching worker.",
		}),
		filledQty: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ome", Name: "filled_quantity_total",
			Help: "Quantity matched across all fills.",
		}),
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ome", Name: "price_queries_total",
			Help: "Price queries served on the gateway port.",
		}),
		acceptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ome", Name: "accept_errors_total",
			Help: "Accept failures on the gateway listener.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ome", Name: "ingest_queue_depth",
			Help: "Orders waiting for the matching worker.",
		}),
		inflightConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ome", Name: "gateway_inflight_connections",
			Help: "Connection handlers currently running.",
		}),
	}
	reg.MustRegister(
		m.ordersAccepted, m.ordersProcessed, m.fills, m.filledQty,
		m.queries, m.acceptErrors, m.queueDepth, m.inflightConns,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) OrderAccepted() {
	if m != nil {
		m.ordersAccepted.Inc()
	}
}

func (m *Metrics) OrderProcessed(side string) {
	if m != nil {
		m.ordersProcessed.WithLabelValues(side).Inc()
	}
}

func (m *Metrics) Filled(qty int64) {
	if m != nil {
		m.fills.Inc()
		m.filledQty.Add(float64(qty))
	}
}

func (m *Metrics) QueryServed() {
	if m != nil {
		m.queries.Inc()
	}
}

func (m *Metrics) AcceptFailed() {
	if m != nil {
		m.acceptErrors.Inc()
	}
}

func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.queueDepth.Set(float64(n))
	}
}

func (m *Metrics) ConnOpened() {
	if m != nil {
		m.inflightConns.Inc()
	}
}

func (m *Metrics) ConnClosed() {
	if m != nil {
		m.inflightConns.Dec()
	}
}
