// Package metrics exports Prometheus collectors for the back-office services.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"backoffice/internal/core/entity"
	"backoffice/internal/domain/registers/stock"
)

const namespace = "backoffice"

// Metrics groups every collector.
type Metrics struct {
	movements     *prometheus.CounterVec
	movementUnits *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	outbox        *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

var _ stock.MovementObserver = (*Metrics)(nil)

// New registers the collectors on reg. A nil reg yields a no-op instance.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movements_total",
			Help:      "Stock movements recorded, by movement type.",
		}, []string{"type"}),
		movementUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_movement_units_total",
			Help:      "Absolute units moved, by movement type.",
		}, []string{"type"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_transitions_total",
			Help:      "Document lifecycle transitions, by document type and resulting status.",
		}, []string{"document", "status"}),
		outbox: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_deliveries_total",
			Help:      "Outbox delivery attempts, by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.movements, m.movementUnits, m.transitions, m.outbox, m.httpRequests, m.httpDuration)
	return m
}

// ObserveMovements implements stock.MovementObserver.
func (m *Metrics) ObserveMovements(movements []entity.StockMovement) {
	if m == nil || m.movements == nil {
		return
	}
	for _, mv := range movements {
		label := normalizeLabel(string(mv.Type))
		m.movements.WithLabelValues(label).Inc()
		units := mv.Quantity
		if units < 0 {
			units = -units
		}
		m.movementUnits.WithLabelValues(label).Add(float64(units))
	}
}

// ObserveTransition counts a document reaching status (including creation).
func (m *Metrics) ObserveTransition(document, status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(document), normalizeLabel(status)).Inc()
}

// ObserveOutbox counts one delivery attempt.
func (m *Metrics) ObserveOutbox(err error) {
	if m == nil || m.outbox == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.outbox.WithLabelValues(result).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.httpRequests == nil {
		return
	}
	route = normalizeLabel(route)
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
