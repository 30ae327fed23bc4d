package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partner_portal",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "partner_portal",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	salesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partner_portal",
			Subsystem: "sales",
			Name:      "recorded_total",
			Help:      "Sales recorded by kind and origin.",
		},
		[]string{"kind", "origin"},
	)
	statementsComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partner_portal",
			Subsystem: "commission",
			Name:      "statements_total",
			Help:      "Commission statements served, by cache outcome.",
		},
		[]string{"cache"},
	)
	statementDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "partner_portal",
			Subsystem: "commission",
			Name:      "statement_duration_seconds",
			Help:      "Time spent recomputing a statement from full history.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	outboxPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partner_portal",
			Subsystem: "outbox",
			Name:      "events_total",
			Help:      "Outbox publish attempts by event type and result.",
		},
		[]string{"event_type", "success"},
	)
	eventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "partner_portal",
			Subsystem: "consumer",
			Name:      "events_total",
			Help:      "Inbound events by type and outcome.",
		},
		[]string{"event_type", "outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, salesRecorded, statementsComputed,
			statementDuration, outboxPublished, eventsConsumed)
	})
}

func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, route, statusLabel).Inc()
	httpDuration.WithLabelValues(method, route, statusLabel).Observe(duration.Seconds())
}

func RecordSale(kind, origin string) {
	RegisterMetrics()
	salesRecorded.WithLabelValues(kind, origin).Inc()
}

func RecordStatement(cacheHit bool, duration time.Duration) {
	RegisterMetrics()
	if cacheHit {
		statementsComputed.WithLabelValues("hit").Inc()
		return
	}
	statementsComputed.WithLabelValues("miss").Inc()
	statementDuration.Observe(duration.Seconds())
}

func RecordOutboxPublish(eventType string, success bool) {
	RegisterMetrics()
	outboxPublished.WithLabelValues(eventType, strconv.FormatBool(success)).Inc()
}

func RecordEventConsumed(eventType, outcome string) {
	RegisterMetrics()
	eventsConsumed.WithLabelValues(eventType, outcome).Inc()
}
