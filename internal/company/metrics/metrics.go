package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation labels.
const (
	OpFetch  = "fetch"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Metrics provides observability for the company registry.
// Tracks operation outcomes, durations and change-event publishing.
type Metrics struct {
	Operations       *prometheus.CounterVec
	OperationLatency *prometheus.HistogramVec
	EventsPublished  *prometheus.CounterVec
	IngestedRows     prometheus.Counter
}

// New registers the registry metrics with reg. Passing nil uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "siret_api_operations_total",
			Help: "Registry operations by kind and outcome code",
		}, []string{"operation", "outcome"}),
		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "siret_api_operation_duration_seconds",
			Help:    "Duration of registry operations including the store round trips",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "siret_api_change_events_total",
			Help: "Change events handed to the publisher, by result",
		}, []string{"result"}),
		IngestedRows: factory.NewCounter(prometheus.CounterOpts{
			Name: "siret_api_ingested_rows_total",
			Help: "Rows written by the bulk ingestion pipeline",
		}),
	}
}

// ObserveOperation records one finished operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op, outcome string, start time.Time) {
	m.Operations.WithLabelValues(op, outcome).Inc()
	m.OperationLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// IncrementEvents records a publish attempt.
func (m *Metrics) IncrementEvents(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.EventsPublished.WithLabelValues(result).Inc()
}

// IncrementEventsDropped records an event skipped while the stream is unavailable.
func (m *Metrics) IncrementEventsDropped() {
	m.EventsPublished.WithLabelValues("dropped").Inc()
}

// AddIngestedRows records rows written by one ingestion chunk.
func (m *Metrics) AddIngestedRows(n int) {
	m.IngestedRows.Add(float64(n))
}
