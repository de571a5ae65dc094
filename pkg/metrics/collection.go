package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collection operation outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeRejected  = "rejected"
	OutcomeTransient = "transient"
	OutcomeError     = "error"
)

// CollectionMetrics counts cart and wishlist mutations and their retries.
type CollectionMetrics struct {
	operations *prometheus.CounterVec
	retries    *prometheus.CounterVec
}

// NewCollectionMetrics registers the collection metrics on the provided registerer.
func NewCollectionMetrics(reg prometheus.Registerer) *CollectionMetrics {
	if reg == nil {
		return &CollectionMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "collection_operations_total",
		Help: "Cart and wishlist operations, by kind, operation and outcome.",
	}, []string{"kind", "op", "outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "collection_retries_total",
		Help: "Write conflicts retried by the collection service.",
	}, []string{"kind", "op"})
	reg.MustRegister(operations, retries)
	return &CollectionMetrics{operations: operations, retries: retries}
}

// IncOperation counts one finished operation.
func (c *CollectionMetrics) IncOperation(kind, op, outcome string) {
	if c == nil || c.operations == nil {
		return
	}
	c.operations.WithLabelValues(normalizeLabel(kind), normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// IncRetry counts one retried conflict.
func (c *CollectionMetrics) IncRetry(kind, op string) {
	if c == nil || c.retries == nil {
		return
	}
	c.retries.WithLabelValues(normalizeLabel(kind), normalizeLabel(op)).Inc()
}
