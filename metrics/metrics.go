// Package metrics exposes Prometheus counters for the submission pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	SubmissionsProcessed *prometheus.CounterVec
	SubmissionsAccepted  *prometheus.CounterVec
	SubmissionsRejected  *prometheus.CounterVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		SubmissionsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ekyc_submissions_processed_total",
			Help: "Total number of submissions the pipeline has processed",
		}, []string{"document_type"}),
		SubmissionsAccepted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ekyc_submissions_accepted_total",
			Help: "Total number of submissions that produced a stored record",
		}, []string{"document_type"}),
		SubmissionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ekyc_submissions_rejected_total",
			Help: "Total number of rejected submissions by reason",
		}, []string{"document_type", "reason"}),
	}
}

// ObserveAccepted records one accepted submission.
func (m *Metrics) ObserveAccepted(documentType string) {
	m.SubmissionsProcessed.WithLabelValues(documentType).Inc()
	m.SubmissionsAccepted.WithLabelValues(documentType).Inc()
}

// ObserveRejected records one rejected submission with its reason code.
func (m *Metrics) ObserveRejected(documentType, reason string) {
	m.SubmissionsProcessed.WithLabelValues(documentType).Inc()
	m.SubmissionsRejected.WithLabelValues(documentType, reason).Inc()
}
