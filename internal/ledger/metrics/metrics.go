package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Metrics provides observability for the ledger module.
// Tracks recorded transfers, audit outcomes and orphaned proofs.
type Metrics struct {
	TransfersRecorded   *prometheus.CounterVec
	TransferAmount      *prometheus.CounterVec
	TransferFailures    *prometheus.CounterVec
	AuditSubmitDuration prometheus.Histogram
	RecordDuration      prometheus.Histogram
	OrphanedProofs      prometheus.Counter
}

// New creates a Metrics instance registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TransfersRecorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aidledger_transfers_recorded_total",
			Help: "Transfers committed to the ledger by kind",
		}, []string{"kind"}),
		TransferAmount: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aidledger_transfer_amount_total",
			Help: "Sum of committed transfer amounts by kind",
		}, []string{"kind"}),
		TransferFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aidledger_transfer_failures_total",
			Help: "Failed transfer attempts by kind and error code",
		}, []string{"kind", "code"}),
		AuditSubmitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aidledger_audit_submit_duration_seconds",
			Help:    "Duration of audit log submissions",
			Buckets: durationBuckets,
		}),
		RecordDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aidledger_record_transfer_duration_seconds",
			Help:    "End-to-end duration of RecordTransfer",
			Buckets: durationBuckets,
		}),
		OrphanedProofs: f.NewCounter(prometheus.CounterOpts{
			Name: "aidledger_orphaned_proofs_total",
			Help: "Audit proofs issued whose local commit failed",
		}),
	}
}

// IncrementRecorded records a committed transfer.
func (m *Metrics) IncrementRecorded(kind string, amount float64) {
	m.TransfersRecorded.WithLabelValues(kind).Inc()
	m.TransferAmount.WithLabelValues(kind).Add(amount)
}

func (m *Metrics) IncrementFailure(kind, code string) {
	m.TransferFailures.WithLabelValues(kind, code).Inc()
}

func (m *Metrics) IncrementOrphanedProof() {
	m.OrphanedProofs.Inc()
}

// ObserveAuditSubmit records the duration of an audit submission.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveAuditSubmit(start time.Time) {
	m.AuditSubmitDuration.Observe(time.Since(start).Seconds())
}

// ObserveRecord records the duration of a RecordTransfer call.
func (m *Metrics) ObserveRecord(start time.Time) {
	m.RecordDuration.Observe(time.Since(start).Seconds())
}
