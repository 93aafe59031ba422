package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics aggregates counters for every engine family so operators can
// watch operation volume and batch sizes without scraping events.
type LedgerMetrics struct {
	stakingOps      *prometheus.CounterVec
	escrowOps       *prometheus.CounterVec
	paymentOps      *prometheus.CounterVec
	batchRecipients prometheus.Histogram
	batchTotal      prometheus.Counter
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Ledger returns the process-wide ledger metrics registry, registering the
// collectors on first use.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			stakingOps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stakevault_staking_ops_total",
				Help: "Count of completed staking operations by type.",
			}, []string{"op"}),
			escrowOps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stakevault_escrow_ops_total",
				Help: "Count of completed escrow operations by type.",
			}, []string{"op"}),
			paymentOps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stakevault_payment_ops_total",
				Help: "Count of completed recurring payment operations by type.",
			}, []string{"op"}),
			batchRecipients: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "stakevault_batch_recipients",
				Help:    "Accounts affected per reward distribution run.",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
			}),
			batchTotal: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stakevault_batch_distributed_total",
				Help: "Cumulative reward amount distributed by batch settlement.",
			}),
		}
		prometheus.MustRegister(
			ledgerRegistry.stakingOps,
			ledgerRegistry.escrowOps,
			ledgerRegistry.paymentOps,
			ledgerRegistry.batchRecipients,
			ledgerRegistry.batchTotal,
		)
	})
	return ledgerRegistry
}

// ObserveStakingOp records a completed staking operation.
func (m *LedgerMetrics) ObserveStakingOp(op string) {
	if m == nil || op == "" {
		return
	}
	m.stakingOps.WithLabelValues(op).Inc()
}

// ObserveEscrowOp records a completed escrow operation.
func (m *LedgerMetrics) ObserveEscrowOp(op string) {
	if m == nil || op == "" {
		return
	}
	m.escrowOps.WithLabelValues(op).Inc()
}

// ObservePaymentOp records a completed recurring payment operation.
func (m *LedgerMetrics) ObservePaymentOp(op string) {
	if m == nil || op == "" {
		return
	}
	m.paymentOps.WithLabelValues(op).Inc()
}

// ObserveBatchSettlement records the size and distributed total of one batch
// settlement run.
func (m *LedgerMetrics) ObserveBatchSettlement(recipients uint32, total *big.Int) {
	if m == nil {
		return
	}
	m.batchRecipients.Observe(float64(recipients))
	if total != nil {
		amount, _ := new(big.Float).SetInt(total).Float64()
		m.batchTotal.Add(amount)
	}
}
