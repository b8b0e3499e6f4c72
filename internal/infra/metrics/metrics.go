package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AdjustmentsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_adjustments_applied_total",
		Help: "Stock adjustments committed, by store.",
	}, []string{"store"})

	AdjustmentConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_adjustment_conflicts_total",
		Help: "Adjustments abandoned after exhausting the conflict retry budget.",
	}, []string{"store"})

	CompletionsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_completions_processed_total",
		Help: "Appointment completion events that passed the transition guard.",
	})

	DeductionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_deduction_item_failures_total",
		Help: "Per-product deduction failures skipped during a completion sweep.",
	})
)
