// Prometheus metrics the cycle updates as it runs:
//
//   - botrading_cycles_total{outcome}        – cycles run (ok|error)
//   - botrading_decisions_total{action}      – decisions received (buy|sell|hold)
//   - botrading_verifications_total{outcome} – verification results (open|clear|error)
//   - botrading_orders_total{direction}      – orders opened (buy|sell)
//   - botrading_skips_total{reason}          – symbols skipped (session_closed|lot_too_small)
//   - botrading_attempts_total{operation}    – attempts per remote operation, retries included
//   - botrading_account_balance              – balance from the last account read
//   - botrading_last_risk_amount             – realized risk of the last sized order
//
// Registered in init() and served by the /metrics endpoint the run command
// starts.

package bot

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botrading_cycles_total",
			Help: "Trading cycles run, by outcome",
		},
		[]string{"outcome"}, // ok|error
	)

	mtxDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botrading_decisions_total",
			Help: "Decisions received from the AI service",
		},
		[]string{"action"}, // buy|sell|hold
	)

	mtxVerifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botrading_verifications_total",
			Help: "Operation verifications, by outcome",
		},
		[]string{"outcome"}, // open|clear|error
	)

	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botrading_orders_total",
			Help: "Orders opened",
		},
		[]string{"direction"}, // buy|sell
	)

	mtxSkips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botrading_skips_total",
			Help: "Symbols skipped without an error",
		},
		[]string{"reason"}, // session_closed|lot_too_small
	)

	mtxAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botrading_attempts_total",
			Help: "Attempts per remote operation, retries included",
		},
		[]string{"operation"}, // verify|decide|account|spec|order
	)

	mtxBalance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "botrading_account_balance",
			Help: "Account balance at the last read",
		},
	)

	mtxRiskAmount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "botrading_last_risk_amount",
			Help: "Realized risk of the last sized order",
		},
	)
)

func init() {
	prometheus.MustRegister(mtxCycles, mtxDecisions, mtxVerifications)
	prometheus.MustRegister(mtxOrders, mtxSkips, mtxAttempts)
	prometheus.MustRegister(mtxBalance, mtxRiskAmount)
}
