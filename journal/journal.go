// Package journal persists what the bots did: every operation submitted to
// the broker and every decision taken along the way.
//
// The journal is strictly a sink. Bots append records and never read them
// back to make trading decisions; ground truth about open operations always
// comes from the broker (see the verify package). Reads exist only for the
// audit and reporting tooling.
package journal

import (
	"time"

	"github.com/DVARGAS117/Botrading-sub003/magic"
)

// OperationRecord is one journaled broker operation. RunID ties the row to
// the bot process run that produced it, so rows from concurrent instances
// stay distinguishable.
type OperationRecord struct {
	RunID      string
	Ticket     int64
	Symbol     string
	Magic      magic.Number
	Direction  string // buy or sell
	OrderType  string
	Lots       float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	RiskAmount float64
	Status     string
	OpenTime   time.Time
	RecordedAt time.Time
}

// DecisionRecord is one journaled routing or AI decision: buy, sell, hold,
// reevaluate, or skip.
type DecisionRecord struct {
	RunID      string
	Time       time.Time
	Symbol     string
	Magic      magic.Number
	Action     string
	Confidence float64
	Reason     string
}

// Journal is the append-only sink the trading cycle writes to.
type Journal interface {
	RecordOperation(OperationRecord) error
	RecordDecision(DecisionRecord) error
	Close() error
}
