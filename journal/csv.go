// journal/csv.go
package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSV journals operations and decisions into two flat files. Rows are
// flushed on every record so a crashed bot leaves a readable journal.
type CSV struct {
	operations *csv.Writer
	decisions  *csv.Writer
	of, df     *os.File
}

var operationHeader = []string{
	"run_id", "ticket", "symbol", "magic", "direction", "order_type",
	"lots", "entry_price", "stop_loss", "take_profit", "risk_amount",
	"status", "open_time", "recorded_at",
}

var decisionHeader = []string{
	"run_id", "time", "symbol", "magic", "action", "confidence", "reason",
}

// NewCSV creates (truncating) the two journal files and writes their
// headers.
func NewCSV(operationsPath, decisionsPath string) (*CSV, error) {
	of, err := os.Create(operationsPath)
	if err != nil {
		return nil, err
	}
	df, err := os.Create(decisionsPath)
	if err != nil {
		of.Close()
		return nil, err
	}

	ow := csv.NewWriter(of)
	dw := csv.NewWriter(df)

	if err := ow.Write(operationHeader); err != nil {
		return nil, err
	}
	if err := dw.Write(decisionHeader); err != nil {
		return nil, err
	}

	ow.Flush()
	if err := ow.Error(); err != nil {
		return nil, err
	}
	dw.Flush()
	if err := dw.Error(); err != nil {
		return nil, err
	}

	return &CSV{operations: ow, decisions: dw, of: of, df: df}, nil
}

func (j *CSV) RecordOperation(op OperationRecord) error {
	if op.RecordedAt.IsZero() {
		op.RecordedAt = time.Now().UTC()
	}
	err := j.operations.Write([]string{
		op.RunID,
		strconv.FormatInt(op.Ticket, 10),
		op.Symbol,
		strconv.Itoa(int(op.Magic)),
		op.Direction,
		op.OrderType,
		f(op.Lots),
		f(op.EntryPrice),
		f(op.StopLoss),
		f(op.TakeProfit),
		f(op.RiskAmount),
		op.Status,
		op.OpenTime.UTC().Format(time.RFC3339),
		op.RecordedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	j.operations.Flush()
	return j.operations.Error()
}

func (j *CSV) RecordDecision(d DecisionRecord) error {
	if d.Time.IsZero() {
		d.Time = time.Now().UTC()
	}
	err := j.decisions.Write([]string{
		d.RunID,
		d.Time.UTC().Format(time.RFC3339),
		d.Symbol,
		strconv.Itoa(int(d.Magic)),
		d.Action,
		f(d.Confidence),
		d.Reason,
	})
	if err != nil {
		return err
	}

	j.decisions.Flush()
	return j.decisions.Error()
}

func (j *CSV) Close() error {
	j.operations.Flush()
	if err := j.operations.Error(); err != nil {
		return err
	}
	j.decisions.Flush()
	if err := j.decisions.Error(); err != nil {
		return err
	}

	if err := j.of.Close(); err != nil {
		return err
	}
	return j.df.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
