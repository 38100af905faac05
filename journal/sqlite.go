package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite journals into a local database file. Safe for the one-writer-per-
// process discipline the bots follow; concurrent instances journal into
// separate files.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the journal database at path and
// ensures the schema exists.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordOperation(op OperationRecord) error {
	if op.RecordedAt.IsZero() {
		op.RecordedAt = time.Now().UTC()
	}
	_, err := j.db.Exec(`
		INSERT INTO operations
		(run_id, ticket, symbol, magic, direction, order_type, lots, entry_price, stop_loss, take_profit, risk_amount, status, open_time, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.RunID, op.Ticket, op.Symbol, int(op.Magic), op.Direction, op.OrderType,
		op.Lots, op.EntryPrice, op.StopLoss, op.TakeProfit, op.RiskAmount,
		op.Status, op.OpenTime, op.RecordedAt,
	)
	return err
}

func (j *SQLite) RecordDecision(d DecisionRecord) error {
	if d.Time.IsZero() {
		d.Time = time.Now().UTC()
	}
	_, err := j.db.Exec(`
		INSERT INTO decisions
		(run_id, time, symbol, magic, action, confidence, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.RunID, d.Time, d.Symbol, int(d.Magic), d.Action, d.Confidence, d.Reason,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
