package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/DVARGAS117/Botrading-sub003/magic"
)

const operationColumns = `run_id, ticket, symbol, magic, direction, order_type,
	lots, entry_price, stop_loss, take_profit, risk_amount, status, open_time, recorded_at`

func scanOperation(row interface{ Scan(...any) error }) (OperationRecord, error) {
	var rec OperationRecord
	var m int
	err := row.Scan(
		&rec.RunID,
		&rec.Ticket,
		&rec.Symbol,
		&m,
		&rec.Direction,
		&rec.OrderType,
		&rec.Lots,
		&rec.EntryPrice,
		&rec.StopLoss,
		&rec.TakeProfit,
		&rec.RiskAmount,
		&rec.Status,
		&rec.OpenTime,
		&rec.RecordedAt,
	)
	rec.Magic = magic.Number(m)
	return rec, err
}

// GetOperation returns the most recently journaled row for a ticket. The
// journal is append-only, so a ticket can carry several rows as its status
// moves; the newest one is the current view.
func (j *SQLite) GetOperation(ticket int64) (OperationRecord, error) {
	row := j.db.QueryRow(`
		SELECT `+operationColumns+`
		FROM operations
		WHERE ticket = ?
		ORDER BY recorded_at DESC
		LIMIT 1`, ticket)

	rec, err := scanOperation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return OperationRecord{}, fmt.Errorf("operation %d not found", ticket)
		}
		return OperationRecord{}, err
	}
	return rec, nil
}

// ListOperationsBetween returns operations journaled within [start, end),
// oldest first.
func (j *SQLite) ListOperationsBetween(start, end time.Time) ([]OperationRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+operationColumns+`
		FROM operations
		WHERE recorded_at >= ? AND recorded_at < ?
		ORDER BY recorded_at ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OperationRecord
	for rows.Next() {
		rec, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDecisionsBetween returns decisions taken within [start, end), oldest
// first.
func (j *SQLite) ListDecisionsBetween(start, end time.Time) ([]DecisionRecord, error) {
	rows, err := j.db.Query(`
		SELECT run_id, time, symbol, magic, action, confidence, reason
		FROM decisions
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DecisionRecord
	for rows.Next() {
		var rec DecisionRecord
		var m int
		if err := rows.Scan(
			&rec.RunID,
			&rec.Time,
			&rec.Symbol,
			&m,
			&rec.Action,
			&rec.Confidence,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		rec.Magic = magic.Number(m)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListMagics returns every magic number journaled on an operation, one entry
// per journaled row, newest last. The identity audit tooling feeds these
// straight into magic.Audit.
func (j *SQLite) ListMagics() ([]magic.Number, error) {
	rows, err := j.db.Query(`SELECT magic FROM operations ORDER BY recorded_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []magic.Number
	for rows.Next() {
		var m int
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		out = append(out, magic.Number(m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
