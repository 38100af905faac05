// Package verify decides, per symbol and operation identity, whether a bot
// should open a new operation or reevaluate the one it already has.
//
// The decision is only as good as the position read behind it, and that read
// crosses process boundaries: another bot instance may open or close a
// matching operation at any moment. Two rules follow. Every call queries the
// broker fresh, with no cache in between. And a failed query is always an
// error to the caller: collapsing "failed to find out" into "no operation"
// once caused bots to keep opening duplicates on the shared account.
package verify

import (
	"context"
	"errors"
	"fmt"

	"github.com/DVARGAS117/Botrading-sub003/broker"
	"github.com/DVARGAS117/Botrading-sub003/magic"
)

var (
	// ErrEmptySymbol rejects verification without a symbol.
	ErrEmptySymbol = errors.New("verify: symbol is empty")

	// ErrMalformedReply marks a position reply that contradicts the query,
	// e.g. a record for another symbol or identity. Treated as a failed
	// read, never as an answer.
	ErrMalformedReply = errors.New("verify: malformed position reply")
)

// Result is the routing decision for one symbol and identity.
type Result struct {
	HasOperation     bool
	ShouldReevaluate bool
	OperationCount   int
	Operations       []broker.OperationRecord
}

// Verifier routes evaluate-vs-reevaluate decisions. It is stateless; one
// instance serves any number of symbols and callers.
type Verifier struct {
	positions broker.PositionQuerier
}

// New returns a verifier reading open positions from q.
func New(q broker.PositionQuerier) *Verifier {
	return &Verifier{positions: q}
}

// Verify reports whether an open operation already carries this identity on
// this symbol. ShouldReevaluate is true exactly when one does: the bot then
// manages the existing operation instead of opening a second one.
//
// Any failure of the underlying query propagates as an error. Verify never
// answers "no operation" unless the broker positively confirmed it.
func (v *Verifier) Verify(ctx context.Context, symbol string, id magic.Number) (Result, error) {
	if symbol == "" {
		return Result{}, ErrEmptySymbol
	}
	if _, err := magic.Decode(id); err != nil {
		return Result{}, fmt.Errorf("verify %s: %w", symbol, err)
	}

	records, err := v.positions.GetOpenPositions(ctx, symbol, id)
	if err != nil {
		return Result{}, fmt.Errorf("verify %s magic %d: query open positions: %w", symbol, id, err)
	}

	for _, rec := range records {
		if err := matchesQuery(rec, symbol, id); err != nil {
			return Result{}, err
		}
	}

	return Result{
		HasOperation:     len(records) > 0,
		ShouldReevaluate: len(records) > 0,
		OperationCount:   len(records),
		Operations:       records,
	}, nil
}

// HasOpen is the boolean convenience form of Verify.
func (v *Verifier) HasOpen(ctx context.Context, symbol string, id magic.Number) (bool, error) {
	res, err := v.Verify(ctx, symbol, id)
	if err != nil {
		return false, err
	}
	return res.HasOperation, nil
}

// matchesQuery rejects records that cannot belong to the query. A querier
// handing back foreign records is a wiring fault; counting them would block
// trading on phantom operations, dropping them would invite duplicates, so
// the only safe reading is "this read failed".
func matchesQuery(rec broker.OperationRecord, symbol string, id magic.Number) error {
	if rec.Symbol != symbol {
		return fmt.Errorf("%w: got symbol %q querying %q", ErrMalformedReply, rec.Symbol, symbol)
	}
	if rec.Magic != id {
		return fmt.Errorf("%w: got magic %d querying %d", ErrMalformedReply, rec.Magic, id)
	}
	if rec.Status != broker.StatusOpen && rec.Status != "" {
		return fmt.Errorf("%w: got %s operation %d in open-position reply", ErrMalformedReply, rec.Status, rec.Ticket)
	}
	return nil
}
