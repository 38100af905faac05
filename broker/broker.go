// Package broker defines the contracts the coordination core consumes from a
// brokerage backend, and the read-only operation views those backends supply.
//
// Implementations live elsewhere (broker/bridge talks to the terminal
// sidecar, broker/paper keeps everything in memory); the core only depends
// on these interfaces.
package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/DVARGAS117/Botrading-sub003/magic"
	"github.com/DVARGAS117/Botrading-sub003/sizing"
)

// Direction is the side of an operation.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// ParseDirection converts a decision or CLI string to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionBuy:
		return DirectionBuy, nil
	case DirectionSell:
		return DirectionSell, nil
	}
	return "", fmt.Errorf("broker: unknown direction %q", s)
}

// Status is the lifecycle state of an operation.
type Status string

const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusCancelled Status = "cancelled"
)

// OperationRecord is the broker's view of one operation. The core reads and
// classifies these records; it never owns or mutates them.
type OperationRecord struct {
	Ticket       int64
	Symbol       string
	Magic        magic.Number
	Direction    Direction
	Status       Status
	Lots         float64
	EntryPrice   float64
	CurrentPrice float64
	StopLoss     float64
	TakeProfit   float64
	Profit       float64
	OpenTime     time.Time
}

// Account is the shared brokerage account snapshot.
type Account struct {
	ID         string
	Currency   string
	Balance    float64
	Equity     float64
	MarginFree float64
}

// PositionQuerier supplies the open operations matching a symbol and an
// exact magic number.
//
// Contract: a failed query MUST return a non-nil error. Returning an empty
// list to signal a failure is forbidden: downstream, an empty list means
// "confirmed: no operation", and several independent bot processes rely on
// that answer before opening new positions on the shared account.
type PositionQuerier interface {
	GetOpenPositions(ctx context.Context, symbol string, id magic.Number) ([]OperationRecord, error)
}

// SpecProvider supplies the broker's numeric contract for a symbol.
type SpecProvider interface {
	GetSymbolSpec(ctx context.Context, symbol string) (sizing.SymbolSpec, error)
}

// AccountProvider supplies the current account snapshot.
type AccountProvider interface {
	GetAccount(ctx context.Context) (Account, error)
}

// OrderRequest describes one order submission. Magic carries the operation
// identity; ClientOrderID makes retried submissions dedupe-safe on the
// broker side.
type OrderRequest struct {
	Symbol        string
	Magic         magic.Number
	Direction     Direction
	OrderType     magic.OrderType
	Lots          float64
	Price         float64 // entry for pending orders; ignored for market
	StopLoss      float64
	TakeProfit    float64
	ClientOrderID string
	Comment       string
}

// Validate rejects a request no broker backend could accept. The failure
// names the offending field so the caller never has to round-trip to find
// out what was wrong.
func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("broker: order symbol is empty")
	}
	if !magic.IsValid(r.Magic) {
		return fmt.Errorf("broker: order magic %d is not a valid identity", r.Magic)
	}
	if r.Direction != DirectionBuy && r.Direction != DirectionSell {
		return fmt.Errorf("broker: order direction %q is unknown", r.Direction)
	}
	if !r.OrderType.Valid() {
		return fmt.Errorf("broker: order type %d is unknown", r.OrderType)
	}
	if r.Lots <= 0 {
		return fmt.Errorf("broker: order lots %v must be positive", r.Lots)
	}
	if r.OrderType != magic.OrderTypeMarket && r.Price <= 0 {
		return fmt.Errorf("broker: %s order needs a positive price, got %v", r.OrderType, r.Price)
	}
	if r.StopLoss < 0 || r.TakeProfit < 0 {
		return fmt.Errorf("broker: order stops must not be negative (sl=%v tp=%v)", r.StopLoss, r.TakeProfit)
	}
	return nil
}

// OrderFill reports an accepted submission.
type OrderFill struct {
	Ticket        int64
	ClientOrderID string
	Symbol        string
	Lots          float64
	Price         float64
	ExecutedAt    time.Time
}

// OrderExecutor submits and closes orders. CloseOrder with zero lots closes
// the whole position; positive lots close partially.
type OrderExecutor interface {
	OpenOrder(ctx context.Context, req OrderRequest) (OrderFill, error)
	CloseOrder(ctx context.Context, ticket int64, lots float64) error
}

// Broker is the full surface the trading cycle needs.
type Broker interface {
	PositionQuerier
	SpecProvider
	AccountProvider
	OrderExecutor
}
