// Package paper implements broker.Broker entirely in memory. It exists so the
// trading cycle, the verifier, and the CLI can run against a deterministic
// backend with no terminal sidecar attached.
//
// The model is deliberately small: orders fill instantly at the posted quote,
// pending orders fill at their requested price, and closing a position
// realises its profit into the account balance. There is no margin model; the
// coordination core only ever reads Balance and Equity.
package paper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/DVARGAS117/Botrading-sub003/broker"
	"github.com/DVARGAS117/Botrading-sub003/magic"
	"github.com/DVARGAS117/Botrading-sub003/sizing"
)

var (
	ErrNoQuote        = errors.New("paper: no quote for symbol")
	ErrUnknownSymbol  = errors.New("paper: unknown symbol")
	ErrTicketNotFound = errors.New("paper: ticket not found")
	ErrAlreadyClosed  = errors.New("paper: position already closed")
)

// Quote is the current two-sided price for a symbol.
type Quote struct {
	Bid float64
	Ask float64
}

// Mid is the midpoint of the quote.
func (q Quote) Mid() float64 { return (q.Bid + q.Ask) / 2 }

type position struct {
	record   broker.OperationRecord
	clientID string
}

// Broker is the in-memory backend. The zero value is not usable; construct
// with New.
type Broker struct {
	mu         sync.Mutex
	account    broker.Account
	specs      map[string]sizing.SymbolSpec
	quotes     map[string]Quote
	positions  map[int64]*position
	byClientID map[string]broker.OrderFill
	nextTicket int64
	now        func() time.Time
}

// New builds a paper broker holding the given account and the default symbol
// table. Use SetSpec and SetPrice to extend or override it.
func New(account broker.Account) *Broker {
	b := &Broker{
		account:    account,
		specs:      make(map[string]sizing.SymbolSpec, len(DefaultSpecs)),
		quotes:     make(map[string]Quote),
		positions:  make(map[int64]*position),
		byClientID: make(map[string]broker.OrderFill),
		nextTicket: 1000,
		now:        time.Now,
	}
	for name, spec := range DefaultSpecs {
		b.specs[name] = spec
	}
	return b
}

// SetPrice posts a quote for a symbol. Open positions are marked against the
// latest posted quote.
func (b *Broker) SetPrice(symbol string, bid, ask float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.quotes[symbol] = Quote{Bid: bid, Ask: ask}
}

// SetSpec installs or replaces the contract spec for a symbol.
func (b *Broker) SetSpec(spec sizing.SymbolSpec) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.specs[spec.Symbol] = spec
}

// GetOpenPositions returns copies of the open positions carrying exactly the
// given symbol and magic number. A missing quote is not an error here: the
// position is marked at its entry price until a quote arrives.
func (b *Broker) GetOpenPositions(ctx context.Context, symbol string, id magic.Number) ([]broker.OperationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if symbol == "" {
		return nil, fmt.Errorf("paper: positions query needs a symbol")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var out []broker.OperationRecord
	for _, p := range b.positions {
		r := p.record
		if r.Status != broker.StatusOpen || r.Symbol != symbol || r.Magic != id {
			continue
		}
		r.CurrentPrice, r.Profit = b.markLocked(r)
		out = append(out, r)
	}
	return out, nil
}

// GetSymbolSpec returns the contract spec for a symbol.
func (b *Broker) GetSymbolSpec(ctx context.Context, symbol string) (sizing.SymbolSpec, error) {
	if err := ctx.Err(); err != nil {
		return sizing.SymbolSpec{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	spec, ok := b.specs[symbol]
	if !ok {
		return sizing.SymbolSpec{}, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	return spec, nil
}

// GetAccount returns the account marked to the latest quotes.
func (b *Broker) GetAccount(ctx context.Context) (broker.Account, error) {
	if err := ctx.Err(); err != nil {
		return broker.Account{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	acct := b.account
	acct.Equity = acct.Balance
	for _, p := range b.positions {
		if p.record.Status != broker.StatusOpen {
			continue
		}
		_, pl := b.markLocked(p.record)
		acct.Equity += pl
	}
	acct.MarginFree = acct.Equity
	return acct, nil
}

// OpenOrder fills the request immediately. Market orders fill at the posted
// quote (ask for buys, bid for sells); pending orders fill at their requested
// price. A repeated ClientOrderID returns the original fill instead of
// opening a second position, which is what makes retried submissions safe.
func (b *Broker) OpenOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderFill, error) {
	if err := ctx.Err(); err != nil {
		return broker.OrderFill{}, err
	}
	if err := req.Validate(); err != nil {
		return broker.OrderFill{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if req.ClientOrderID != "" {
		if fill, ok := b.byClientID[req.ClientOrderID]; ok {
			return fill, nil
		}
	}

	if _, ok := b.specs[req.Symbol]; !ok {
		return broker.OrderFill{}, fmt.Errorf("%w: %q", ErrUnknownSymbol, req.Symbol)
	}

	fillPrice := req.Price
	if req.OrderType == magic.OrderTypeMarket {
		q, ok := b.quotes[req.Symbol]
		if !ok {
			return broker.OrderFill{}, fmt.Errorf("%w: %q", ErrNoQuote, req.Symbol)
		}
		fillPrice = q.Ask
		if req.Direction == broker.DirectionSell {
			fillPrice = q.Bid
		}
	}

	ticket := b.nextTicket
	b.nextTicket++
	executedAt := b.now().UTC()

	b.positions[ticket] = &position{
		record: broker.OperationRecord{
			Ticket:     ticket,
			Symbol:     req.Symbol,
			Magic:      req.Magic,
			Direction:  req.Direction,
			Status:     broker.StatusOpen,
			Lots:       req.Lots,
			EntryPrice: fillPrice,
			StopLoss:   req.StopLoss,
			TakeProfit: req.TakeProfit,
			OpenTime:   executedAt,
		},
		clientID: req.ClientOrderID,
	}

	fill := broker.OrderFill{
		Ticket:        ticket,
		ClientOrderID: req.ClientOrderID,
		Symbol:        req.Symbol,
		Lots:          req.Lots,
		Price:         fillPrice,
		ExecutedAt:    executedAt,
	}
	if req.ClientOrderID != "" {
		b.byClientID[req.ClientOrderID] = fill
	}
	return fill, nil
}

// CloseOrder closes lots of a position at the posted quote, realising the
// profit into the balance. Zero lots close the whole position; a partial
// close leaves the remainder open under the same ticket.
func (b *Broker) CloseOrder(ctx context.Context, ticket int64, lots float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if lots < 0 {
		return fmt.Errorf("paper: close lots %v must not be negative", lots)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.positions[ticket]
	if !ok {
		return fmt.Errorf("%w: %d", ErrTicketNotFound, ticket)
	}
	if p.record.Status != broker.StatusOpen {
		return fmt.Errorf("%w: %d", ErrAlreadyClosed, ticket)
	}

	q, ok := b.quotes[p.record.Symbol]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoQuote, p.record.Symbol)
	}
	closePrice := q.Bid
	if p.record.Direction == broker.DirectionSell {
		closePrice = q.Ask
	}

	closeLots := lots
	if closeLots == 0 || closeLots >= p.record.Lots {
		closeLots = p.record.Lots
	}

	b.account.Balance += b.profitLocked(p.record, closePrice, closeLots)

	p.record.Lots -= closeLots
	if p.record.Lots <= 1e-9 {
		p.record.Lots = 0
		p.record.Status = broker.StatusClosed
	}
	return nil
}

// OpenPositionCount reports how many positions are currently open, across all
// symbols and identities. Test helper.
func (b *Broker) OpenPositionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, p := range b.positions {
		if p.record.Status == broker.StatusOpen {
			n++
		}
	}
	return n
}

// markLocked values an open position against the latest quote. Without a
// quote the position marks flat at its entry.
func (b *Broker) markLocked(r broker.OperationRecord) (mark, profit float64) {
	q, ok := b.quotes[r.Symbol]
	if !ok {
		return r.EntryPrice, 0
	}
	mark = q.Bid
	if r.Direction == broker.DirectionSell {
		mark = q.Ask
	}
	return mark, b.profitLocked(r, mark, r.Lots)
}

// profitLocked converts a price move into account currency using the symbol's
// tick geometry.
func (b *Broker) profitLocked(r broker.OperationRecord, exit float64, lots float64) float64 {
	spec, ok := b.specs[r.Symbol]
	if !ok || spec.TickSize <= 0 {
		return 0
	}
	move := exit - r.EntryPrice
	if r.Direction == broker.DirectionSell {
		move = -move
	}
	return move / spec.TickSize * spec.TickValue * lots
}

var _ broker.Broker = (*Broker)(nil)
