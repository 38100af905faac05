// Package bot runs the trading cycle: for each configured symbol, verify that
// no operation already carries this instance's identity, ask the decision
// service what to do, size the position off the live account, and submit the
// order. Every remote call goes through the retry executor; every outcome is
// journaled.
//
// Several instances of this process trade the same account, so the cycle
// leans on two guarantees from the packages below it: verification never
// converts a failed read into "no operation", and resubmitted orders carry
// the same client order id so the broker can drop duplicates.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/DVARGAS117/Botrading-sub003/ai"
	"github.com/DVARGAS117/Botrading-sub003/broker"
	"github.com/DVARGAS117/Botrading-sub003/config"
	"github.com/DVARGAS117/Botrading-sub003/internal/id"
	"github.com/DVARGAS117/Botrading-sub003/journal"
	"github.com/DVARGAS117/Botrading-sub003/magic"
	"github.com/DVARGAS117/Botrading-sub003/retry"
	"github.com/DVARGAS117/Botrading-sub003/session"
	"github.com/DVARGAS117/Botrading-sub003/sizing"
	"github.com/DVARGAS117/Botrading-sub003/verify"
)

// DecisionService is the slice of the AI client the cycle consumes. Defined
// here so tests can hand the bot a canned decider.
type DecisionService interface {
	Decide(ctx context.Context, req ai.Request) (ai.Decision, error)
}

// Options wires one bot instance. Broker, Decider, Journal and Retry are
// required; a nil Gate trades around the clock.
type Options struct {
	Broker  broker.Broker
	Decider DecisionService
	Journal journal.Journal
	Retry   *retry.Executor
	Gate    *session.Gate

	BotID       int // already folded to one digit
	IAConfigID  int
	OrderType   magic.OrderType
	Timeframe   string
	RiskPercent float64
	Symbols     []config.SymbolConfig
	Interval    time.Duration
}

// Bot is one trading instance. Its identity digits are fixed at construction;
// the magic number for every symbol is precomputed so a bad configuration
// fails at startup, not mid-cycle.
type Bot struct {
	broker   broker.Broker
	decider  DecisionService
	journal  journal.Journal
	exec     *retry.Executor
	gate     *session.Gate
	verifier *verify.Verifier

	runID      string
	botID      int
	iaConfigID int
	orderType  magic.OrderType
	timeframe  string
	risk       float64
	symbols    []config.SymbolConfig
	identities map[string]magic.Number
	interval   time.Duration

	now func() time.Time
}

// New validates the options and precomputes the per-symbol identities.
func New(opts Options) (*Bot, error) {
	if opts.Broker == nil {
		return nil, errors.New("bot: broker is required")
	}
	if opts.Decider == nil {
		return nil, errors.New("bot: decision service is required")
	}
	if opts.Journal == nil {
		return nil, errors.New("bot: journal is required")
	}
	if opts.Retry == nil {
		return nil, errors.New("bot: retry executor is required")
	}
	if len(opts.Symbols) == 0 {
		return nil, errors.New("bot: at least one symbol is required")
	}
	if opts.RiskPercent <= 0 || opts.RiskPercent > 100 {
		return nil, fmt.Errorf("bot: risk percent must be in (0, 100], got %g", opts.RiskPercent)
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("bot: cycle interval must be positive, got %s", opts.Interval)
	}

	identities := make(map[string]magic.Number, len(opts.Symbols))
	for _, sym := range opts.Symbols {
		n, err := magic.Encode(opts.BotID, opts.IAConfigID, opts.OrderType, sym.Sequence)
		if err != nil {
			return nil, fmt.Errorf("bot: identity for %s: %w", sym.Name, err)
		}
		identities[sym.Name] = n
	}

	return &Bot{
		broker:     opts.Broker,
		decider:    opts.Decider,
		journal:    opts.Journal,
		exec:       opts.Retry,
		gate:       opts.Gate,
		verifier:   verify.New(opts.Broker),
		runID:      id.NewRunID(),
		botID:      opts.BotID,
		iaConfigID: opts.IAConfigID,
		orderType:  opts.OrderType,
		timeframe:  opts.Timeframe,
		risk:       opts.RiskPercent,
		symbols:    opts.Symbols,
		identities: identities,
		interval:   opts.Interval,
		now:        time.Now,
	}, nil
}

// RunID returns the ulid stamped on every journal row this instance writes.
func (b *Bot) RunID() string { return b.runID }

// Identity returns the magic number this instance uses on the given symbol.
func (b *Bot) Identity(symbol string) (magic.Number, bool) {
	n, ok := b.identities[symbol]
	return n, ok
}

// Run cycles until the context ends. The first cycle runs immediately;
// per-cycle errors are logged and never stop the loop.
func (b *Bot) Run(ctx context.Context) error {
	log.Printf("[START] bot=%d ia=%d type=%s symbols=%d interval=%s run=%s",
		b.botID, b.iaConfigID, b.orderType, len(b.symbols), b.interval, b.runID)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		if err := b.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				log.Printf("[STOP] shutting down: %v", ctx.Err())
				return nil
			}
			log.Printf("[CYCLE] errors: %v", err)
		}

		select {
		case <-ctx.Done():
			log.Printf("[STOP] shutting down: %v", ctx.Err())
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce runs one full cycle over every configured symbol. A failing symbol
// never blocks the others; the per-symbol failures come back joined.
func (b *Bot) RunOnce(ctx context.Context) error {
	var errs []error
	for _, sym := range b.symbols {
		if err := b.evaluateSymbol(ctx, sym); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", sym.Name, err))
		}
	}

	if len(errs) > 0 {
		mtxCycles.WithLabelValues("error").Inc()
		return errors.Join(errs...)
	}
	mtxCycles.WithLabelValues("ok").Inc()
	return nil
}

func (b *Bot) evaluateSymbol(ctx context.Context, sym config.SymbolConfig) error {
	if b.gate != nil && !b.gate.Open(b.now()) {
		log.Printf("[SKIP] %s: session closed", sym.Name)
		mtxSkips.WithLabelValues("session_closed").Inc()
		return nil
	}

	identity := b.identities[sym.Name]

	// Step 1: does an operation already carry this identity? A failed read
	// stops the symbol right here; only a confirmed "clear" may trade.
	var res verify.Result
	err := b.withRetry(ctx, "verify", func(ctx context.Context) error {
		var verr error
		res, verr = b.verifier.Verify(ctx, sym.Name, identity)
		return verr
	})
	if err != nil {
		mtxVerifications.WithLabelValues("error").Inc()
		return fmt.Errorf("verify: %w", err)
	}

	if res.ShouldReevaluate {
		mtxVerifications.WithLabelValues("open").Inc()
		op := res.Operations[0]
		log.Printf("[VERIFY] %s magic=%d: operation #%d open, reevaluating", sym.Name, identity, op.Ticket)
		b.recordDecision(journal.DecisionRecord{
			Symbol: sym.Name,
			Magic:  identity,
			Action: "reevaluate",
			Reason: fmt.Sprintf("operation #%d open with %g lots", op.Ticket, op.Lots),
		})
		return nil
	}
	mtxVerifications.WithLabelValues("clear").Inc()

	// Step 2: ask the decision service.
	var dec ai.Decision
	err = b.withRetry(ctx, "decide", func(ctx context.Context) error {
		var derr error
		dec, derr = b.decider.Decide(ctx, ai.Request{
			Symbol:    sym.Name,
			Magic:     int(identity),
			Timeframe: b.timeframe,
		})
		return derr
	})
	if err != nil {
		return fmt.Errorf("decide: %w", err)
	}
	mtxDecisions.WithLabelValues(string(dec.Action)).Inc()

	b.recordDecision(journal.DecisionRecord{
		Symbol:     sym.Name,
		Magic:      identity,
		Action:     string(dec.Action),
		Confidence: dec.Confidence,
		Reason:     dec.Reason,
	})

	if dec.Action == ai.ActionHold {
		log.Printf("[DECIDE] %s magic=%d: hold (%.2f)", sym.Name, identity, dec.Confidence)
		return nil
	}

	direction, err := broker.ParseDirection(string(dec.Action))
	if err != nil {
		return err
	}

	// Step 3: size off the live account and the broker's contract.
	var acct broker.Account
	err = b.withRetry(ctx, "account", func(ctx context.Context) error {
		var aerr error
		acct, aerr = b.broker.GetAccount(ctx)
		return aerr
	})
	if err != nil {
		return fmt.Errorf("account: %w", err)
	}
	mtxBalance.Set(acct.Balance)

	var spec sizing.SymbolSpec
	err = b.withRetry(ctx, "spec", func(ctx context.Context) error {
		var serr error
		spec, serr = b.broker.GetSymbolSpec(ctx, sym.Name)
		return serr
	})
	if err != nil {
		return fmt.Errorf("spec: %w", err)
	}

	sized, err := sizing.Calculate(sizing.Params{
		Balance:     acct.Balance,
		RiskPercent: b.risk,
		Entry:       dec.EntryPrice,
		StopLoss:    dec.StopLoss,
		Spec:        spec,
	})
	if err != nil {
		if errors.Is(err, sizing.ErrAmountTooSmall) {
			log.Printf("[SKIP] %s magic=%d: %v", sym.Name, identity, err)
			mtxSkips.WithLabelValues("lot_too_small").Inc()
			return nil
		}
		return fmt.Errorf("sizing: %w", err)
	}

	// Step 4: submit. The client order id is drawn once, outside the retry
	// closure, so a resubmission after a lost reply dedupes broker-side.
	req := broker.OrderRequest{
		Symbol:        sym.Name,
		Magic:         identity,
		Direction:     direction,
		OrderType:     b.orderType,
		Lots:          sized.Lots,
		StopLoss:      dec.StopLoss,
		TakeProfit:    dec.TakeProfit,
		ClientOrderID: uuid.NewString(),
		Comment:       "run " + b.runID,
	}
	if b.orderType != magic.OrderTypeMarket {
		req.Price = dec.EntryPrice
	}

	var fill broker.OrderFill
	err = b.withRetry(ctx, "order", func(ctx context.Context) error {
		var oerr error
		fill, oerr = b.broker.OpenOrder(ctx, req)
		return oerr
	})
	if err != nil {
		return fmt.Errorf("open order: %w", err)
	}

	mtxOrders.WithLabelValues(string(direction)).Inc()
	mtxRiskAmount.Set(sized.RiskAmount)
	log.Printf("[ORDER] %s magic=%d: %s %g lots @ %g ticket=%d risk=%.2f",
		sym.Name, identity, direction, fill.Lots, fill.Price, fill.Ticket, sized.RiskAmount)

	b.recordOperation(journal.OperationRecord{
		Ticket:     fill.Ticket,
		Symbol:     sym.Name,
		Magic:      identity,
		Direction:  string(direction),
		OrderType:  b.orderType.String(),
		Lots:       fill.Lots,
		EntryPrice: fill.Price,
		StopLoss:   dec.StopLoss,
		TakeProfit: dec.TakeProfit,
		RiskAmount: sized.RiskAmount,
		Status:     string(broker.StatusOpen),
		OpenTime:   fill.ExecutedAt,
	})
	return nil
}

// withRetry runs fn under the executor and accounts every attempt.
func (b *Bot) withRetry(ctx context.Context, op string, fn retry.Operation) error {
	rep, err := b.exec.ExecuteWithReport(ctx, fn)
	mtxAttempts.WithLabelValues(op).Add(float64(len(rep.Attempts)))
	if err != nil && len(rep.Attempts) > 1 {
		log.Printf("[RETRY] %s gave up after %d attempts: %v", op, len(rep.Attempts), err)
	}
	return err
}

// recordDecision journals a decision. The journal is an audit sink: a write
// failure is logged but never stops trading.
func (b *Bot) recordDecision(rec journal.DecisionRecord) {
	rec.RunID = b.runID
	rec.Time = b.now().UTC()
	if err := b.journal.RecordDecision(rec); err != nil {
		log.Printf("[JOURNAL] decision %s magic=%d: %v", rec.Symbol, rec.Magic, err)
	}
}

func (b *Bot) recordOperation(rec journal.OperationRecord) {
	rec.RunID = b.runID
	rec.RecordedAt = b.now().UTC()
	if err := b.journal.RecordOperation(rec); err != nil {
		log.Printf("[JOURNAL] operation %s ticket=%d: %v", rec.Symbol, rec.Ticket, err)
	}
}

// transienter is the shape both remote clients give their status errors.
type transienter interface{ Transient() bool }

// DefaultRetryable classifies failures for the cycle's retry policy: status
// errors answer for themselves, transport-level failures retry, everything
// else (validation, malformed replies, canceled contexts) propagates at once.
func DefaultRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var t transienter
	if errors.As(err, &t) {
		return t.Transient()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
