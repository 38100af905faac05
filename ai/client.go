// Package ai consumes the shared decision service.
//
// The service owns prompt construction and market context; bots only send the
// symbol and operation identity they are evaluating and get back a decision
// payload. The client validates that payload hard: a malformed decision is an
// error, never a hold, because every bot instance sharing the rate-limited
// endpoint acts on what comes back.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DVARGAS117/Botrading-sub003/magic"
)

// DefaultBaseURL is where the decision service listens when started with
// defaults.
const DefaultBaseURL = "http://127.0.0.1:8899"

const defaultTimeout = 30 * time.Second

const userAgent = "botrading/ai"

// Action is what the service tells a bot to do with a symbol.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Valid reports whether a is a member of the closed action set.
func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell || a == ActionHold
}

// Request asks the service to evaluate one symbol for one operation
// identity. Timeframe tells the service which candle horizon the
// configuration trades.
type Request struct {
	Symbol    string `json:"symbol"`
	Magic     int    `json:"magic"`
	Timeframe string `json:"timeframe,omitempty"`
}

// Decision is the service's payload. Prices are only meaningful when the
// action is buy or sell.
type Decision struct {
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"`
	EntryPrice float64 `json:"entry_price,omitempty"`
	StopLoss   float64 `json:"stop_loss,omitempty"`
	TakeProfit float64 `json:"take_profit,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// Validate rejects decisions the trading cycle could not act on safely. For
// entries it requires a stop on the protective side: a buy stopped above its
// entry (or a sell below) would make the sizer compute nonsense risk.
func (d Decision) Validate() error {
	if !d.Action.Valid() {
		return fmt.Errorf("ai: unknown action %q", d.Action)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("ai: confidence %g outside [0, 1]", d.Confidence)
	}
	if d.Action == ActionHold {
		return nil
	}

	if d.EntryPrice <= 0 {
		return fmt.Errorf("ai: %s decision entry price %g must be positive", d.Action, d.EntryPrice)
	}
	if d.StopLoss <= 0 {
		return fmt.Errorf("ai: %s decision stop loss %g must be positive", d.Action, d.StopLoss)
	}
	switch d.Action {
	case ActionBuy:
		if d.StopLoss >= d.EntryPrice {
			return fmt.Errorf("ai: buy stop loss %g not below entry %g", d.StopLoss, d.EntryPrice)
		}
		if d.TakeProfit != 0 && d.TakeProfit <= d.EntryPrice {
			return fmt.Errorf("ai: buy take profit %g not above entry %g", d.TakeProfit, d.EntryPrice)
		}
	case ActionSell:
		if d.StopLoss <= d.EntryPrice {
			return fmt.Errorf("ai: sell stop loss %g not above entry %g", d.StopLoss, d.EntryPrice)
		}
		if d.TakeProfit != 0 && d.TakeProfit >= d.EntryPrice {
			return fmt.Errorf("ai: sell take profit %g not below entry %g", d.TakeProfit, d.EntryPrice)
		}
	}
	return nil
}

// StatusError is a non-2xx reply from the service, body included verbatim.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ai: status %d: %s", e.Status, e.Body)
}

// Transient reports whether retrying the same request may succeed.
func (e *StatusError) Transient() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// IsTransient classifies a decision-service failure for retry policies.
// Rate limiting (429) and service-side failures are transient; a rejected
// request or a malformed decision is not.
func IsTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Transient()
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return !errors.Is(err, context.Canceled)
	}
	return false
}

// Client calls the decision service. One instance is safe for concurrent
// use.
type Client struct {
	base string
	hc   *http.Client
}

// New returns a client for the service at base. An empty base falls back to
// DefaultBaseURL; a zero timeout falls back to 30s, which leaves the service
// room to run its model.
func New(base string, timeout time.Duration) *Client {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultBaseURL
	}
	base = strings.TrimRight(base, "/")
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: timeout},
	}
}

// Decide posts req and returns the validated decision.
func (c *Client) Decide(ctx context.Context, req Request) (Decision, error) {
	if req.Symbol == "" {
		return Decision{}, fmt.Errorf("ai: request symbol is empty")
	}
	if !magic.IsValid(magic.Number(req.Magic)) {
		return Decision{}, fmt.Errorf("ai: request magic %d is not a valid identity", req.Magic)
	}

	var d Decision
	if err := c.post(ctx, "/decision", req, &d); err != nil {
		return Decision{}, err
	}
	if err := d.Validate(); err != nil {
		return Decision{}, fmt.Errorf("%w (symbol %s, magic %d)", err, req.Symbol, req.Magic)
	}
	return d, nil
}

// Ping checks that the service is up.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return fmt.Errorf("ai: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("ai: GET /health: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &StatusError{Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	bs, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("ai: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(bs))
	if err != nil {
		return fmt.Errorf("ai: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("ai: POST %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &StatusError{Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("ai: decode %s response: %w", path, err)
	}
	return nil
}
