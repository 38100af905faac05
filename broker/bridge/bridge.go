// Package bridge talks to the local MT5 bridge sidecar over HTTP.
//
// The sidecar owns the terminal connection and exposes a small JSON API:
// positions, symbol specifications, account state, and order entry. This
// client does no retrying of its own; callers wrap the calls they want
// retried and use IsTransient to tell a retriable failure from a terminal
// one.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DVARGAS117/Botrading-sub003/broker"
	"github.com/DVARGAS117/Botrading-sub003/magic"
	"github.com/DVARGAS117/Botrading-sub003/sizing"
)

// DefaultBaseURL is where the sidecar listens when started with defaults.
const DefaultBaseURL = "http://127.0.0.1:8787"

const defaultTimeout = 15 * time.Second

const userAgent = "botrading/bridge"

// StatusError is a non-2xx reply from the bridge, body included verbatim.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bridge: status %d: %s", e.Status, e.Body)
}

// Transient reports whether retrying the same request may succeed.
func (e *StatusError) Transient() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// IsTransient classifies a bridge failure for retry policies. Transport
// errors and gateway-side statuses (5xx, 429) are transient. Validation
// rejections and other 4xx are not: the same request will fail again.
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

// Client is an HTTP client for the bridge sidecar. It implements the
// broker interfaces; one instance is safe for concurrent use.
type Client struct {
	base string
	hc   *http.Client
}

var _ broker.Broker = (*Client)(nil)

// New returns a client for the sidecar at base. An empty base falls back
// to DefaultBaseURL; a zero timeout falls back to 15s.
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

// positionRow mirrors one row of GET /positions. Field names follow the
// MT5 position properties the sidecar reads.
type positionRow struct {
	Ticket       int64   `json:"ticket"`
	Symbol       string  `json:"symbol"`
	Magic        int     `json:"magic"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	Volume       float64 `json:"volume"`
	PriceOpen    float64 `json:"price_open"`
	PriceCurrent float64 `json:"price_current"`
	StopLoss     float64 `json:"sl"`
	TakeProfit   float64 `json:"tp"`
	Profit       float64 `json:"profit"`
	Time         string  `json:"time"`
}

// GetOpenPositions fetches the open positions filtered by symbol and magic
// number. The sidecar applies the filter; the reply is returned as-is so
// the verifier can cross-check it.
func (c *Client) GetOpenPositions(ctx context.Context, symbol string, id magic.Number) ([]broker.OperationRecord, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("magic", strconv.Itoa(int(id)))

	var rows []positionRow
	if err := c.get(ctx, "/positions", q, &rows); err != nil {
		return nil, err
	}

	records := make([]broker.OperationRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			return nil, fmt.Errorf("bridge: position %d: %w", r.Ticket, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r positionRow) record() (broker.OperationRecord, error) {
	var opened time.Time
	if s := strings.TrimSpace(r.Time); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return broker.OperationRecord{}, fmt.Errorf("parse time %q: %w", r.Time, err)
		}
		opened = t.UTC()
	}

	var dir broker.Direction
	switch strings.ToLower(r.Type) {
	case "buy":
		dir = broker.DirectionBuy
	case "sell":
		dir = broker.DirectionSell
	default:
		return broker.OperationRecord{}, fmt.Errorf("unknown position type %q", r.Type)
	}

	status := broker.Status(strings.ToLower(r.Status))
	if status == "" {
		status = broker.StatusOpen
	}

	return broker.OperationRecord{
		Ticket:       r.Ticket,
		Symbol:       r.Symbol,
		Magic:        magic.Number(r.Magic),
		Direction:    dir,
		Status:       status,
		Lots:         r.Volume,
		EntryPrice:   r.PriceOpen,
		CurrentPrice: r.PriceCurrent,
		StopLoss:     r.StopLoss,
		TakeProfit:   r.TakeProfit,
		Profit:       r.Profit,
		OpenTime:     opened,
	}, nil
}

// specRow mirrors GET /symbols/{symbol}/spec, the sidecar's normalization
// of the MT5 symbol info fields.
type specRow struct {
	Symbol       string  `json:"symbol"`
	Point        float64 `json:"point"`
	TickSize     float64 `json:"tick_size"`
	TickValue    float64 `json:"tick_value"`
	VolumeMin    float64 `json:"volume_min"`
	VolumeMax    float64 `json:"volume_max"`
	VolumeStep   float64 `json:"volume_step"`
	ContractSize float64 `json:"contract_size"`
}

// GetSymbolSpec fetches the contract specification for symbol. The reply
// is validated before use; a spec the sizer would reject never leaves
// this method.
func (c *Client) GetSymbolSpec(ctx context.Context, symbol string) (sizing.SymbolSpec, error) {
	if symbol == "" {
		return sizing.SymbolSpec{}, fmt.Errorf("bridge: symbol is empty")
	}

	var row specRow
	path := "/symbols/" + url.PathEscape(symbol) + "/spec"
	if err := c.get(ctx, path, nil, &row); err != nil {
		return sizing.SymbolSpec{}, err
	}

	spec := sizing.SymbolSpec{
		Symbol:       row.Symbol,
		Point:        row.Point,
		TickSize:     row.TickSize,
		TickValue:    row.TickValue,
		VolumeMin:    row.VolumeMin,
		VolumeMax:    row.VolumeMax,
		VolumeStep:   row.VolumeStep,
		ContractSize: row.ContractSize,
	}
	if spec.Symbol == "" {
		spec.Symbol = symbol
	}
	if err := spec.Validate(); err != nil {
		return sizing.SymbolSpec{}, fmt.Errorf("bridge: spec for %s: %w", symbol, err)
	}
	return spec, nil
}

type accountRow struct {
	ID         string  `json:"id"`
	Currency   string  `json:"currency"`
	Balance    float64 `json:"balance"`
	Equity     float64 `json:"equity"`
	MarginFree float64 `json:"margin_free"`
}

// GetAccount fetches the current account snapshot.
func (c *Client) GetAccount(ctx context.Context) (broker.Account, error) {
	var row accountRow
	if err := c.get(ctx, "/account", nil, &row); err != nil {
		return broker.Account{}, err
	}
	return broker.Account{
		ID:         row.ID,
		Currency:   row.Currency,
		Balance:    row.Balance,
		Equity:     row.Equity,
		MarginFree: row.MarginFree,
	}, nil
}

// openOrderBody is the POST /order/open payload.
type openOrderBody struct {
	Symbol        string  `json:"symbol"`
	Magic         int     `json:"magic"`
	Side          string  `json:"side"`
	Type          string  `json:"type"`
	Volume        float64 `json:"volume"`
	Price         float64 `json:"price,omitempty"`
	StopLoss      float64 `json:"sl,omitempty"`
	TakeProfit    float64 `json:"tp,omitempty"`
	ClientOrderID string  `json:"client_order_id"`
	Comment       string  `json:"comment,omitempty"`
}

type fillRow struct {
	Ticket        int64   `json:"ticket"`
	ClientOrderID string  `json:"client_order_id"`
	Symbol        string  `json:"symbol"`
	Volume        float64 `json:"volume"`
	Price         float64 `json:"price"`
	Time          string  `json:"time"`
}

// OpenOrder submits req to the bridge. A missing ClientOrderID is filled
// with a fresh UUID so that a retried submission dedupes on the sidecar
// instead of opening twice.
func (c *Client) OpenOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderFill, error) {
	if err := req.Validate(); err != nil {
		return broker.OrderFill{}, err
	}
	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.New().String()
	}

	body := openOrderBody{
		Symbol:        req.Symbol,
		Magic:         int(req.Magic),
		Side:          string(req.Direction),
		Type:          req.OrderType.String(),
		Volume:        req.Lots,
		Price:         req.Price,
		StopLoss:      req.StopLoss,
		TakeProfit:    req.TakeProfit,
		ClientOrderID: req.ClientOrderID,
		Comment:       req.Comment,
	}

	var fill fillRow
	if err := c.post(ctx, "/order/open", body, &fill); err != nil {
		return broker.OrderFill{}, err
	}
	if fill.Ticket == 0 {
		return broker.OrderFill{}, fmt.Errorf("bridge: order accepted without ticket (client_order_id=%s)", req.ClientOrderID)
	}

	executed := time.Now().UTC()
	if s := strings.TrimSpace(fill.Time); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			executed = t.UTC()
		}
	}
	if fill.ClientOrderID == "" {
		fill.ClientOrderID = req.ClientOrderID
	}

	return broker.OrderFill{
		Ticket:        fill.Ticket,
		ClientOrderID: fill.ClientOrderID,
		Symbol:        fill.Symbol,
		Lots:          fill.Volume,
		Price:         fill.Price,
		ExecutedAt:    executed,
	}, nil
}

type closeOrderBody struct {
	Ticket int64   `json:"ticket"`
	Volume float64 `json:"volume,omitempty"`
}

// CloseOrder closes the position with the given ticket. A zero lots closes
// the full position; a positive lots closes partially.
func (c *Client) CloseOrder(ctx context.Context, ticket int64, lots float64) error {
	if ticket <= 0 {
		return fmt.Errorf("bridge: close ticket %d must be positive", ticket)
	}
	if lots < 0 {
		return fmt.Errorf("bridge: close lots %v must not be negative", lots)
	}
	var ack struct {
		Ticket int64 `json:"ticket"`
	}
	return c.post(ctx, "/order/close", closeOrderBody{Ticket: ticket, Volume: lots}, &ack)
}

// Ping checks that the sidecar is up and connected to the terminal.
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/health", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("bridge: health status %q", out.Status)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("bridge: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	bs, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("bridge: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(bs))
	if err != nil {
		return fmt.Errorf("bridge: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	res, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("bridge: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &StatusError{Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("bridge: decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
