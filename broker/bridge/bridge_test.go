package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DVARGAS117/Botrading-sub003/broker"
	"github.com/DVARGAS117/Botrading-sub003/magic"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, time.Second)
}

func TestGetOpenPositions(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/positions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "EURUSD", r.URL.Query().Get("symbol"))
		assert.Equal(t, "231456", r.URL.Query().Get("magic"))

		_, _ = w.Write([]byte(`[
			{"ticket": 1001, "symbol": "EURUSD", "magic": 231456, "type": "buy",
			 "volume": 0.4, "price_open": 1.1, "price_current": 1.101,
			 "sl": 1.095, "tp": 1.11, "profit": 40.0, "time": "2024-01-02T03:04:05Z"},
			{"ticket": 1002, "symbol": "EURUSD", "magic": 231456, "type": "sell",
			 "status": "open", "volume": 0.1, "price_open": 1.102}
		]`))
	})

	c := newTestClient(t, mux)
	records, err := c.GetOpenPositions(context.Background(), "EURUSD", 231456)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, int64(1001), first.Ticket)
	assert.Equal(t, magic.Number(231456), first.Magic)
	assert.Equal(t, broker.DirectionBuy, first.Direction)
	assert.Equal(t, broker.StatusOpen, first.Status) // missing status defaults to open
	assert.InDelta(t, 0.4, first.Lots, 1e-9)
	assert.InDelta(t, 1.101, first.CurrentPrice, 1e-9)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), first.OpenTime)

	assert.Equal(t, broker.DirectionSell, records[1].Direction)
}

func TestGetOpenPositionsEmptyReply(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/positions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	c := newTestClient(t, mux)
	records, err := c.GetOpenPositions(context.Background(), "EURUSD", 231456)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetOpenPositionsRejectsMalformedRow(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/positions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"ticket": 7, "symbol": "EURUSD", "magic": 231456, "type": "credit"}]`))
	})

	c := newTestClient(t, mux)
	_, err := c.GetOpenPositions(context.Background(), "EURUSD", 231456)
	require.Error(t, err)
	assert.ErrorContains(t, err, "position 7")
}

// A failed read must come back as an error: an empty list would read as
// "confirmed, no operation" downstream.
func TestGetOpenPositionsPropagatesStatusErrors(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/positions", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "terminal disconnected", http.StatusBadGateway)
	})

	c := newTestClient(t, mux)
	records, err := c.GetOpenPositions(context.Background(), "EURUSD", 231456)
	require.Error(t, err)
	assert.Nil(t, records)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Status)
	assert.True(t, se.Transient())
}

func TestGetSymbolSpec(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/symbols/EURUSD/spec", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"point": 0.00001, "tick_size": 0.00001, "tick_value": 1.0,
			"volume_min": 0.01, "volume_max": 100.0, "volume_step": 0.01,
			"contract_size": 100000
		}`))
	})

	c := newTestClient(t, mux)
	spec, err := c.GetSymbolSpec(context.Background(), "EURUSD")
	require.NoError(t, err)

	// The reply omitted the symbol; the query backfills it.
	assert.Equal(t, "EURUSD", spec.Symbol)
	assert.InDelta(t, 0.00001, spec.TickSize, 1e-12)
	assert.NoError(t, spec.Validate())

	_, err = c.GetSymbolSpec(context.Background(), "")
	assert.Error(t, err)
}

// A spec the sizer would reject never leaves the client.
func TestGetSymbolSpecRejectsInvalidReply(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/symbols/EURUSD/spec", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"point": 0.00001, "tick_size": 0, "tick_value": 1.0,
			"volume_min": 0.01, "volume_max": 100.0, "volume_step": 0.01, "contract_size": 100000}`))
	})

	c := newTestClient(t, mux)
	_, err := c.GetSymbolSpec(context.Background(), "EURUSD")
	require.Error(t, err)
	assert.ErrorContains(t, err, "spec for EURUSD")
}

func TestGetAccount(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/account", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "80021", "currency": "USD", "balance": 10000,
			"equity": 10100.5, "margin_free": 9800}`))
	})

	c := newTestClient(t, mux)
	acct, err := c.GetAccount(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "80021", acct.ID)
	assert.Equal(t, "USD", acct.Currency)
	assert.InDelta(t, 10000.0, acct.Balance, 1e-9)
	assert.InDelta(t, 10100.5, acct.Equity, 1e-9)
	assert.InDelta(t, 9800.0, acct.MarginFree, 1e-9)
}

func validOrder() broker.OrderRequest {
	return broker.OrderRequest{
		Symbol:     "EURUSD",
		Magic:      231456,
		Direction:  broker.DirectionBuy,
		OrderType:  magic.OrderTypeMarket,
		Lots:       0.40,
		StopLoss:   1.095,
		TakeProfit: 1.11,
	}
}

func TestOpenOrder(t *testing.T) {
	t.Parallel()

	var got openOrderBody
	mux := http.NewServeMux()
	mux.HandleFunc("/order/open", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ticket": 5001, "client_order_id": "` + got.ClientOrderID + `",
			"symbol": "EURUSD", "volume": 0.4, "price": 1.10001, "time": "2024-01-02T03:04:05Z"}`))
	})

	c := newTestClient(t, mux)
	fill, err := c.OpenOrder(context.Background(), validOrder())
	require.NoError(t, err)

	assert.Equal(t, "EURUSD", got.Symbol)
	assert.Equal(t, 231456, got.Magic)
	assert.Equal(t, "buy", got.Side)
	assert.Equal(t, "market", got.Type)
	assert.InDelta(t, 0.4, got.Volume, 1e-9)

	// The client drew a ClientOrderID for the request: retried submissions
	// must reuse it so the sidecar can dedupe.
	_, perr := uuid.Parse(got.ClientOrderID)
	assert.NoError(t, perr)

	assert.Equal(t, int64(5001), fill.Ticket)
	assert.Equal(t, got.ClientOrderID, fill.ClientOrderID)
	assert.InDelta(t, 1.10001, fill.Price, 1e-9)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), fill.ExecutedAt)
}

func TestOpenOrderKeepsCallerClientOrderID(t *testing.T) {
	t.Parallel()

	var got openOrderBody
	mux := http.NewServeMux()
	mux.HandleFunc("/order/open", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ticket": 5002, "symbol": "EURUSD", "volume": 0.4, "price": 1.1}`))
	})

	req := validOrder()
	req.ClientOrderID = "f47ac10b-58cc-4372-a567-0e02b2c3d479"

	c := newTestClient(t, mux)
	fill, err := c.OpenOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req.ClientOrderID, got.ClientOrderID)
	// The reply omitted it; the client carries it through.
	assert.Equal(t, req.ClientOrderID, fill.ClientOrderID)
}

func TestOpenOrderValidatesBeforeSending(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/order/open", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"ticket": 1}`))
	})

	c := newTestClient(t, mux)

	req := validOrder()
	req.Lots = 0
	_, err := c.OpenOrder(context.Background(), req)
	require.Error(t, err)
	assert.Zero(t, calls.Load())
}

func TestOpenOrderRejectsTicketlessAck(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/order/open", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"client_order_id": "x"}`))
	})

	c := newTestClient(t, mux)
	_, err := c.OpenOrder(context.Background(), validOrder())
	require.Error(t, err)
	assert.ErrorContains(t, err, "without ticket")
}

func TestCloseOrder(t *testing.T) {
	t.Parallel()

	var got closeOrderBody
	mux := http.NewServeMux()
	mux.HandleFunc("/order/close", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ticket": 5001}`))
	})

	c := newTestClient(t, mux)
	require.NoError(t, c.CloseOrder(context.Background(), 5001, 0.2))
	assert.Equal(t, int64(5001), got.Ticket)
	assert.InDelta(t, 0.2, got.Volume, 1e-9)

	assert.Error(t, c.CloseOrder(context.Background(), 0, 0))
	assert.Error(t, c.CloseOrder(context.Background(), 5001, -1))
}

func TestPing(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	})
	c := newTestClient(t, mux)
	assert.NoError(t, c.Ping(context.Background()))

	degraded := http.NewServeMux()
	degraded.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "terminal_detached"}`))
	})
	c = newTestClient(t, degraded)
	assert.ErrorContains(t, c.Ping(context.Background()), "terminal_detached")
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"status_500", &StatusError{Status: 500}, true},
		{"status_429", &StatusError{Status: 429}, true},
		{"status_400", &StatusError{Status: 400}, false},
		{"status_404", &StatusError{Status: 404}, false},
		{"transport", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}, true},
		{"plain", errors.New("nope"), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
