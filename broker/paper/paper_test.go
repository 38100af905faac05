package paper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DVARGAS117/Botrading-sub003/broker"
	"github.com/DVARGAS117/Botrading-sub003/magic"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()

	b := New(broker.Account{ID: "paper-1", Currency: "USD", Balance: 10000})
	b.SetPrice("EURUSD", 1.09998, 1.10000)
	return b
}

func marketBuy(id magic.Number, lots float64) broker.OrderRequest {
	return broker.OrderRequest{
		Symbol:     "EURUSD",
		Magic:      id,
		Direction:  broker.DirectionBuy,
		OrderType:  magic.OrderTypeMarket,
		Lots:       lots,
		StopLoss:   1.09500,
		TakeProfit: 1.11000,
	}
}

func TestOpenOrderFillsAtQuote(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t)
	ctx := context.Background()

	fill, err := b.OpenOrder(ctx, marketBuy(231456, 0.40))
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", fill.Symbol)
	assert.InDelta(t, 1.10000, fill.Price, 1e-9) // buys fill on ask
	assert.InDelta(t, 0.40, fill.Lots, 1e-9)
	assert.NotZero(t, fill.Ticket)

	sell := marketBuy(231457, 0.40)
	sell.Direction = broker.DirectionSell
	fill, err = b.OpenOrder(ctx, sell)
	require.NoError(t, err)
	assert.InDelta(t, 1.09998, fill.Price, 1e-9) // sells fill on bid
}

func TestOpenOrderPendingFillsAtRequestedPrice(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t)

	req := marketBuy(231456, 0.40)
	req.OrderType = magic.OrderTypeLimit
	req.Price = 1.09800

	fill, err := b.OpenOrder(context.Background(), req)
	require.NoError(t, err)
	assert.InDelta(t, 1.09800, fill.Price, 1e-9)
}

func TestOpenOrderRejectsInvalidRequests(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t)
	ctx := context.Background()

	bad := marketBuy(231456, 0)
	_, err := b.OpenOrder(ctx, bad)
	assert.Error(t, err)

	unknown := marketBuy(231456, 0.10)
	unknown.Symbol = "NOPE"
	_, err = b.OpenOrder(ctx, unknown)
	assert.ErrorIs(t, err, ErrUnknownSymbol)

	noQuote := marketBuy(231456, 0.10)
	noQuote.Symbol = "GBPUSD"
	_, err = b.OpenOrder(ctx, noQuote)
	assert.ErrorIs(t, err, ErrNoQuote)
}

// A resubmitted ClientOrderID must return the original fill, not open a
// second position. The retry executor depends on this to make order
// submission safe to repeat.
func TestOpenOrderDedupesByClientOrderID(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t)
	ctx := context.Background()

	req := marketBuy(231456, 0.40)
	req.ClientOrderID = "f47ac10b-58cc-4372-a567-0e02b2c3d479"

	first, err := b.OpenOrder(ctx, req)
	require.NoError(t, err)

	second, err := b.OpenOrder(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, b.OpenPositionCount())
}

func TestGetOpenPositionsFiltersBySymbolAndMagic(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t)
	b.SetPrice("GBPUSD", 1.26000, 1.26002)
	ctx := context.Background()

	_, err := b.OpenOrder(ctx, marketBuy(231456, 0.40))
	require.NoError(t, err)

	other := marketBuy(331456, 0.10)
	_, err = b.OpenOrder(ctx, other)
	require.NoError(t, err)

	gbp := marketBuy(231456, 0.10)
	gbp.Symbol = "GBPUSD"
	_, err = b.OpenOrder(ctx, gbp)
	require.NoError(t, err)

	got, err := b.GetOpenPositions(ctx, "EURUSD", 231456)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, magic.Number(231456), got[0].Magic)
	assert.Equal(t, "EURUSD", got[0].Symbol)
	assert.Equal(t, broker.StatusOpen, got[0].Status)

	got, err = b.GetOpenPositions(ctx, "EURUSD", 999999)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = b.GetOpenPositions(ctx, "", 231456)
	assert.Error(t, err)
}

func TestGetOpenPositionsMarksToLatestQuote(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t)
	ctx := context.Background()

	_, err := b.OpenOrder(ctx, marketBuy(231456, 1.0))
	require.NoError(t, err)

	// 100 points in favor at one unit per point per lot.
	b.SetPrice("EURUSD", 1.10100, 1.10102)

	got, err := b.GetOpenPositions(ctx, "EURUSD", 231456)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 1.10100, got[0].CurrentPrice, 1e-9)
	assert.InDelta(t, 100.0, got[0].Profit, 1e-6)
}

func TestCloseOrderRealisesProfit(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t)
	ctx := context.Background()

	fill, err := b.OpenOrder(ctx, marketBuy(231456, 1.0))
	require.NoError(t, err)

	b.SetPrice("EURUSD", 1.10100, 1.10102)
	require.NoError(t, b.CloseOrder(ctx, fill.Ticket, 0))

	acct, err := b.GetAccount(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 10100.0, acct.Balance, 1e-6)

	got, err := b.GetOpenPositions(ctx, "EURUSD", 231456)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.ErrorIs(t, b.CloseOrder(ctx, fill.Ticket, 0), ErrAlreadyClosed)
	assert.ErrorIs(t, b.CloseOrder(ctx, 424242, 0), ErrTicketNotFound)
}

func TestCloseOrderPartial(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t)
	ctx := context.Background()

	fill, err := b.OpenOrder(ctx, marketBuy(231456, 1.0))
	require.NoError(t, err)

	b.SetPrice("EURUSD", 1.10100, 1.10102)
	require.NoError(t, b.CloseOrder(ctx, fill.Ticket, 0.4))

	acct, err := b.GetAccount(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 10040.0, acct.Balance, 1e-6) // 100 points on 0.4 lots

	got, err := b.GetOpenPositions(ctx, "EURUSD", 231456)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.6, got[0].Lots, 1e-9)
}

func TestGetAccountMarksEquity(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t)
	ctx := context.Background()

	_, err := b.OpenOrder(ctx, marketBuy(231456, 1.0))
	require.NoError(t, err)

	b.SetPrice("EURUSD", 1.10100, 1.10102)

	acct, err := b.GetAccount(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 10000.0, acct.Balance, 1e-6)
	assert.InDelta(t, 10100.0, acct.Equity, 1e-6)
}

func TestGetSymbolSpec(t *testing.T) {
	t.Parallel()

	b := newTestBroker(t)
	ctx := context.Background()

	spec, err := b.GetSymbolSpec(ctx, "EURUSD")
	require.NoError(t, err)
	assert.NoError(t, spec.Validate())

	_, err = b.GetSymbolSpec(ctx, "NOPE")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}
