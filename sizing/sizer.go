package sizing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel failures callers route on. An ErrAmountTooSmall fails the single
// requested operation only; the orchestrating loop moves on to the next
// symbol instead of halting or forcing a minimum-size trade.
var (
	ErrInvalidStop    = errors.New("sizing: stop distance must be positive")
	ErrAmountTooSmall = errors.New("sizing: lot below broker volume minimum")
)

// Params is one sizing request. Built fresh per request, never persisted.
type Params struct {
	Balance     float64 // account balance in account currency
	RiskPercent float64 // 2 means risk 2% of balance
	Entry       float64
	StopLoss    float64
	Spec        SymbolSpec
}

// Result is the derived sizing outcome. Lots is already broker-legal.
type Result struct {
	Lots          float64
	RiskAmount    float64 // realized from the final lot; <= RequestedRisk
	RequestedRisk float64
	StopDistance  float64 // |entry - stop| in price units
	DistanceTicks float64
	Notes         []string // clamping applied along the way
}

// Calculate sizes a position so that losing the stop costs at most
// RiskPercent of the balance:
//
//	risk = balance * pct/100
//	lots = risk / (ticks(stop distance) * tick value)
//
// capped at the broker volume maximum and floored onto the volume step grid.
// The arithmetic runs on decimals: prices like 1.1000 and steps like 0.01
// have no exact binary form, and the one-step error a float pipeline produces
// here is exactly the kind of mis-sized risk this sizer exists to prevent.
func Calculate(p Params) (Result, error) {
	if err := p.Spec.Validate(); err != nil {
		return Result{}, err
	}
	if p.Balance <= 0 {
		return Result{}, fmt.Errorf("sizing: balance must be positive, got %g", p.Balance)
	}
	if p.RiskPercent <= 0 || p.RiskPercent > 100 {
		return Result{}, fmt.Errorf("sizing: risk percent must be in (0, 100], got %g", p.RiskPercent)
	}
	if p.Entry <= 0 {
		return Result{}, fmt.Errorf("sizing: entry price must be positive, got %g", p.Entry)
	}
	if p.StopLoss <= 0 {
		return Result{}, fmt.Errorf("sizing: stop-loss price must be positive, got %g", p.StopLoss)
	}

	entry := decimal.NewFromFloat(p.Entry)
	stop := decimal.NewFromFloat(p.StopLoss)
	distance := entry.Sub(stop).Abs()
	if !distance.IsPositive() {
		return Result{}, fmt.Errorf("%w: entry %g equals stop-loss", ErrInvalidStop, p.Entry)
	}

	requested := decimal.NewFromFloat(p.Balance).
		Mul(decimal.NewFromFloat(p.RiskPercent)).
		Div(decimal.NewFromInt(100))

	tickSize := decimal.NewFromFloat(p.Spec.TickSize)
	tickValue := decimal.NewFromFloat(p.Spec.TickValue)
	ticks := distance.Div(tickSize)
	rawLot := requested.Div(ticks.Mul(tickValue))

	var notes []string
	capped := rawLot
	volumeMax := decimal.NewFromFloat(p.Spec.VolumeMax)
	if capped.GreaterThan(volumeMax) {
		capped = volumeMax
		notes = append(notes, fmt.Sprintf("capped at volume max %g", p.Spec.VolumeMax))
	}

	step := decimal.NewFromFloat(p.Spec.VolumeStep)
	lots := capped.Div(step).Floor().Mul(step)
	if lots.LessThan(capped) {
		notes = append(notes, fmt.Sprintf("rounded down %s to step multiple %s", capped, lots))
	}

	// Never force the broker minimum: that would risk more than requested.
	if lots.LessThan(decimal.NewFromFloat(p.Spec.VolumeMin)) {
		return Result{}, fmt.Errorf("%w: %s < %g for %s risking %s",
			ErrAmountTooSmall, lots, p.Spec.VolumeMin, p.Spec.Symbol, requested.StringFixed(2))
	}

	realized := lots.Mul(ticks).Mul(tickValue)
	if realized.GreaterThan(requested) {
		// Division carries finite precision; a lot landing exactly on the
		// budget can read a hair past it. The budget is the ceiling.
		realized = requested
	}

	return Result{
		Lots:          lots.InexactFloat64(),
		RiskAmount:    realized.InexactFloat64(),
		RequestedRisk: requested.InexactFloat64(),
		StopDistance:  distance.InexactFloat64(),
		DistanceTicks: ticks.InexactFloat64(),
		Notes:         notes,
	}, nil
}
