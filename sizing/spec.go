// Package sizing converts a risk budget and a stop-loss distance into a lot
// size the broker will accept.
//
// The sizer never overshoots the requested risk: lots are only ever rounded
// down onto the broker's volume step grid, and a result that would fall below
// the broker minimum is an error, not a forced minimum-size trade.
package sizing

import "fmt"

// SymbolSpec is the broker-supplied numeric contract for one tradable
// instrument. Every field must be strictly positive; a non-positive field is
// a data-integrity fault and is never silently defaulted.
type SymbolSpec struct {
	Symbol       string
	Point        float64 // smallest price increment
	TickSize     float64 // price change per tick
	TickValue    float64 // account-currency value of one tick per lot
	VolumeMin    float64
	VolumeMax    float64
	VolumeStep   float64
	ContractSize float64
}

// SpecFieldError names the symbol-spec field that failed validation.
type SpecFieldError struct {
	Symbol string
	Field  string
	Value  float64
}

func (e *SpecFieldError) Error() string {
	return fmt.Sprintf("sizing: symbol spec %q field %s must be positive, got %g", e.Symbol, e.Field, e.Value)
}

// Validate checks that every numeric field is strictly positive and that the
// volume bounds are ordered.
func (s SymbolSpec) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"point", s.Point},
		{"tick_size", s.TickSize},
		{"tick_value", s.TickValue},
		{"volume_min", s.VolumeMin},
		{"volume_max", s.VolumeMax},
		{"volume_step", s.VolumeStep},
		{"contract_size", s.ContractSize},
	}
	for _, f := range fields {
		if f.value <= 0 {
			return &SpecFieldError{Symbol: s.Symbol, Field: f.name, Value: f.value}
		}
	}
	if s.VolumeMax < s.VolumeMin {
		return &SpecFieldError{Symbol: s.Symbol, Field: "volume_max", Value: s.VolumeMax}
	}
	return nil
}

// Notional returns the account-currency exposure of a position: lots times
// contract size times price.
func (s SymbolSpec) Notional(lots, price float64) float64 {
	return lots * s.ContractSize * price
}
