package paper

import "github.com/DVARGAS117/Botrading-sub003/sizing"

// DefaultSpecs is the built-in contract table. Values follow the usual retail
// five-digit conventions: one tick on one standard lot of EURUSD is worth one
// account-currency unit.
var DefaultSpecs = map[string]sizing.SymbolSpec{
	"EURUSD": {
		Symbol:       "EURUSD",
		Point:        0.00001,
		TickSize:     0.00001,
		TickValue:    1.0,
		VolumeMin:    0.01,
		VolumeMax:    100.0,
		VolumeStep:   0.01,
		ContractSize: 100000,
	},
	"GBPUSD": {
		Symbol:       "GBPUSD",
		Point:        0.00001,
		TickSize:     0.00001,
		TickValue:    1.0,
		VolumeMin:    0.01,
		VolumeMax:    100.0,
		VolumeStep:   0.01,
		ContractSize: 100000,
	},
	"USDJPY": {
		Symbol:       "USDJPY",
		Point:        0.001,
		TickSize:     0.001,
		TickValue:    0.65,
		VolumeMin:    0.01,
		VolumeMax:    100.0,
		VolumeStep:   0.01,
		ContractSize: 100000,
	},
	"XAUUSD": {
		Symbol:       "XAUUSD",
		Point:        0.01,
		TickSize:     0.01,
		TickValue:    1.0,
		VolumeMin:    0.01,
		VolumeMax:    50.0,
		VolumeStep:   0.01,
		ContractSize: 100,
	},
}
