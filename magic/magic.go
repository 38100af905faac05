// Package magic encodes the compact operation identity ("magic number") that
// tags every broker operation a bot instance submits.
//
// A magic number is a six-digit integer packing four components:
//
//	bot ia type sequence
//	 2   3   1    456     -> 231456
//
// The bot id occupies the 100000s digit (1-9), the IA configuration id the
// 10000s digit (0-9), the order type the 1000s digit, and the sequence the
// three low-order digits (000-999). Every encoded value therefore lies in
// [100000, 999999], and Decode(Encode(x)) == x for every valid x.
//
// The magic number is the sole correlation key between a bot's intent and the
// broker's flat position list, so two bot instances sharing one account never
// collide as long as their components differ.
package magic

import "fmt"

// Number is an encoded operation identity.
type Number int

// Encoded numbers always lie in this closed range.
const (
	MinNumber Number = 100000
	MaxNumber Number = 999999
)

// Component digit budgets.
const (
	MinBotID      = 1
	MaxBotID      = 9
	MinIAConfigID = 0
	MaxIAConfigID = 9
	MinSequence   = 0
	MaxSequence   = 999
)

// legacyBotOffset maps the historical three-digit bot id space (101, 102, ...)
// onto the single encodable digit.
const legacyBotOffset = 100

// OrderType is the closed set of order kinds an identity can carry. The
// numeric values are part of the wire format and must never be reordered.
type OrderType int

const (
	OrderTypeMarket    OrderType = 0
	OrderTypeLimit     OrderType = 1
	OrderTypeStop      OrderType = 2
	OrderTypeStopLimit OrderType = 3
)

var orderTypeNames = map[OrderType]string{
	OrderTypeMarket:    "market",
	OrderTypeLimit:     "limit",
	OrderTypeStop:      "stop",
	OrderTypeStopLimit: "stop_limit",
}

// Valid reports whether t is a member of the closed enumeration.
func (t OrderType) Valid() bool {
	_, ok := orderTypeNames[t]
	return ok
}

func (t OrderType) String() string {
	if name, ok := orderTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("order_type(%d)", int(t))
}

// ParseOrderType converts a config/CLI string to an OrderType.
func ParseOrderType(s string) (OrderType, error) {
	for t, name := range orderTypeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("magic: unknown order type %q", s)
}

// Components is the decoded view of a magic number.
type Components struct {
	BotID      int
	IAConfigID int
	OrderType  OrderType
	Sequence   int
}

func (c Components) String() string {
	return fmt.Sprintf("bot=%d ia=%d type=%s seq=%d", c.BotID, c.IAConfigID, c.OrderType, c.Sequence)
}

// RangeError reports an encode input outside its digit budget. The offending
// field is named so callers can surface exactly what was wrong.
type RangeError struct {
	Field    string
	Value    int
	Min, Max int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("magic: %s %d out of range [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

// InvalidNumberError reports a value that is not a decodable magic number.
type InvalidNumberError struct {
	Number Number
	Reason string
}

func (e *InvalidNumberError) Error() string {
	return fmt.Sprintf("magic: invalid number %d: %s", e.Number, e.Reason)
}

// Encode packs the four identity components into a magic number. It fails
// with a *RangeError when any component does not fit its digit budget.
func Encode(botID, iaConfigID int, orderType OrderType, sequence int) (Number, error) {
	if botID < MinBotID || botID > MaxBotID {
		return 0, &RangeError{Field: "bot id", Value: botID, Min: MinBotID, Max: MaxBotID}
	}
	if iaConfigID < MinIAConfigID || iaConfigID > MaxIAConfigID {
		return 0, &RangeError{Field: "ia config id", Value: iaConfigID, Min: MinIAConfigID, Max: MaxIAConfigID}
	}
	if !orderType.Valid() {
		return 0, &RangeError{Field: "order type", Value: int(orderType), Min: int(OrderTypeMarket), Max: int(OrderTypeStopLimit)}
	}
	if sequence < MinSequence || sequence > MaxSequence {
		return 0, &RangeError{Field: "sequence", Value: sequence, Min: MinSequence, Max: MaxSequence}
	}

	n := Number(botID*100000 + iaConfigID*10000 + int(orderType)*1000 + sequence)
	return n, nil
}

// FoldLegacyBotID maps a bot id from the historical three-digit space (101,
// 102, ...) onto the single-digit space used by Encode. Ids already in the
// encodable range pass through unchanged.
//
// The fold is lossy and one-way: after encoding, bot 6 and bot 106 are
// indistinguishable. Decode never reverses it; callers that still care about
// the original wide id must track it themselves.
func FoldLegacyBotID(id int) (int, error) {
	if id >= MinBotID && id <= MaxBotID {
		return id, nil
	}
	folded := id - legacyBotOffset
	if folded < MinBotID || folded > MaxBotID {
		return 0, &RangeError{
			Field: "legacy bot id",
			Value: id,
			Min:   legacyBotOffset + MinBotID,
			Max:   legacyBotOffset + MaxBotID,
		}
	}
	return folded, nil
}

// Decode unpacks a magic number into its components. It fails with an
// *InvalidNumberError when n is outside [MinNumber, MaxNumber] or its order
// type digit is not a member of the closed enumeration.
func Decode(n Number) (Components, error) {
	if n < MinNumber || n > MaxNumber {
		return Components{}, &InvalidNumberError{Number: n, Reason: "outside six-digit range"}
	}

	c := Components{
		BotID:      int(n) / 100000,
		IAConfigID: (int(n) / 10000) % 10,
		OrderType:  OrderType((int(n) / 1000) % 10),
		Sequence:   int(n) % 1000,
	}
	if !c.OrderType.Valid() {
		return Components{}, &InvalidNumberError{Number: n, Reason: fmt.Sprintf("unknown order type digit %d", int(c.OrderType))}
	}
	return c, nil
}

// IsValid reports whether n decodes cleanly. It never mutates or allocates;
// use it to vet historical data before batch operations.
func IsValid(n Number) bool {
	_, err := Decode(n)
	return err == nil
}
