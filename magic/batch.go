package magic

import "fmt"

// DecodeBatch decodes a list of magic numbers, preserving input order. It
// fails on the first invalid entry, reporting its position.
func DecodeBatch(ids []Number) ([]Components, error) {
	out := make([]Components, 0, len(ids))
	for i, id := range ids {
		c, err := Decode(id)
		if err != nil {
			return nil, fmt.Errorf("magic: batch entry %d: %w", i, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Invalid pairs an undecodable entry with its position and decode failure.
type Invalid struct {
	Index  int
	Number Number
	Err    error
}

// DecodeBatchLax decodes what it can. Valid entries come back in input order;
// invalid ones are reported separately instead of aborting the batch.
func DecodeBatchLax(ids []Number) ([]Components, []Invalid) {
	valid := make([]Components, 0, len(ids))
	var invalid []Invalid
	for i, id := range ids {
		c, err := Decode(id)
		if err != nil {
			invalid = append(invalid, Invalid{Index: i, Number: id, Err: err})
			continue
		}
		valid = append(valid, c)
	}
	return valid, invalid
}

// PartitionValid splits ids into decodable and undecodable values, preserving
// order within each partition. The input is never mutated.
func PartitionValid(ids []Number) (valid, invalid []Number) {
	for _, id := range ids {
		if IsValid(id) {
			valid = append(valid, id)
		} else {
			invalid = append(invalid, id)
		}
	}
	return valid, invalid
}

// Predicate selects identities by their decoded components. Predicates
// compose with AND semantics in Filter.
type Predicate func(Components) bool

// ByBot matches identities created by one bot instance.
func ByBot(botID int) Predicate {
	return func(c Components) bool { return c.BotID == botID }
}

// ByIAConfig matches identities tied to one AI configuration.
func ByIAConfig(iaConfigID int) Predicate {
	return func(c Components) bool { return c.IAConfigID == iaConfigID }
}

// ByOrderType matches identities carrying one order type.
func ByOrderType(t OrderType) Predicate {
	return func(c Components) bool { return c.OrderType == t }
}

// Filter returns the ids whose decoded components satisfy every predicate.
// Undecodable ids never match. The input slice is not mutated; the result is
// always a fresh slice in input order.
func Filter(ids []Number, preds ...Predicate) []Number {
	out := make([]Number, 0, len(ids))
next:
	for _, id := range ids {
		c, err := Decode(id)
		if err != nil {
			continue
		}
		for _, p := range preds {
			if !p(c) {
				continue next
			}
		}
		out = append(out, id)
	}
	return out
}
