package magic

import (
	"fmt"
	"sort"
	"strconv"
)

// Report summarizes a set of identities for operational auditing: how many
// operations each bot, each IA configuration, and each order type accounts
// for. Undecodable entries are listed in Invalid and excluded from the
// groupings, so for a fully valid input every grouping sums to Total.
type Report struct {
	Total   int
	Invalid []Invalid

	ByBot       map[int]int
	ByIAConfig  map[int]int
	ByOrderType map[OrderType]int
}

// Decoded returns how many entries made it into the groupings.
func (r Report) Decoded() int {
	return r.Total - len(r.Invalid)
}

// Audit decodes ids and counts them by bot, IA configuration and order type.
func Audit(ids []Number) Report {
	r := Report{
		Total:       len(ids),
		ByBot:       make(map[int]int),
		ByIAConfig:  make(map[int]int),
		ByOrderType: make(map[OrderType]int),
	}

	for i, id := range ids {
		c, err := Decode(id)
		if err != nil {
			r.Invalid = append(r.Invalid, Invalid{Index: i, Number: id, Err: err})
			continue
		}
		r.ByBot[c.BotID]++
		r.ByIAConfig[c.IAConfigID]++
		r.ByOrderType[c.OrderType]++
	}
	return r
}

// GroupBy selects the grouping key for Distribution.
type GroupBy int

const (
	GroupByBot GroupBy = iota
	GroupByIAConfig
	GroupByOrderType
)

func (g GroupBy) String() string {
	switch g {
	case GroupByBot:
		return "bot"
	case GroupByIAConfig:
		return "ia_config"
	case GroupByOrderType:
		return "order_type"
	default:
		return fmt.Sprintf("group_by(%d)", int(g))
	}
}

// Share is one bucket of a Distribution: the absolute count and its share of
// the decoded total in percent.
type Share struct {
	Count   int
	Percent float64
}

// Distribution groups the decodable ids by the requested key and reports each
// bucket's count and percentage. Percentages are taken over the decoded
// entries and sum to 100 within floating tolerance. An input with no
// decodable entries yields an empty map.
func Distribution(ids []Number, by GroupBy) (map[string]Share, error) {
	counts := make(map[string]int)
	decoded := 0

	for _, id := range ids {
		c, err := Decode(id)
		if err != nil {
			continue
		}
		decoded++
		switch by {
		case GroupByBot:
			counts[strconv.Itoa(c.BotID)]++
		case GroupByIAConfig:
			counts[strconv.Itoa(c.IAConfigID)]++
		case GroupByOrderType:
			counts[c.OrderType.String()]++
		default:
			return nil, fmt.Errorf("magic: unsupported grouping %v", by)
		}
	}

	out := make(map[string]Share, len(counts))
	for key, n := range counts {
		out[key] = Share{
			Count:   n,
			Percent: 100 * float64(n) / float64(decoded),
		}
	}
	return out, nil
}

// Keys returns the bucket keys of a distribution in sorted order, for stable
// CLI and log output.
func Keys(dist map[string]Share) []string {
	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
