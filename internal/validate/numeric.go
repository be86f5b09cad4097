package validate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// isNumeric reports whether a per-year value can be read as a number.
// Strings are cleaned of thousands separators and spaces first.
func isNumeric(v any) bool {
	_, ok := toDecimal(v)
	return ok
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(t, ",", ""), " ", ""))
		if cleaned == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

// representativeValue picks the amount used for cross-field arithmetic: the
// most recent year that parses as a number. Reporting years are ISO year
// strings, so descending lexical order is descending chronological order.
func representativeValue(years map[string]any) (decimal.Decimal, bool) {
	keys := make([]string, 0, len(years))
	for k := range years {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	for _, k := range keys {
		if d, ok := toDecimal(years[k]); ok {
			return d, true
		}
	}
	return decimal.Decimal{}, false
}
