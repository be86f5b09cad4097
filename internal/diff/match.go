package diff

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

// numericTolerance is the absolute tolerance for numeric comparisons. Amounts
// that round differently upstream (e.g. "100.00" vs "100.009") still count as
// matches; anything at or beyond a cent apart does not.
var numericTolerance = decimal.New(1, -2) // 0.01

// Matches reports whether an extracted value agrees with its ground-truth
// counterpart. Rules are tried in order; the first success wins:
//  1. exact equality (type and value identical)
//  2. numeric comparison with absolute tolerance < 0.01, after stripping
//     thousands separators
//  3. case-insensitive, whitespace-trimmed string comparison
func Matches(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}

	if da, ok := toDecimal(a); ok {
		if db, ok := toDecimal(b); ok {
			if da.Sub(db).Abs().LessThan(numericTolerance) {
				return true
			}
		}
	}

	sa := strings.TrimSpace(stringify(a))
	sb := strings.TrimSpace(stringify(b))
	return strings.EqualFold(sa, sb)
}

// toDecimal parses a value as an exact decimal number. Strings are cleaned of
// thousands separators first; non-numeric values report false.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case float64:
		return decimal.NewFromFloat(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case string:
		cleaned := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
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

func stringify(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// isNullish reports whether a value counts as absent for comparison purposes:
// JSON null or the empty string.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
