package evaluator

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// ISO-8601 layouts used for normalized temporal values, second precision.
const (
	isoDateTimeLayout = "2006-01-02T15:04:05"
	isoDateLayout     = "2006-01-02"
)

// foldColumns returns the case-folded copy of a column name sequence for
// case-insensitive comparison. Folding is Unicode-correct and
// locale-independent, and applied once per result set, not per row.
// A cases.Caser is stateful, hence one per call.
func foldColumns(cols []string) []string {
	folder := cases.Fold()
	folded := make([]string, len(cols))
	for i, col := range cols {
		folded[i] = folder.String(col)
	}
	return folded
}

// normalizer is the per-column value normalization of an Evaluator
// configuration. All functions are pure and idempotent.
type normalizer struct {
	decimalPrecision int
	stripStrings     bool
}

// value normalizes a single cell independent of its column type:
// temporal values lose sub-second precision and render as ISO-8601,
// strings are optionally trimmed, integer and float widths collapse to
// int64 and float64, everything else passes through unchanged.
func (n normalizer) value(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case time.Time:
		return v.Format(isoDateTimeLayout)
	case string:
		if n.stripStrings {
			return strings.TrimSpace(v)
		}
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case float32:
		return float64(v)
	default:
		return v
	}
}

// decimal normalizes a DECIMAL/NUMERIC/MONEY cell. The driver delivers
// exact numerics as their string representation; they become floats
// rounded half away from zero to the configured precision. Rounding runs
// on the exact decimal, not on float64, so 1.00005 at precision 4 is
// 1.0001 on every platform.
func (n normalizer) decimal(v any) any {
	var d decimal.Decimal
	switch v := v.(type) {
	case nil:
		return nil
	case []byte:
		var err error
		if d, err = decimal.NewFromString(strings.TrimSpace(string(v))); err != nil {
			return n.value(v)
		}
	case string:
		var err error
		if d, err = decimal.NewFromString(strings.TrimSpace(v)); err != nil {
			return n.value(v)
		}
	case float64:
		d = decimal.NewFromFloat(v)
	case float32:
		d = decimal.NewFromFloat32(v)
	default:
		return n.value(v)
	}
	return d.Round(int32(n.decimalPrecision)).InexactFloat64()
}

// date normalizes a DATE cell: date only, no time component.
func (n normalizer) date(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.Format(isoDateLayout)
	}
	return n.value(v)
}
