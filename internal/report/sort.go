package report

import (
	"sort"
	"time"

	"github.com/DerekChan65535/pygrays-api/internal/schema"
	"github.com/shopspring/decimal"
)

// sortRecords orders records in place by the spec's column. The sort is
// stable so equal keys keep their input order.
func sortRecords(records []schema.Record, spec *SortSpec) {
	sort.SliceStable(records, func(i, j int) bool {
		a := records[i][spec.Column]
		b := records[j][spec.Column]
		if spec.Descending {
			return valueLess(b, a)
		}
		return valueLess(a, b)
	})
}

// Type rank keeps mixed columns ordered deterministically: absent
// values first, then dates, numbers, booleans and finally raw strings.
func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case time.Time:
		return 1
	case int64, float64, decimal.Decimal:
		return 2
	case bool:
		return 3
	case string:
		return 4
	default:
		return 5
	}
}

func valueLess(a, b any) bool {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra < rb
	}
	switch av := a.(type) {
	case time.Time:
		return av.Before(b.(time.Time))
	case int64, float64, decimal.Decimal:
		return numeric(a) < numeric(b)
	case bool:
		return !av && b.(bool)
	case string:
		return av < b.(string)
	}
	return false
}

func numeric(v any) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	case decimal.Decimal:
		f, _ := x.Float64()
		return f
	}
	return 0
}
