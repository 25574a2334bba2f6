package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one row of typed business data after import coercion. Values
// are string, int64, float64, decimal.Decimal, bool or time.Time; nil
// marks a missing optional field. The typed accessors return an ok flag
// so callers can tell an absent field from a zero value, and a retained
// raw string (failed coercion) from a real typed value.
type Record map[string]any

// Clone returns a shallow copy. Derivation steps clone before adding
// fields so inputs are never mutated.
func (r Record) Clone() Record {
	out := make(Record, len(r)+8)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has reports whether the field is present with a non-nil value.
func (r Record) Has(name string) bool {
	v, ok := r[name]
	return ok && v != nil
}

// Text returns the field as a string, or "" when absent or not a string.
func (r Record) Text(name string) string {
	s, _ := r[name].(string)
	return s
}

// Int returns the field as an int64 when it holds one.
func (r Record) Int(name string) (int64, bool) {
	n, ok := r[name].(int64)
	return n, ok
}

// Float returns the field as a float64 when it holds one.
func (r Record) Float(name string) (float64, bool) {
	f, ok := r[name].(float64)
	return f, ok
}

// Number returns the field as a float64 when it holds any numeric kind.
func (r Record) Number(name string) (float64, bool) {
	switch v := r[name].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case decimal.Decimal:
		f, _ := v.Float64()
		return f, true
	}
	return 0, false
}

// Bool returns the field as a bool, false when absent or untyped.
func (r Record) Bool(name string) bool {
	b, _ := r[name].(bool)
	return b
}

// Time returns the field as a time.Time when coercion produced a true
// date. A date field that failed to parse holds its original string and
// reports false here.
func (r Record) Time(name string) (time.Time, bool) {
	t, ok := r[name].(time.Time)
	return t, ok
}

// Decimal returns the field as a decimal.Decimal when it holds one.
func (r Record) Decimal(name string) (decimal.Decimal, bool) {
	d, ok := r[name].(decimal.Decimal)
	return d, ok
}
