package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind enumerates the typed value kinds a field can declare. Coercion
// dispatches exhaustively on Kind rather than on type-tag strings.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindDecimal
	KindFloat
	KindBoolean
	KindDateTime
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindDateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// FieldSpec declares one recognized field of a document type: its value
// kind, whether a value must be present, the date layouts accepted on
// import, and the spreadsheet number format applied on export. Specs are
// immutable and shared process-wide.
type FieldSpec struct {
	Name          string
	Kind          Kind
	Required      bool
	DateFormats   []string
	DisplayFormat string
}

// Field builds an optional FieldSpec of the given kind.
func Field(name string, kind Kind) FieldSpec {
	return FieldSpec{Name: name, Kind: kind}
}

// Required builds a required FieldSpec of the given kind.
func Required(name string, kind Kind) FieldSpec {
	return FieldSpec{Name: name, Kind: kind, Required: true}
}

// DateField builds a datetime FieldSpec trying the given layouts in order.
func DateField(name string, layouts ...string) FieldSpec {
	return FieldSpec{Name: name, Kind: KindDateTime, DateFormats: layouts}
}

// AsRequired returns a copy of the spec marked required.
func (f FieldSpec) AsRequired() FieldSpec {
	f.Required = true
	return f
}

// WithDisplay returns a copy of the spec carrying an export number format.
func (f FieldSpec) WithDisplay(format string) FieldSpec {
	f.DisplayFormat = format
	return f
}

// Coerce converts a raw cell into the field's typed value. It never
// aborts: problems come back as a warning message alongside a best-effort
// value. Policy:
//
//   - empty string becomes nil; a required field additionally records a
//     warning but the import continues with nil
//   - datetime tries each configured layout in order; when all fail the
//     original string is retained so callers can still see what arrived
//   - decimal strips everything except digits and the decimal point
//     before parsing; an unparseable value keeps the cleaned string
//   - boolean treats TRUE/YES/Y/1 (any case) as true, everything else as
//     false, with no unknown state
//
// Coercion is idempotent: an already-typed value passes through unchanged.
func Coerce(spec FieldSpec, raw any) (any, string) {
	switch raw.(type) {
	case nil:
		return nil, ""
	case int64, float64, bool, time.Time, decimal.Decimal:
		return raw, ""
	}

	s, ok := raw.(string)
	if !ok {
		return raw, ""
	}
	if s == "" {
		if spec.Required {
			return nil, fmt.Sprintf("missing required field %s", spec.Name)
		}
		return nil, ""
	}

	switch spec.Kind {
	case KindString:
		return s, ""
	case KindInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return s, fmt.Sprintf("field %s: invalid integer %q", spec.Name, s)
		}
		return n, ""
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return s, fmt.Sprintf("field %s: invalid number %q", spec.Name, s)
		}
		return f, ""
	case KindBoolean:
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case "TRUE", "YES", "Y", "1":
			return true, ""
		}
		return false, ""
	case KindDecimal:
		cleaned := CleanDecimal(s)
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return cleaned, fmt.Sprintf("field %s: invalid decimal %q", spec.Name, s)
		}
		return d, ""
	case KindDateTime:
		for _, layout := range spec.DateFormats {
			if t, err := time.Parse(layout, s); err == nil {
				return t, ""
			}
		}
		return s, fmt.Sprintf("field %s: unparseable date %q", spec.Name, s)
	}
	return s, ""
}

// CleanDecimal drops every character that is not a digit or a decimal
// point. Source extracts embed currency symbols and thousands
// separators in money cells.
func CleanDecimal(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
}
