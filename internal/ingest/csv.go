package ingest

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/DerekChan65535/pygrays-api/internal/schema"
	"github.com/shopspring/decimal"
)

// ReadTable parses delimited text into a cell grid. Rows may have
// uneven lengths; callers decide whether that matters.
func ReadTable(text string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = DetectDelimiter(text)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse delimited text: %w", err)
	}
	return rows, nil
}

// ImportRows decodes and parses a delimited file against a schema,
// mapping columns by header name. Coercion never drops a row: problems
// come back as warnings and the offending cell keeps its raw value.
// Columns the schema does not know pass through as raw strings; schema
// fields missing from the header are present as nil.
func ImportRows(sch *schema.Schema, raw []byte) ([]schema.Record, []string, error) {
	text, err := DecodeText(raw)
	if err != nil {
		return nil, nil, err
	}
	table, err := ReadTable(text)
	if err != nil {
		return nil, nil, err
	}
	if len(table) == 0 {
		return nil, nil, fmt.Errorf("no header row")
	}

	headers := table[0]
	var warnings []string
	records := make([]schema.Record, 0, len(table)-1)

	for n, row := range table[1:] {
		rec := make(schema.Record, sch.Len())
		for i, header := range headers {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			spec, known := sch.Lookup(header)
			if !known {
				rec[header] = cell
				continue
			}
			value, warn := schema.Coerce(spec, cell)
			if warn != "" {
				warnings = append(warnings, fmt.Sprintf("row %d: %s", n+1, warn))
			}
			rec[header] = value
		}
		for _, name := range sch.FieldNames() {
			if _, ok := rec[name]; !ok {
				rec[name] = nil
			}
		}
		records = append(records, rec)
	}
	return records, warnings, nil
}

// StrictRows is the validating variant used for inventory extracts.
// Every schema column must appear in the header, and a row with a
// malformed decimal or integer cell is dropped and reported. Only
// decimal and integer cells are converted; everything else stays a raw
// string for the export pass to carry through.
func StrictRows(sch *schema.Schema, raw []byte) ([]schema.Record, []string) {
	var errs []string

	text, err := DecodeText(raw)
	if err != nil {
		return nil, []string{err.Error()}
	}
	table, err := ReadTable(text)
	if err != nil {
		return nil, []string{err.Error()}
	}
	if len(table) == 0 {
		return nil, []string{"no data"}
	}

	headers := table[0]
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, name := range sch.FieldNames() {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, []string{fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", "))}
	}

	records := make([]schema.Record, 0, len(table)-1)
	// Line numbers count from the top of the file, header included.
	for n, row := range table[1:] {
		line := n + 2
		if len(row) != len(headers) {
			errs = append(errs, fmt.Sprintf("row %d: mismatched number of columns", line))
			continue
		}

		rec := make(schema.Record, len(headers))
		valid := true
		for i, header := range headers {
			cell := row[i]
			spec, known := sch.Lookup(header)
			if !known || cell == "" {
				rec[header] = cell
				continue
			}
			switch spec.Kind {
			case schema.KindDecimal:
				cleaned := schema.CleanDecimal(cell)
				d, err := decimal.NewFromString(cleaned)
				if err != nil {
					errs = append(errs, fmt.Sprintf("row %d, column %q: invalid decimal value %q", line, header, cleaned))
					valid = false
				} else {
					rec[header] = d
				}
			case schema.KindInteger:
				digits := digitsOnly(cell)
				if digits == "" {
					rec[header] = int64(0)
					break
				}
				v, err := strconv.ParseInt(digits, 10, 64)
				if err != nil {
					errs = append(errs, fmt.Sprintf("row %d, column %q: invalid integer value %q", line, header, digits))
					valid = false
				} else {
					rec[header] = v
				}
			default:
				rec[header] = cell
			}
			if !valid {
				break
			}
		}
		if valid {
			records = append(records, rec)
		}
	}
	return records, errs
}

// digitsOnly strips every non-digit character, including signs and the
// decimal point. The ERP emits unit counts with stray formatting and
// downstream always treats them as whole numbers.
func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
