package report

import (
	"fmt"
	"time"

	"github.com/DerekChan65535/pygrays-api/internal/schema"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const defaultSheetName = "Sheet1"

// Assemble renders every plan into one workbook, sheets in plan order.
// Any write failure aborts the whole assembly; a partially written
// multi-sheet workbook is never returned. An empty batch still renders
// a header-only sheet because consumers parse columns positionally.
func Assemble(plans []SheetPlan, ctx StyleContext) (*excelize.File, error) {
	f := excelize.NewFile()
	st := &styler{file: f, cache: make(map[string]int)}

	keepDefault := false
	for _, plan := range plans {
		if plan.Name == defaultSheetName {
			keepDefault = true
		}
		if _, err := f.NewSheet(plan.Name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %q: %w", plan.Name, err)
		}
		if err := writeSheet(f, st, plan, ctx); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %q: %w", plan.Name, err)
		}
	}
	if !keepDefault && len(plans) > 0 {
		if err := f.DeleteSheet(defaultSheetName); err != nil {
			f.Close()
			return nil, fmt.Errorf("drop default sheet: %w", err)
		}
	}
	return f, nil
}

// Bytes serializes and closes the workbook.
func Bytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, st *styler, plan SheetPlan, ctx StyleContext) error {
	records := plan.Records
	if plan.Predicate != nil {
		filtered := make([]schema.Record, 0, len(records))
		for _, rec := range records {
			if plan.Predicate(rec) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	} else if plan.Sort != nil {
		// Sorting happens on a copy so the caller's batch keeps its
		// order for the other sheets.
		records = append([]schema.Record(nil), records...)
	}
	if plan.Sort != nil {
		sortRecords(records, plan.Sort)
	}

	fields := plan.Schema.Fields()
	header := make([]any, len(fields))
	for i, spec := range fields {
		header[i] = spec.Name
	}
	if err := f.SetSheetRow(plan.Name, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]any, len(fields))
	for r, rec := range records {
		for c, spec := range fields {
			row[c] = renderValue(rec[spec.Name])
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(plan.Name, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if len(records) == 0 {
		return nil
	}

	// Column display formats over the data range, then conditional
	// styles on top of them.
	for c, spec := range fields {
		if spec.DisplayFormat == "" {
			continue
		}
		id, err := st.numFmt(spec.DisplayFormat)
		if err != nil {
			return err
		}
		top, err := excelize.CoordinatesToCellName(c+1, 2)
		if err != nil {
			return err
		}
		bottom, err := excelize.CoordinatesToCellName(c+1, len(records)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(plan.Name, top, bottom, id); err != nil {
			return fmt.Errorf("format column %q: %w", spec.Name, err)
		}
	}

	for _, rule := range plan.Styles {
		col, ok := plan.Schema.Lookup(rule.Column)
		if !ok {
			continue
		}
		colIdx := columnIndex(fields, rule.Column)
		id, err := st.ruleStyle(rule, col.DisplayFormat)
		if err != nil {
			return err
		}
		for r, rec := range records {
			if !rule.When(rec[rule.Column], ctx) {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(colIdx+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(plan.Name, cell, cell, id); err != nil {
				return fmt.Errorf("style cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

func columnIndex(fields []schema.FieldSpec, name string) int {
	for i, f := range fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// renderValue maps a record value to what excelize writes. Decimals are
// quantized to two places, half away from zero, at write time; absent
// values leave the cell empty.
func renderValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		f, _ := x.Round(2).Float64()
		return f
	case time.Time, string, bool, int64, float64:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// styler deduplicates style registrations within one workbook.
type styler struct {
	file  *excelize.File
	cache map[string]int
}

func (s *styler) numFmt(format string) (int, error) {
	key := "fmt|" + format
	if id, ok := s.cache[key]; ok {
		return id, nil
	}
	id, err := s.file.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return 0, fmt.Errorf("register number format %q: %w", format, err)
	}
	s.cache[key] = id
	return id, nil
}

// ruleStyle registers a conditional style, carrying the column's number
// format through so highlighting a formatted cell keeps its format.
func (s *styler) ruleStyle(rule StyleRule, displayFormat string) (int, error) {
	style := rule.Style
	if style.CustomNumFmt == nil && displayFormat != "" {
		style.CustomNumFmt = &displayFormat
	}
	numFmt := ""
	if style.CustomNumFmt != nil {
		numFmt = *style.CustomNumFmt
	}
	key := fmt.Sprintf("rule|%s|%v|%s", rule.Column, style.Fill, numFmt)
	if id, ok := s.cache[key]; ok {
		return id, nil
	}
	id, err := s.file.NewStyle(&style)
	if err != nil {
		return 0, fmt.Errorf("register style for column %q: %w", rule.Column, err)
	}
	s.cache[key] = id
	return id, nil
}
