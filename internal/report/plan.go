// Package report renders batches of typed records into styled excelize
// workbooks. Callers describe each sheet with a SheetPlan; the assembler
// owns column order, display formats, sorting and conditional styling.
package report

import (
	"time"

	"github.com/DerekChan65535/pygrays-api/internal/schema"
	"github.com/xuri/excelize/v2"
)

// SheetPlan describes one output sheet: which records it shows, the
// schema that fixes its column order, and how rows are ordered and
// styled. Plans are independent; a record may land in zero, one or
// several sheets.
type SheetPlan struct {
	Name    string
	Schema  *schema.Schema
	Records []schema.Record
	// Predicate filters Records; nil keeps every record.
	Predicate func(schema.Record) bool
	Sort      *SortSpec
	Styles    []StyleRule
}

// SortSpec orders a sheet by one column. Rows missing the column sort
// as the minimum value for its type, so missing dates come first on an
// ascending sort.
type SortSpec struct {
	Column     string
	Descending bool
}

// StyleRule applies a style to the cells of one column whenever the
// predicate holds for the cell's underlying value. Styling never
// changes the value, only its presentation.
type StyleRule struct {
	Column string
	When   func(value any, ctx StyleContext) bool
	Style  excelize.Style
}

// StyleContext carries caller-supplied reference values for style
// predicates, such as the date overdue cells are compared against.
type StyleContext struct {
	Reference time.Time
}
