package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/DerekChan65535/pygrays-api/internal/schema"
)

func plainSchema() *schema.Schema {
	return schema.New("plain",
		schema.Field("Name", schema.KindString),
		schema.Field("Qty", schema.KindInteger),
		schema.Field("Rate", schema.KindFloat),
		schema.Field("Amount", schema.KindDecimal),
		schema.Field("Flag", schema.KindBoolean),
		schema.Field("Note", schema.KindString),
	)
}

func reopen(t *testing.T, f *excelize.File) *excelize.File {
	t.Helper()
	content, err := Bytes(f)
	require.NoError(t, err)
	out, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	t.Cleanup(func() { out.Close() })
	return out
}

func TestAssembleHeaderOnlySheet(t *testing.T) {
	f, err := Assemble([]SheetPlan{{Name: "Data", Schema: plainSchema()}}, StyleContext{})
	require.NoError(t, err)

	out := reopen(t, f)
	assert.Equal(t, []string{"Data"}, out.GetSheetList(), "default sheet removed")

	rows, err := out.GetRows("Data")
	require.NoError(t, err)
	require.Len(t, rows, 1, "empty batch still renders the header row")
	assert.Equal(t, []string{"Name", "Qty", "Rate", "Amount", "Flag", "Note"}, rows[0])
}

func TestAssembleWritesTypedValues(t *testing.T) {
	records := []schema.Record{
		{
			"Name":   "pallet",
			"Qty":    int64(9),
			"Rate":   1.5,
			"Amount": decimal.RequireFromString("19.804"),
			"Flag":   true,
			"Note":   nil,
		},
		{
			"Name":   "crate",
			"Qty":    "4x", // failed coercion keeps raw text
			"Amount": decimal.RequireFromString("2.005"),
		},
	}

	f, err := Assemble([]SheetPlan{{Name: "Data", Schema: plainSchema(), Records: records}}, StyleContext{})
	require.NoError(t, err)
	out := reopen(t, f)

	get := func(cell string) string {
		v, err := out.GetCellValue("Data", cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "pallet", get("A2"))
	assert.Equal(t, "9", get("B2"))
	assert.Equal(t, "1.5", get("C2"))
	assert.Equal(t, "19.8", get("D2"), "decimals quantize to two places at write time")
	assert.Equal(t, "TRUE", get("E2"))
	assert.Equal(t, "", get("F2"))

	assert.Equal(t, "4x", get("B3"))
	assert.Equal(t, "2.01", get("D3"), "half away from zero")
}

func TestAssembleDisplayFormats(t *testing.T) {
	sch := schema.New("formatted",
		schema.Field("Name", schema.KindString),
		schema.DateField("Due").WithDisplay("DD-MMM-YY"),
		schema.Field("Amount", schema.KindFloat).WithDisplay(schema.AccountingFormat),
	)
	records := []schema.Record{
		{"Name": "a", "Due": time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC), "Amount": 19.8},
	}

	f, err := Assemble([]SheetPlan{{Name: "Data", Schema: sch, Records: records}}, StyleContext{})
	require.NoError(t, err)
	out := reopen(t, f)

	due, err := out.GetCellValue("Data", "B2")
	require.NoError(t, err)
	assert.Equal(t, "25-Mar-24", due)

	raw, err := out.GetCellValue("Data", "C2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "19.8", raw, "formatting changes presentation, not the stored value")

	style, err := out.GetCellStyle("Data", "C2")
	require.NoError(t, err)
	assert.NotZero(t, style)
}

func TestAssemblePartitionsAndPredicates(t *testing.T) {
	sch := schema.New("split",
		schema.Field("Name", schema.KindString),
		schema.Field("Outstanding", schema.KindFloat),
	)
	records := []schema.Record{
		{"Name": "settled", "Outstanding": 0.0},
		{"Name": "open", "Outstanding": 120.0},
	}
	settled := func(rec schema.Record) bool {
		v, ok := rec.Float("Outstanding")
		return ok && v == 0
	}
	open := func(rec schema.Record) bool { return !settled(rec) }

	f, err := Assemble([]SheetPlan{
		{Name: "All", Schema: sch, Records: records},
		{Name: "Fully Settled", Schema: sch, Records: records, Predicate: settled},
		{Name: "Outstanding", Schema: sch, Records: records, Predicate: open},
	}, StyleContext{})
	require.NoError(t, err)
	out := reopen(t, f)

	assert.Equal(t, []string{"All", "Fully Settled", "Outstanding"}, out.GetSheetList())

	all, err := out.GetRows("All")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	settledRows, err := out.GetRows("Fully Settled")
	require.NoError(t, err)
	require.Len(t, settledRows, 2)
	assert.Equal(t, "settled", settledRows[1][0])

	openRows, err := out.GetRows("Outstanding")
	require.NoError(t, err)
	require.Len(t, openRows, 2)
	assert.Equal(t, "open", openRows[1][0])
}

func TestAssembleSortMissingFirst(t *testing.T) {
	sch := schema.New("sorted",
		schema.Field("Name", schema.KindString),
		schema.DateField("Due"),
	)
	records := []schema.Record{
		{"Name": "late", "Due": time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)},
		{"Name": "nodate", "Due": nil},
		{"Name": "early", "Due": time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)},
	}

	f, err := Assemble([]SheetPlan{{
		Name:    "Asc",
		Schema:  sch,
		Records: records,
		Sort:    &SortSpec{Column: "Due"},
	}, {
		Name:    "Desc",
		Schema:  sch,
		Records: records,
		Sort:    &SortSpec{Column: "Due", Descending: true},
	}}, StyleContext{})
	require.NoError(t, err)
	out := reopen(t, f)

	asc, err := out.GetRows("Asc")
	require.NoError(t, err)
	require.Len(t, asc, 4)
	assert.Equal(t, "nodate", asc[1][0], "missing dates sort first")
	assert.Equal(t, "early", asc[2][0])
	assert.Equal(t, "late", asc[3][0])

	desc, err := out.GetRows("Desc")
	require.NoError(t, err)
	assert.Equal(t, "late", desc[1][0])
	assert.Equal(t, "early", desc[2][0])
	assert.Equal(t, "nodate", desc[3][0], "missing dates sort last when descending")

	// The caller's slice keeps its original order.
	assert.Equal(t, "late", records[0].Text("Name"))
	assert.Equal(t, "nodate", records[1].Text("Name"))
}

func TestAssembleConditionalStyling(t *testing.T) {
	sch := schema.New("styled",
		schema.Field("Name", schema.KindString),
		schema.DateField("Due").WithDisplay("DD-MMM-YY"),
	)
	records := []schema.Record{
		{"Name": "overdue", "Due": time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"Name": "current", "Due": time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)},
	}
	reference := time.Date(2024, 4, 14, 0, 0, 0, 0, time.UTC)

	overdue := StyleRule{
		Column: "Due",
		When: func(v any, ctx StyleContext) bool {
			d, ok := v.(time.Time)
			return ok && d.Before(ctx.Reference)
		},
		Style: excelize.Style{Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1}},
	}

	f, err := Assemble([]SheetPlan{{
		Name:    "Data",
		Schema:  sch,
		Records: records,
		Styles:  []StyleRule{overdue},
	}}, StyleContext{Reference: reference})
	require.NoError(t, err)
	out := reopen(t, f)

	styledID, err := out.GetCellStyle("Data", "B2")
	require.NoError(t, err)
	plainID, err := out.GetCellStyle("Data", "B3")
	require.NoError(t, err)
	assert.NotEqual(t, plainID, styledID, "only the overdue cell is highlighted")

	// Highlighting keeps the date presentation.
	v, err := out.GetCellValue("Data", "B2")
	require.NoError(t, err)
	assert.Equal(t, "01-Apr-24", v)
}
