package ingest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func TestOpenWorkbookXlsx(t *testing.T) {
	content := buildWorkbook(t, "Payments Extract", [][]any{
		{"BusinessEntity", "Amount"},
		{"Grays", "100.50"},
		{"Corporate", "200"},
	})

	wb, err := OpenWorkbook(content)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Payments Extract"}, wb.SheetNames())

	rows, err := wb.Rows("Payments Extract")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"BusinessEntity", "Amount"}, rows[0])
	assert.Equal(t, "Grays", rows[1][0])

	_, err = wb.Rows("Missing")
	assert.Error(t, err)
}

func TestOpenWorkbookUnsupportedFormat(t *testing.T) {
	_, err := OpenWorkbook([]byte("Sale_No,Division\n100,200\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported workbook format")
}
