package services

import (
	"archive/zip"
	"bytes"
	"log/slog"
	"os"
	"testing"

	"github.com/DerekChan65535/pygrays-api/internal/config"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func testConfig() *config.Config {
	return config.Default()
}

// openZip parses a ZIP produced by a service and returns the reader.
func openZip(t *testing.T, content []byte) *zip.Reader {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	require.NoError(t, err)
	return r
}

// zipEntryNames returns the entry names in archive order.
func zipEntryNames(r *zip.Reader) []string {
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

// readZipEntry extracts one entry's bytes by name.
func readZipEntry(t *testing.T, r *zip.Reader, name string) []byte {
	t.Helper()
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		require.NoError(t, err)
		return buf.Bytes()
	}
	t.Fatalf("entry %q not found in archive", name)
	return nil
}

// openWorkbookBytes reopens a generated workbook for inspection.
func openWorkbookBytes(t *testing.T, content []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

// sheetRows reads a sheet's cells without applying number formats, so
// assertions see the stored values rather than display text.
func sheetRows(t *testing.T, f *excelize.File, sheet string) [][]string {
	t.Helper()
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return rows
}

// headerIndex maps header text to column position for the given row.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return idx
}

// cell returns rows[r][c], tolerating the trailing-cell trimming the
// reader applies to sparse rows.
func cell(rows [][]string, r, c int) string {
	if r >= len(rows) || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}

// buildWorkbook writes an in-memory workbook with one populated sheet,
// used to fabricate uploaded Excel inputs.
func buildWorkbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellName, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}
