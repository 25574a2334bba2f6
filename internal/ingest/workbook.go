package ingest

import (
	"bytes"
	"fmt"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// Workbook is a read-only view over an uploaded spreadsheet, regardless
// of whether it arrived as a modern .xlsx or a legacy .xls.
type Workbook interface {
	SheetNames() []string
	// Rows returns the cell grid of one sheet as strings. Rows may be
	// ragged; trailing empty cells are not padded.
	Rows(sheet string) ([][]string, error)
	Close() error
}

var (
	zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}
	cfbMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// OpenWorkbook sniffs the container format from the leading bytes and
// opens with the matching reader: ZIP containers with excelize, OLE
// compound files (legacy .xls) with xlsReader.
func OpenWorkbook(content []byte) (Workbook, error) {
	switch {
	case bytes.HasPrefix(content, zipMagic):
		f, err := excelize.OpenReader(bytes.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("open xlsx workbook: %w", err)
		}
		return &excelWorkbook{file: f}, nil
	case bytes.HasPrefix(content, cfbMagic):
		wb, err := xls.OpenReader(bytes.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("open xls workbook: %w", err)
		}
		return &legacyWorkbook{wb: wb}, nil
	default:
		return nil, fmt.Errorf("unsupported workbook format")
	}
}

type excelWorkbook struct {
	file *excelize.File
}

func (w *excelWorkbook) SheetNames() []string { return w.file.GetSheetList() }

func (w *excelWorkbook) Rows(sheet string) ([][]string, error) {
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func (w *excelWorkbook) Close() error { return w.file.Close() }

type legacyWorkbook struct {
	wb xls.Workbook
}

func (w *legacyWorkbook) SheetNames() []string {
	names := make([]string, 0, w.wb.GetNumberSheets())
	for i := 0; i < w.wb.GetNumberSheets(); i++ {
		sh, err := w.wb.GetSheet(i)
		if err != nil || sh == nil {
			continue
		}
		names = append(names, sh.GetName())
	}
	return names
}

func (w *legacyWorkbook) Rows(sheet string) ([][]string, error) {
	for i := 0; i < w.wb.GetNumberSheets(); i++ {
		sh, err := w.wb.GetSheet(i)
		if err != nil || sh == nil || sh.GetName() != sheet {
			continue
		}
		var rows [][]string
		for _, r := range sh.GetRows() {
			var cells []string
			for _, c := range r.GetCols() {
				if c != nil {
					cells = append(cells, c.GetString())
				} else {
					cells = append(cells, "")
				}
			}
			rows = append(rows, cells)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("read sheet %q: sheet not found", sheet)
}

func (w *legacyWorkbook) Close() error { return nil }
