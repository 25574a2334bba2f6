package services

import (
	"context"
	"strings"
	"testing"

	"github.com/DerekChan65535/pygrays-api/internal/schema"
	"github.com/DerekChan65535/pygrays-api/pkg/contracts/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tabFile(header []string, rows ...string) []byte {
	lines := append([]string{strings.Join(header, "\t")}, rows...)
	return []byte(strings.Join(lines, "\n") + "\n")
}

func dropshipFile(rows ...string) []byte {
	return tabFile(schema.InventoryDropshipImport.FieldNames(), rows...)
}

func dealsFile(rows ...string) []byte {
	return tabFile(schema.InventoryDealsImport.FieldNames(), rows...)
}

func sohFixture(rows ...string) []byte {
	return []byte("Item,UOM\n" + strings.Join(rows, "\n") + "\n")
}

const (
	dropshipRowMixed  = "10\t1001\tGST\t2\t50\t110\tS1\tV1\tI1\tGadget\tSN1\tVR1\tDS1\tC1\tD1\tX\t55\tRetail\tRoad"
	dropshipRowPlain  = "20\t1002\tGST\t1\t30\t33\tS2\tV2\tI2\tWidget\tSN2\tVR2\tDS2\tC2\tD2\tX\t11\tRetail\tRoad"
	dropshipRowZeroes = "10\t1002\tGST\t5\t10\t0\tS3\tV3\tI3\tParts\tSN3\tVR3\tDS3\tC3\tD3\tX\t\tRetail\tRoad"
	dealsRowWine      = "30\t2001\tGST\t3\t11\t33\tS9\tV9\tI9\tWine Lot\tSN9\tVR9\tDS9\tC9\tD9\tX\t11\tAuction\tW\tWine\tRoad"
)

func TestInventoryService_Process_BuildsWorkbook(t *testing.T) {
	svc := NewInventoryService(testConfig(), testLogger(), nil)

	txtFiles := []domain.FileArtifact{
		{Name: "DropshipSales20240101.txt", Content: dropshipFile(dropshipRowMixed, dropshipRowPlain, dropshipRowZeroes)},
		{Name: "Deals20240101.txt", Content: dealsFile(dealsRowWine)},
	}
	sohFiles := []domain.FileArtifact{
		// The older file carries a different cost for item 1001; the
		// newer one must win.
		{Name: "SOH Report 021223.csv", Content: sohFixture("1001,99", "2001,7")},
		{Name: "SOH Report 010124.csv", Content: sohFixture("1001,25.5", "1002,0")},
	}

	result := svc.Process(context.Background(), txtFiles, sohFiles)

	require.True(t, result.IsSuccess, "errors: %v", result.Errors)
	require.NotNil(t, result.Data)
	assert.Equal(t, "January_All_Sales_2024.xlsx", result.Data.Name)

	wb := openWorkbookBytes(t, result.Data.Content)
	assert.Equal(t, []string{"Dropship Sales", "Mixed", "Wine"}, wb.GetSheetList())

	// Dropship sheet keeps the source layout with no costing columns.
	drop := sheetRows(t, wb, "Dropship Sales")
	require.Len(t, drop, 4)
	assert.Equal(t, schema.InventoryDropshipImport.FieldNames(), drop[0])
	assert.Equal(t, "110", cell(drop, 1, 5))
	assert.Equal(t, "55", cell(drop, 1, 16))

	// Mixed sheet: customer 10 rows with a product code, costed against
	// the newest SOH file.
	mixed := sheetRows(t, wb, "Mixed")
	require.Len(t, mixed, 3)
	assert.Equal(t, schema.InventoryMixedExport.FieldNames(), mixed[0])
	assert.Equal(t, "25.5", cell(mixed, 1, 2)) // Per_Unit_Cost
	assert.Equal(t, "2", cell(mixed, 1, 3))    // Units
	assert.Equal(t, "51", cell(mixed, 1, 11))  // COGS
	assert.Equal(t, "100", cell(mixed, 1, 12)) // SALE_EX_GST = 110 / 1.1
	assert.Equal(t, "50", cell(mixed, 1, 13))  // BP_EX_GST = 55 / 1.1

	// Zero cost and zero amounts leave the derived cells empty.
	assert.Equal(t, "0", cell(mixed, 2, 2))
	assert.Equal(t, "", cell(mixed, 2, 11))
	assert.Equal(t, "", cell(mixed, 2, 12))
	assert.Equal(t, "", cell(mixed, 2, 13))

	// Wine sheet: deals rows, item resolved from the older SOH file.
	wine := sheetRows(t, wb, "Wine")
	require.Len(t, wine, 2)
	assert.Equal(t, schema.InventoryWineExport.FieldNames(), wine[0])
	assert.Equal(t, "7", cell(wine, 1, 2))
	assert.Equal(t, "21", cell(wine, 1, 11))
	assert.Equal(t, "30", cell(wine, 1, 12))
	assert.Equal(t, "10", cell(wine, 1, 13))
	assert.Equal(t, "W", cell(wine, 1, 21))
	assert.Equal(t, "Wine", cell(wine, 1, 22))
}

func TestInventoryService_Process_Validation(t *testing.T) {
	validTxt := []domain.FileArtifact{
		{Name: "DropshipSales20240101.txt", Content: dropshipFile(dropshipRowMixed)},
		{Name: "Deals20240101.txt", Content: dealsFile(dealsRowWine)},
	}
	validSOH := []domain.FileArtifact{
		{Name: "SOH Report 010124.csv", Content: sohFixture("1001,25.5", "2001,7")},
	}

	tests := []struct {
		name     string
		txtFiles []domain.FileArtifact
		sohFiles []domain.FileArtifact
		wantErrs []string
	}{
		{
			name:     "no SOH files",
			txtFiles: validTxt,
			sohFiles: nil,
			wantErrs: []string{"At least one SOH file (CSV) is required"},
		},
		{
			name:     "bad SOH filename",
			txtFiles: validTxt,
			sohFiles: []domain.FileArtifact{{Name: "stock.csv", Content: sohFixture("1001,25.5")}},
			wantErrs: []string{"Invalid SOH filename(s) - must end with DDMMYY pattern: stock.csv"},
		},
		{
			name:     "conflicting UOM values",
			txtFiles: validTxt,
			sohFiles: []domain.FileArtifact{{Name: "SOH Report 010124.csv", Content: sohFixture("1001,10", "1001,20")}},
			wantErrs: []string{
				"SOH file SOH Report 010124.csv contains duplicate item numbers with different UOM values",
				"Item 1001 has conflicting UOM values in SOH Report 010124.csv: 10, 20",
			},
		},
		{
			name:     "no dropship files",
			txtFiles: []domain.FileArtifact{{Name: "Deals20240101.txt", Content: dealsFile(dealsRowWine)}},
			sohFiles: validSOH,
			wantErrs: []string{"No DropshipSales files found in the provided files"},
		},
		{
			name:     "no deals files",
			txtFiles: []domain.FileArtifact{{Name: "DropshipSales20240101.txt", Content: dropshipFile(dropshipRowMixed)}},
			sohFiles: validSOH,
			wantErrs: []string{"No Deals files found in the provided files"},
		},
		{
			name: "dropship files from mixed months",
			txtFiles: []domain.FileArtifact{
				{Name: "DropshipSales20240101.txt", Content: dropshipFile(dropshipRowMixed)},
				{Name: "DropshipSales20240201.txt", Content: dropshipFile(dropshipRowMixed)},
				{Name: "Deals20240101.txt", Content: dealsFile(dealsRowWine)},
			},
			sohFiles: validSOH,
			wantErrs: []string{"Invalid file names - all DropshipSales files must have the same month and year"},
		},
		{
			name: "kinds from different periods",
			txtFiles: []domain.FileArtifact{
				{Name: "DropshipSales20240101.txt", Content: dropshipFile(dropshipRowMixed)},
				{Name: "Deals20240201.txt", Content: dealsFile(dealsRowWine)},
			},
			sohFiles: validSOH,
			wantErrs: []string{"Files from different periods: DropshipSales files are from January 2024, while Deals files are from February 2024"},
		},
		{
			name: "item missing from every SOH file",
			txtFiles: []domain.FileArtifact{
				{Name: "DropshipSales20240101.txt", Content: dropshipFile("10\t9999\tGST\t2\t50\t110\tS1\tV1\tI1\tGadget\tSN1\tVR1\tDS1\tC1\tD1\tX\t55\tRetail\tRoad")},
				{Name: "Deals20240101.txt", Content: dealsFile(dealsRowWine)},
			},
			sohFiles: validSOH,
			wantErrs: []string{"Items not found in any SOH file: 9999"},
		},
	}

	svc := NewInventoryService(testConfig(), testLogger(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.Process(context.Background(), tt.txtFiles, tt.sohFiles)
			require.False(t, result.IsSuccess)
			assert.Nil(t, result.Data)
			assert.Equal(t, tt.wantErrs, result.Errors)
		})
	}
}

func TestSOHFileDate(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
		ok       bool
	}{
		{"current century", "SOH Report 010124.csv", "2024-01-01", true},
		{"previous century", "SOH Report 311299.csv", "1999-12-31", true},
		{"century boundary", "SOH Report 010130.csv", "2030-01-01", true},
		{"above boundary", "SOH Report 010131.csv", "1931-01-01", true},
		{"rejects impossible day", "SOH Report 320124.csv", "", false},
		{"rejects impossible month", "SOH Report 011324.csv", "", false},
		{"rejects short stem", "SOH.csv", "", false},
		{"rejects non-digits", "SOH Report x10124.csv", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, ok := sohFileDate(tt.filename)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, date.Format("2006-01-02"))
			}
		})
	}
}
