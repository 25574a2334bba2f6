package services

import (
	"context"
	"testing"
	"time"

	"github.com/DerekChan65535/pygrays-api/internal/config"
	"github.com/DerekChan65535/pygrays-api/pkg/contracts/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// agingMapping wires division W1 to "Wine Division" / "Wine Group" with
// 30-day terms for NSW.
func agingMapping() domain.FileArtifact {
	csv := "Division Name,Sub Division,Unused,Division Code,Code Name,Unused,Terms Division,State,Unused,Days\n" +
		"Wine Division,Wine Group,,W1,Wine Division,,Wine Division,NSW,,30\n"
	return domain.FileArtifact{Name: "mapping.csv", Content: []byte(csv)}
}

func agingExtract(name, rows string) domain.FileArtifact {
	csv := "Sale_No,Division,Description,Sale_Date,Gross_Tot,Delot_Ind,Day2\n" + rows
	return domain.FileArtifact{Name: name, Content: []byte(csv)}
}

func TestAgingReportService_Process_BuildsArchive(t *testing.T) {
	cfg := testConfig()
	cfg.Processing.Aging.Families = []config.FamilySheet{
		{Name: "Wine Family", SubDivisions: []string{"Wine Group"}},
	}
	svc := NewAgingReportService(cfg, testLogger(), nil)

	dataFiles := []domain.FileArtifact{
		agingExtract("Sales Aged Balance - nsw.csv",
			"S1,W1,June Catalogue,01/06/2026,1000,N,250\n"+
				"S2,W1,,01/06/2026,500,N,0\n"),
	}
	reportDate := time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC)

	result := svc.Process(context.Background(), agingMapping(), dataFiles, reportDate)

	require.True(t, result.IsSuccess, "errors: %v", result.Errors)
	require.NotNil(t, result.Data)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "[pygrays]AgingReport_Reports_20260602.zip", result.Data.Name)

	r := openZip(t, result.Data.Content)
	require.Equal(t, []string{"AgingReport_20260602.xlsx"}, zipEntryNames(r))

	wb := openWorkbookBytes(t, readZipEntry(t, r, "AgingReport_20260602.xlsx"))
	assert.Equal(t, []string{"Aging Report", "Fully Settled", "Outstanding", "Wine Family"}, wb.GetSheetList())

	rows := sheetRows(t, wb, "Aging Report")
	require.Len(t, rows, 3)
	idx := headerIndex(rows[0])

	s1 := -1
	for i := 1; i < len(rows); i++ {
		if cell(rows, i, idx["Sale_No"]) == "S1" {
			s1 = i
		}
	}
	require.NotEqual(t, -1, s1, "row S1 not found")

	// The file name's state token is upper-cased and drives the terms
	// lookup, which in turn fills the derived columns.
	assert.Equal(t, "NSW", cell(rows, s1, idx["State"]))
	assert.Equal(t, "Wine Division", cell(rows, s1, idx["Division Name"]))
	assert.Equal(t, "NSW-Wine Division", cell(rows, s1, idx["State-Division Name"]))
	assert.Equal(t, "Wine Group", cell(rows, s1, idx["Sub Division Name"]))
	assert.Equal(t, "30", cell(rows, s1, idx["Payment Days"]))
	assert.NotEmpty(t, cell(rows, s1, idx["Due Date"]))
	assert.Equal(t, "1000", cell(rows, s1, idx["Gross Amount"]))
	assert.Equal(t, "250", cell(rows, s1, idx["To be Collected"]))
	assert.Equal(t, "750", cell(rows, s1, idx["Collected"]))
	assert.Equal(t, "0", cell(rows, s1, idx["Payable to Vendor"]))
	assert.Equal(t, "June", cell(rows, s1, idx["Month"]))
	assert.Equal(t, "2026", cell(rows, s1, idx["Year"]))
	assert.Equal(t, "NO", cell(rows, s1, idx["Cheque Date Y/N"]))

	// Blank description keeps month and year empty.
	s2 := 3 - s1
	assert.Equal(t, "", cell(rows, s2, idx["Month"]))
	assert.Equal(t, "", cell(rows, s2, idx["Year"]))

	settled := sheetRows(t, wb, "Fully Settled")
	require.Len(t, settled, 2)
	assert.Equal(t, "S2", cell(settled, 1, idx["Sale_No"]))

	outstanding := sheetRows(t, wb, "Outstanding")
	require.Len(t, outstanding, 2)
	assert.Equal(t, "S1", cell(outstanding, 1, idx["Sale_No"]))

	family := sheetRows(t, wb, "Wine Family")
	assert.Len(t, family, 3)
}

func TestAgingReportService_Process_SkipsNonConformingNames(t *testing.T) {
	svc := NewAgingReportService(testConfig(), testLogger(), nil)

	dataFiles := []domain.FileArtifact{
		agingExtract("Sales Aged Balance - NSW.csv", "S1,W1,,01/06/2026,1000,N,250\n"),
		{Name: "random.csv", Content: []byte("Sale_No\nS9\n")},
	}
	reportDate := time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC)

	result := svc.Process(context.Background(), agingMapping(), dataFiles, reportDate)

	require.True(t, result.IsSuccess, "errors: %v", result.Errors)
	assert.Equal(t, []string{
		`File "random.csv" skipped: name does not match "Sales Aged Balance - <STATE>.csv"`,
	}, result.Errors)
}

func TestAgingReportService_Process_FailsWithoutConformingFiles(t *testing.T) {
	svc := NewAgingReportService(testConfig(), testLogger(), nil)

	dataFiles := []domain.FileArtifact{
		{Name: "random.csv", Content: []byte("Sale_No\nS9\n")},
	}
	result := svc.Process(context.Background(), agingMapping(), dataFiles, time.Now())

	require.False(t, result.IsSuccess)
	assert.Nil(t, result.Data)
	assert.Equal(t, []string{
		`File "random.csv" skipped: name does not match "Sales Aged Balance - <STATE>.csv"`,
		`No valid data files found - expected names like "Sales Aged Balance - NSW.csv"`,
	}, result.Errors)
}

func TestAgingReportService_Process_ReportsMappingConflicts(t *testing.T) {
	svc := NewAgingReportService(testConfig(), testLogger(), nil)

	conflicted := "Division Name,Sub Division,Unused,Division Code,Code Name,Unused,Terms Division,State,Unused,Days\n" +
		"Wine Division,Group A,,,,,,,,\n" +
		"Wine Division,Group B,,,,,,,,\n"
	mapping := domain.FileArtifact{Name: "mapping.csv", Content: []byte(conflicted)}
	dataFiles := []domain.FileArtifact{
		agingExtract("Sales Aged Balance - NSW.csv", "S1,W1,,01/06/2026,1000,N,250\n"),
	}

	result := svc.Process(context.Background(), mapping, dataFiles, time.Now())

	require.False(t, result.IsSuccess)
	assert.Equal(t, []string{
		"Mapping file has 1 conflicting keys",
		`sub-division key "Wine Division" maps to both "Group A" and "Group B"`,
	}, result.Errors)
}

func TestAgingReportService_Process_CapsRowWarnings(t *testing.T) {
	cfg := testConfig()
	cfg.Processing.WarningLimit = 2
	svc := NewAgingReportService(cfg, testLogger(), nil)

	dataFiles := []domain.FileArtifact{
		agingExtract("Sales Aged Balance - NSW.csv",
			"S1,ZZ,,01/06/2026,100,N,0\n"+
				"S2,ZZ,,01/06/2026,100,N,0\n"+
				"S3,ZZ,,01/06/2026,100,N,0\n"),
	}
	reportDate := time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC)

	result := svc.Process(context.Background(), agingMapping(), dataFiles, reportDate)

	require.True(t, result.IsSuccess, "errors: %v", result.Errors)
	assert.Equal(t, []string{
		`row 1: no division name for code "ZZ"`,
		`row 2: no division name for code "ZZ"`,
		"(and 1 more)",
	}, result.Errors)
}
