package lookup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mappingRow builds a ten-column mapping row with the projection cells
// filled in: (0,1) name/sub-division, (3,4) code/name, (6,7,9)
// name/state/days.
func mappingRow(name, sub, code, codeName, termsName, state, days string) []string {
	return []string{name, sub, "", code, codeName, "", termsName, state, "", days}
}

func TestBuildTables(t *testing.T) {
	rows := [][]string{
		mappingRow("H", "H", "H", "H", "H", "H", "H"), // header, skipped
		mappingRow("Wine", "Fine Wine", "200", "Wine", "Wine", "NSW", "30"),
		mappingRow("Autos", "Fleet", "310", "Autos", "Autos", "VIC", "45"),
		mappingRow("", "", "450", "Plant", "", "", ""),
	}

	tables, warnings, err := Build(rows)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	sub, ok := tables.SubDivision("Wine")
	require.True(t, ok)
	assert.Equal(t, "Fine Wine", sub)

	name, ok := tables.DivisionName("310")
	require.True(t, ok)
	assert.Equal(t, "Autos", name)

	name, ok = tables.DivisionName("450")
	require.True(t, ok)
	assert.Equal(t, "Plant", name, "rows contribute per projection independently")
	_, ok = tables.SubDivision("")
	assert.False(t, ok, "empty cells never become keys")

	days, ok := tables.PaymentDays("NSW-Wine")
	require.True(t, ok)
	assert.Equal(t, 30, days)

	_, ok = tables.PaymentDays("QLD-Wine")
	assert.False(t, ok)
}

func TestBuildCollectsAllConflicts(t *testing.T) {
	rows := [][]string{
		mappingRow("H", "H", "H", "H", "H", "H", "H"),
		mappingRow("Wine", "Fine Wine", "200", "Wine", "Wine", "NSW", "30"),
		mappingRow("Wine", "Cellar", "200", "Vino", "Wine", "NSW", "45"),
		mappingRow("Autos", "Fleet", "310", "Autos", "Autos", "VIC", "45"),
		mappingRow("Autos", "Salvage", "310", "Autos", "Autos", "VIC", "45"),
	}

	_, _, err := Build(rows)
	require.Error(t, err)

	var conflictErr *ConflictError
	require.True(t, errors.As(err, &conflictErr))
	require.Len(t, conflictErr.Conflicts, 4, "every conflicting key is reported, not just the first")

	joined := err.Error()
	assert.Contains(t, joined, `"Wine" maps to both "Fine Wine" and "Cellar"`)
	assert.Contains(t, joined, `"200" maps to both "Wine" and "Vino"`)
	assert.Contains(t, joined, `"NSW-Wine" maps to both 30 and 45`)
	assert.Contains(t, joined, `"Autos" maps to both "Fleet" and "Salvage"`)
}

func TestBuildExactDuplicatesAreNotConflicts(t *testing.T) {
	rows := [][]string{
		mappingRow("H", "H", "H", "H", "H", "H", "H"),
		mappingRow("Wine", "Fine Wine", "200", "Wine", "Wine", "NSW", "30"),
		mappingRow("Wine", "Fine Wine", "200", "Wine", "Wine", "NSW", "30"),
	}

	tables, warnings, err := Build(rows)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	days, ok := tables.PaymentDays("NSW-Wine")
	require.True(t, ok)
	assert.Equal(t, 30, days)
}

func TestBuildLenientTermsParsing(t *testing.T) {
	rows := [][]string{
		mappingRow("H", "H", "H", "H", "H", "H", "H"),
		mappingRow("Wine", "Fine Wine", "200", "Wine", "Wine", "NSW", "thirty"),
		mappingRow("Autos", "Fleet", "310", "Autos", "Autos", "VIC", ""),
	}

	tables, warnings, err := Build(rows)
	require.NoError(t, err)

	// The unparsable value warns and is skipped; the empty one is
	// skipped silently. Both rows still feed the other tables.
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "unparsable terms value")
	assert.Contains(t, warnings[0], "NSW-Wine")

	_, ok := tables.PaymentDays("NSW-Wine")
	assert.False(t, ok)
	_, ok = tables.PaymentDays("VIC-Autos")
	assert.False(t, ok)

	sub, ok := tables.SubDivision("Wine")
	require.True(t, ok)
	assert.Equal(t, "Fine Wine", sub)
	name, ok := tables.DivisionName("310")
	require.True(t, ok)
	assert.Equal(t, "Autos", name)
}

func TestBuildNarrowFileDegradesSingleTable(t *testing.T) {
	rows := [][]string{
		{"Division", "Sub"},
		{"Wine", "Fine Wine"},
		{"Autos", "Fleet"},
	}

	tables, warnings, err := Build(rows)
	require.NoError(t, err)

	sub, ok := tables.SubDivision("Wine")
	require.True(t, ok)
	assert.Equal(t, "Fine Wine", sub)

	_, ok = tables.DivisionName("Wine")
	assert.False(t, ok)

	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "division name table is empty")
	assert.Contains(t, warnings[1], "payment terms table is empty")
}

func TestBuildEmptyMappingFails(t *testing.T) {
	_, _, err := Build(nil)
	assert.Error(t, err)

	_, _, err = Build([][]string{{"header", "only"}})
	assert.Error(t, err)
}

func TestTermsKey(t *testing.T) {
	assert.Equal(t, "NSW-Wine", TermsKey("NSW", "Wine"))
	assert.Equal(t, "", TermsKey("", "Wine"))
	assert.Equal(t, "", TermsKey("NSW", ""))
	assert.Equal(t, "", TermsKey("", ""))
}
