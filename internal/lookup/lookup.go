// Package lookup builds the read-only reference tables the row
// transformer joins against. The mapping file is addressed by fixed
// column position, never header name, because header text varies across
// the source exports.
package lookup

import (
	"fmt"
	"strconv"
	"strings"
)

// Column positions of the three projections in the mapping file.
const (
	divisionNameCol = 0
	subDivisionCol  = 1
	divisionCodeCol = 3
	codeNameCol     = 4
	termsNameCol    = 6
	termsStateCol   = 7
	termsDaysCol    = 9
)

// Tables holds the three lookup projections built from one mapping
// file. All maps are read-only after Build returns.
type Tables struct {
	subDivisions  map[string]string
	divisionNames map[string]string
	paymentTerms  map[string]int
}

// SubDivision resolves a division name to its sub-division name.
func (t *Tables) SubDivision(name string) (string, bool) {
	v, ok := t.subDivisions[name]
	return v, ok
}

// DivisionName resolves a division code to the division's display name.
func (t *Tables) DivisionName(code string) (string, bool) {
	v, ok := t.divisionNames[code]
	return v, ok
}

// PaymentDays resolves a composite state-division key to payment terms
// in days. The ok flag distinguishes a miss from a legitimate zero.
func (t *Tables) PaymentDays(key string) (int, bool) {
	v, ok := t.paymentTerms[key]
	return v, ok
}

// TermsKey assembles the composite key for the payment terms table. An
// empty state or division name yields an empty key, never a dangling
// separator.
func TermsKey(state, divisionName string) string {
	if state == "" || divisionName == "" {
		return ""
	}
	return state + "-" + divisionName
}

// ConflictError reports every key that appeared with two different
// values during a mapping load. The load never picks a winner.
type ConflictError struct {
	Conflicts []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("mapping file has %d conflicting keys: %s",
		len(e.Conflicts), strings.Join(e.Conflicts, "; "))
}

// Build reads the mapping grid (header row first) into the three lookup
// tables. It returns non-fatal warnings for narrow files and unparsable
// terms values, and a *ConflictError when any key maps to two different
// values. The conflict scan covers the whole file before failing.
func Build(rows [][]string) (*Tables, []string, error) {
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("mapping file is empty")
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("mapping file has no data rows")
	}

	t := &Tables{
		subDivisions:  make(map[string]string),
		divisionNames: make(map[string]string),
		paymentTerms:  make(map[string]int),
	}
	var warnings []string
	var conflicts []string

	// Rows wide enough to even attempt each projection. Zero after the
	// scan means the file is narrower than that projection expects.
	var subDivWide, codeWide, termsWide int

	putString := func(m map[string]string, table, key, value string) {
		if have, ok := m[key]; ok {
			if have != value {
				conflicts = append(conflicts,
					fmt.Sprintf("%s key %q maps to both %q and %q", table, key, have, value))
			}
			return
		}
		m[key] = value
	}

	for n, row := range rows[1:] {
		line := n + 2

		if len(row) > subDivisionCol {
			subDivWide++
			name := strings.TrimSpace(row[divisionNameCol])
			sub := strings.TrimSpace(row[subDivisionCol])
			if name != "" && sub != "" {
				putString(t.subDivisions, "sub-division", name, sub)
			}
		}

		if len(row) > codeNameCol {
			codeWide++
			code := strings.TrimSpace(row[divisionCodeCol])
			name := strings.TrimSpace(row[codeNameCol])
			if code != "" && name != "" {
				putString(t.divisionNames, "division name", code, name)
			}
		}

		if len(row) > termsDaysCol {
			termsWide++
			name := strings.TrimSpace(row[termsNameCol])
			state := strings.TrimSpace(row[termsStateCol])
			daysRaw := strings.TrimSpace(row[termsDaysCol])
			key := TermsKey(state, name)
			if key == "" || daysRaw == "" {
				continue
			}
			days, err := strconv.Atoi(daysRaw)
			if err != nil {
				warnings = append(warnings,
					fmt.Sprintf("mapping row %d: unparsable terms value %q for key %q", line, daysRaw, key))
				continue
			}
			if have, ok := t.paymentTerms[key]; ok {
				if have != days {
					conflicts = append(conflicts,
						fmt.Sprintf("payment terms key %q maps to both %d and %d", key, have, days))
				}
				continue
			}
			t.paymentTerms[key] = days
		}
	}

	if subDivWide == 0 {
		warnings = append(warnings, "mapping file narrower than expected; sub-division table is empty")
	}
	if codeWide == 0 {
		warnings = append(warnings, "mapping file narrower than expected; division name table is empty")
	}
	if termsWide == 0 {
		warnings = append(warnings, "mapping file narrower than expected; payment terms table is empty")
	}

	if len(conflicts) > 0 {
		return nil, warnings, &ConflictError{Conflicts: conflicts}
	}
	return t, warnings, nil
}
