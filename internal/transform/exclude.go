// Package transform carries the business rules of the aging report: the
// exclusion filter that drops rows which should never appear, and the
// derivation pipeline that enriches the rows that remain. Every
// derivation is a pure function of one record plus the lookup tables.
package transform

import (
	"strings"

	"github.com/DerekChan65535/pygrays-api/internal/schema"
)

// Rules configures the exclusion filter. Phrases match as case-sensitive
// substrings of the description; totals markers match the whole
// description exactly.
type Rules struct {
	Phrases       []string
	TotalsMarkers []string
}

// Tally counts dropped rows by exclusion category. Exclusion is normal
// behavior; the tally feeds logs, never the error envelope.
type Tally struct {
	Settled   int
	ZeroGross int
	Phrase    int
	Totals    int
}

// Dropped returns the total number of excluded rows.
func (t Tally) Dropped() int {
	return t.Settled + t.ZeroGross + t.Phrase + t.Totals
}

// ApplyExclusions drops rows that are already settled, carry a zero
// gross total, or whose description marks them as excluded or as a
// totals row. A row is counted once, under the first matching category.
func ApplyExclusions(records []schema.Record, rules Rules) ([]schema.Record, Tally) {
	kept := make([]schema.Record, 0, len(records))
	var tally Tally

	for _, rec := range records {
		desc := rec.Text("Description")
		switch {
		case rec.Has("Cheque_Date"):
			tally.Settled++
		case zeroGross(rec):
			tally.ZeroGross++
		case containsAny(desc, rules.Phrases):
			tally.Phrase++
		case equalsAny(desc, rules.TotalsMarkers):
			tally.Totals++
		default:
			kept = append(kept, rec)
		}
	}
	return kept, tally
}

// zeroGross is true only for a gross total that parsed and is exactly
// zero. Missing or unparseable values keep the row.
func zeroGross(rec schema.Record) bool {
	g, ok := rec.Float("Gross_Tot")
	return ok && g == 0
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func equalsAny(s string, markers []string) bool {
	for _, m := range markers {
		if s == m {
			return true
		}
	}
	return false
}
