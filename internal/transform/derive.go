package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DerekChan65535/pygrays-api/internal/lookup"
	"github.com/DerekChan65535/pygrays-api/internal/schema"
)

// Deriver computes the aging report's derived columns. It holds the
// lookup tables and the reporting date, both read-only, so one Deriver
// serves a whole batch.
type Deriver struct {
	tables     *lookup.Tables
	reportDate time.Time
}

// NewDeriver builds a Deriver for one batch. reportDate selects the
// DayN outstanding column and anchors the days-late arithmetic.
func NewDeriver(tables *lookup.Tables, reportDate time.Time) *Deriver {
	return &Deriver{tables: tables, reportDate: reportDate}
}

// Derive returns an enriched copy of the record with every derived
// column set, plus any per-row warnings. The input is never mutated.
//
// A record with no division code skips derivation entirely and passes
// through unchanged; that is deliberate, not an error.
func (d *Deriver) Derive(rec schema.Record) (schema.Record, []string) {
	if !rec.Has("Division") {
		return rec, nil
	}

	out := rec.Clone()
	var warnings []string

	// Division code to display name. A miss leaves the name empty and
	// warns; the row still proceeds with blanks downstream.
	division := rec.Text("Division")
	name, found := d.tables.DivisionName(division)
	if !found {
		warnings = append(warnings, fmt.Sprintf("no division name for code %q", division))
	}
	out["Division Name"] = name

	// Composite key for the terms lookup. Empty when either half is
	// missing, never a dangling separator.
	key := lookup.TermsKey(rec.Text("State"), name)
	out["State-Division Name"] = key

	days, haveDays := 0, false
	if key != "" {
		days, haveDays = d.tables.PaymentDays(key)
	}
	if haveDays {
		out["Payment Days"] = int64(days)
	} else {
		out["Payment Days"] = nil
	}

	// Due date only when the sale date really parsed and terms resolved.
	saleDate, haveSaleDate := rec.Time("Sale_Date")
	if haveSaleDate && haveDays {
		out["Due Date"] = saleDate.AddDate(0, 0, days)
	} else {
		out["Due Date"] = nil
	}

	sub, _ := d.tables.SubDivision(name)
	out["Sub Division Name"] = sub

	// Net amount: de-lotted sales deduct the numeric sale number from
	// the gross; otherwise the gross stands, defaulting to zero so the
	// later arithmetic always has a number.
	gross, haveGross := rec.Float("Gross_Tot")
	saleNo, haveSaleNo := numericSaleNo(rec.Text("Sale_No"))
	var net float64
	switch {
	case rec.Bool("Delot_Ind") && haveGross && haveSaleNo:
		net = gross - saleNo
	case haveGross:
		net = gross
	}
	out["Gross Amount"] = net

	// Outstanding comes from the day column matching the reporting
	// date's day of month.
	outstanding, ok := rec.Number("Day" + strconv.Itoa(d.reportDate.Day()))
	if !ok {
		outstanding = 0
	}
	out["To be Collected"] = outstanding

	out["Collected"] = net - outstanding

	var payable float64
	if rec.Bool("Delot_Ind") && outstanding == 0 {
		payable = net
	}
	out["Payable to Vendor"] = payable

	// Month and year only for rows with a description. Blank-description
	// rows stay blank even with a valid sale date; downstream consumers
	// rely on that.
	out["Month"], out["Year"] = nil, nil
	if rec.Text("Description") != "" && haveSaleDate {
		out["Month"] = saleDate.Month().String()
		out["Year"] = int64(saleDate.Year())
	}

	if rec.Has("Cheque_Date") {
		out["Cheque Date Y/N"] = "YES"
	} else {
		out["Cheque Date Y/N"] = "NO"
	}

	// Days late only when the vendor payable matches the gross exactly
	// and the cheque date really parsed; zero or negative gaps stay
	// absent.
	out["Days Late for Vendors Pmt"] = nil
	if cheque, ok := rec.Time("Cheque_Date"); ok && haveGross && payable == gross {
		if late := int64(d.reportDate.Sub(cheque) / (24 * time.Hour)); late > 0 {
			out["Days Late for Vendors Pmt"] = late
		}
	}

	return out, warnings
}

// DeriveAll runs Derive over a batch, collecting every row's warnings
// with a one-based row prefix.
func (d *Deriver) DeriveAll(records []schema.Record) ([]schema.Record, []string) {
	out := make([]schema.Record, 0, len(records))
	var warnings []string
	for i, rec := range records {
		derived, warns := d.Derive(rec)
		for _, w := range warns {
			warnings = append(warnings, fmt.Sprintf("row %d: %s", i+1, w))
		}
		out = append(out, derived)
	}
	return out, warnings
}

// numericSaleNo parses the sale number identifier as a number. Sale
// numbers are digits in practice but arrive as text.
func numericSaleNo(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
