package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/DerekChan65535/pygrays-api/internal/config"
	apierrors "github.com/DerekChan65535/pygrays-api/internal/errors"
	"github.com/DerekChan65535/pygrays-api/internal/infrastructure"
	"github.com/DerekChan65535/pygrays-api/internal/ingest"
	"github.com/DerekChan65535/pygrays-api/internal/report"
	"github.com/DerekChan65535/pygrays-api/internal/schema"
	"github.com/DerekChan65535/pygrays-api/pkg/contracts/domain"
	"github.com/shopspring/decimal"
)

var (
	dealsFileRE    = regexp.MustCompile(config.DealsFilePattern)
	dropshipFileRE = regexp.MustCompile(config.DropshipFilePattern)

	// gstDivisor backs the ex-GST derivations (value / 1.1).
	gstDivisor = decimal.RequireFromString("1.1")
)

// sohFile is one stock-on-hand extract: its per-item cost map plus the
// date embedded in the filename, which drives fallback priority.
type sohFile struct {
	name    string
	date    time.Time
	mapping map[string]any
}

// InventoryService merges the month's dropship and deals extracts with
// stock-on-hand cost data into a single three-sheet sales workbook.
type InventoryService struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewInventoryService creates an inventory service.
func NewInventoryService(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *InventoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InventoryService{cfg: cfg, logger: logger, metrics: metrics}
}

// Process validates and loads the SOH, DropshipSales and Deals files,
// derives the costing columns, and returns the monthly workbook. All
// text files of a kind must carry the same month and year in their
// names, and the two kinds must agree with each other.
func (s *InventoryService) Process(ctx context.Context, txtFiles, sohFiles []domain.FileArtifact) (result domain.Result) {
	started := time.Now()
	var rows int64
	defer func() {
		infrastructure.RecordReportMetrics(ctx, s.metrics, domain.DocumentTypeInventory.String(),
			time.Since(started), rows, 0, result.IsSuccess)
	}()

	s.logger.InfoContext(ctx, "processing inventory request",
		slog.Int("txt_files", len(txtFiles)),
		slog.Int("soh_files", len(sohFiles)))
	for _, f := range txtFiles {
		infrastructure.RecordSourceBytes(ctx, s.metrics, domain.DocumentTypeInventory.String(), int64(f.Size()))
	}
	for _, f := range sohFiles {
		infrastructure.RecordSourceBytes(ctx, s.metrics, domain.DocumentTypeInventory.String(), int64(f.Size()))
	}

	var c collector

	if len(sohFiles) == 0 {
		c.add("At least one SOH file (CSV) is required")
		return c.fail(ctx, s.logger, domain.DocumentTypeInventory.String())
	}

	costs := s.loadSOHFiles(ctx, sohFiles, &c)
	if c.failed() {
		return c.fail(ctx, s.logger, domain.DocumentTypeInventory.String())
	}

	dropship, dropMonth, dropYear := s.loadKind(ctx, txtFiles, dropshipFileRE, "DropshipSales", schema.InventoryDropshipImport, &c)
	if c.failed() {
		return c.fail(ctx, s.logger, domain.DocumentTypeInventory.String())
	}
	deals, dealsMonth, dealsYear := s.loadKind(ctx, txtFiles, dealsFileRE, "Deals", schema.InventoryDealsImport, &c)
	if c.failed() {
		return c.fail(ctx, s.logger, domain.DocumentTypeInventory.String())
	}

	if dropMonth != dealsMonth || dropYear != dealsYear {
		c.addf("Files from different periods: DropshipSales files are from %s %d, while Deals files are from %s %d",
			time.Month(dropMonth), dropYear, time.Month(dealsMonth), dealsYear)
		return c.fail(ctx, s.logger, domain.DocumentTypeInventory.String())
	}
	month, year := dropMonth, dropYear
	rows = int64(len(dropship) + len(deals))

	mixed := mixedRows(dropship)
	s.logger.InfoContext(ctx, "partitioned sales rows",
		slog.Int("dropship", len(dropship)),
		slog.Int("mixed", len(mixed)),
		slog.Int("deals", len(deals)))

	if len(mixed) > 0 {
		s.addPerUnitCost(ctx, mixed, costs, &c)
		if c.failed() {
			return c.fail(ctx, s.logger, domain.DocumentTypeInventory.String())
		}
	}
	if len(deals) > 0 {
		s.addPerUnitCost(ctx, deals, costs, &c)
		if c.failed() {
			return c.fail(ctx, s.logger, domain.DocumentTypeInventory.String())
		}
	}
	deriveCostColumns(mixed)
	deriveCostColumns(deals)

	content, err := renderWorkbook([]report.SheetPlan{
		{Name: "Dropship Sales", Schema: schema.InventoryDropshipExport, Records: dropship},
		{Name: "Mixed", Schema: schema.InventoryMixedExport, Records: mixed},
		{Name: "Wine", Schema: schema.InventoryWineExport, Records: deals},
	}, report.StyleContext{})
	if err != nil {
		c.addf("Error saving workbook: %s", err)
		return c.fail(ctx, s.logger, domain.DocumentTypeInventory.String())
	}

	name := fmt.Sprintf("%s_All_Sales_%d.xlsx", time.Month(month), year)
	s.logger.InfoContext(ctx, "inventory workbook ready",
		slog.String("workbook", name),
		slog.Int64("rows", rows))
	return domain.Succeed(domain.FileArtifact{Name: name, Content: content})
}

// loadSOHFiles validates each stock-on-hand filename, loads its item
// cost map, and returns the files ordered newest first. Duplicate items
// with different values inside one file fail the load with every
// conflict listed.
func (s *InventoryService) loadSOHFiles(ctx context.Context, files []domain.FileArtifact, c *collector) []sohFile {
	var invalid []string
	for _, f := range files {
		if _, ok := sohFileDate(f.Name); !ok {
			invalid = append(invalid, f.Name)
		}
	}
	if len(invalid) > 0 {
		c.add("Invalid SOH filename(s) - must end with DDMMYY pattern: " + strings.Join(invalid, ", "))
		return nil
	}

	loaded := make([]sohFile, 0, len(files))
	for _, f := range files {
		records, errs := ingest.StrictRows(schema.InventoryUOMImport, f.Content)
		if len(errs) > 0 {
			c.extend(prefixAll(f.Name, errs))
			return nil
		}

		mapping := make(map[string]any, len(records))
		var conflictOrder []string
		conflicts := make(map[string][]any)
		for _, rec := range records {
			item := rec.Text("Item")
			value := rec["UOM"]
			have, seen := mapping[item]
			if !seen {
				mapping[item] = value
				continue
			}
			if !sameUOM(have, value) {
				if _, ok := conflicts[item]; !ok {
					conflictOrder = append(conflictOrder, item)
					conflicts[item] = []any{have}
				}
				conflicts[item] = append(conflicts[item], value)
			}
		}
		if len(conflictOrder) > 0 {
			c.addf("SOH file %s contains duplicate item numbers with different UOM values", f.Name)
			for _, item := range conflictOrder {
				values := make([]string, len(conflicts[item]))
				for i, v := range conflicts[item] {
					values[i] = uomString(v)
				}
				c.addf("Item %s has conflicting UOM values in %s: %s", item, f.Name, strings.Join(values, ", "))
			}
			return nil
		}

		date, _ := sohFileDate(f.Name)
		loaded = append(loaded, sohFile{name: f.Name, date: date, mapping: mapping})
		s.logger.InfoContext(ctx, "loaded SOH file",
			slog.String("file", f.Name),
			slog.Time("date", date),
			slog.Int("items", len(mapping)))
	}

	sort.SliceStable(loaded, func(i, j int) bool { return loaded[i].date.After(loaded[j].date) })
	return loaded
}

// loadKind selects the text files matching one naming pattern, checks
// they all share a single month and year, and loads their rows through
// the kind's schema. Any row-level problem fails the whole batch.
func (s *InventoryService) loadKind(ctx context.Context, files []domain.FileArtifact, pattern *regexp.Regexp, kind string, sch *schema.Schema, c *collector) ([]schema.Record, int, int) {
	var selected []domain.FileArtifact
	for _, f := range files {
		if pattern.MatchString(f.Name) {
			selected = append(selected, f)
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Name < selected[j].Name })

	if len(selected) == 0 {
		c.addf("No %s files found in the provided files", kind)
		return nil, 0, 0
	}

	month, year, ok := consensusPeriod(selected)
	if !ok {
		c.addf("Invalid file names - all %s files must have the same month and year", kind)
		return nil, 0, 0
	}

	var all []schema.Record
	for _, f := range selected {
		records, errs := ingest.StrictRows(sch, f.Content)
		if len(errs) > 0 {
			c.extend(prefixAll(f.Name, errs))
			return nil, 0, 0
		}
		all = append(all, records...)
	}
	s.logger.InfoContext(ctx, "loaded sales extracts",
		slog.String("kind", kind),
		slog.Int("files", len(selected)),
		slog.Int("rows", len(all)))
	return all, month, year
}

// mixedRows selects the dropship rows sold through the mixed channel:
// customer 10 with a non-blank product code. Rows are cloned so the
// costing columns never leak into the dropship sheet's records.
func mixedRows(dropship []schema.Record) []schema.Record {
	var mixed []schema.Record
	for _, rec := range dropship {
		if rec.Text("Customer") == "10" && strings.TrimSpace(rec.Text("AX_ProductCode")) != "" {
			mixed = append(mixed, rec.Clone())
		}
	}
	return mixed
}

// addPerUnitCost resolves each row's product code against the SOH maps,
// newest file first. Codes found nowhere fail the batch with the first
// ten listed.
func (s *InventoryService) addPerUnitCost(ctx context.Context, records []schema.Record, costs []sohFile, c *collector) {
	var missing []string
	resolved := make(map[string]int, len(costs))
	for _, rec := range records {
		code := rec.Text("AX_ProductCode")
		var cost any = ""
		located := ""
		for _, f := range costs {
			if v, ok := f.mapping[code]; ok {
				cost = v
				located = f.name
				break
			}
		}
		if located != "" {
			resolved[located]++
		} else {
			missing = append(missing, code)
		}
		rec["Per_Unit_Cost"] = cost
	}

	for _, f := range costs {
		if n := resolved[f.name]; n > 0 {
			s.logger.DebugContext(ctx, "per-unit costs resolved",
				slog.String("file", f.name),
				slog.Int("items", n))
		}
	}
	if len(missing) > 0 {
		c.add("Items not found in any SOH file: " + apierrors.JoinCapped(missing, 10))
	}
}

// deriveCostColumns computes COGS and the ex-GST figures. A zero or
// unusable operand leaves the cell empty rather than writing a zero.
func deriveCostColumns(records []schema.Record) {
	for _, rec := range records {
		cost, haveCost := rec.Decimal("Per_Unit_Cost")
		units, _ := rec.Int("Units")
		if haveCost && !cost.IsZero() && units != 0 {
			rec["COGS"] = cost.Mul(decimal.NewFromInt(units))
		} else {
			rec["COGS"] = ""
		}

		if amount, ok := rec.Decimal("Amount"); ok && !amount.IsZero() {
			rec["SALE_EX_GST"] = amount.Div(gstDivisor)
		} else {
			rec["SALE_EX_GST"] = ""
		}

		if bp, ok := rec.Decimal("BP"); ok && !bp.IsZero() {
			rec["BP_EX_GST"] = bp.Div(gstDivisor)
		} else {
			rec["BP_EX_GST"] = ""
		}
	}
}

// consensusPeriod extracts month and year from the eight filename
// digits and requires every file to agree.
func consensusPeriod(files []domain.FileArtifact) (int, int, bool) {
	month, year := 0, 0
	for _, f := range files {
		digits := f.Name[len(f.Name)-12 : len(f.Name)-4]
		m, _ := strconv.Atoi(digits[4:6])
		y, _ := strconv.Atoi(digits[0:4])
		if m < 1 || m > 12 {
			return month, year, false
		}
		if month == 0 && year == 0 {
			month, year = m, y
			continue
		}
		if m != month || y != year {
			return month, year, false
		}
	}
	return month, year, true
}

// sohFileDate parses the DDMMYY suffix of a stock-on-hand filename.
// Two-digit years up to 30 land in the 2000s, the rest in the 1900s.
func sohFileDate(filename string) (time.Time, bool) {
	stem := baseName(filename)
	if len(stem) < 6 {
		return time.Time{}, false
	}
	digits := stem[len(stem)-6:]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return time.Time{}, false
		}
	}
	day, _ := strconv.Atoi(digits[0:2])
	month, _ := strconv.Atoi(digits[2:4])
	year, _ := strconv.Atoi(digits[4:6])
	if year <= 30 {
		year += 2000
	} else {
		year += 1900
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || date.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return date, true
}

// sameUOM compares two cost values: numerically when both are decimals,
// by raw value otherwise. A retained string never equals a decimal.
func sameUOM(a, b any) bool {
	da, aok := a.(decimal.Decimal)
	db, bok := b.(decimal.Decimal)
	if aok && bok {
		return da.Equal(db)
	}
	if aok != bok {
		return false
	}
	return a == b
}

func uomString(v any) string {
	if d, ok := v.(decimal.Decimal); ok {
		return d.String()
	}
	return fmt.Sprint(v)
}
