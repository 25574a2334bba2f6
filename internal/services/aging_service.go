package services

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/DerekChan65535/pygrays-api/internal/archive"
	"github.com/DerekChan65535/pygrays-api/internal/config"
	apierrors "github.com/DerekChan65535/pygrays-api/internal/errors"
	"github.com/DerekChan65535/pygrays-api/internal/infrastructure"
	"github.com/DerekChan65535/pygrays-api/internal/ingest"
	"github.com/DerekChan65535/pygrays-api/internal/lookup"
	"github.com/DerekChan65535/pygrays-api/internal/report"
	"github.com/DerekChan65535/pygrays-api/internal/schema"
	"github.com/DerekChan65535/pygrays-api/internal/transform"
	"github.com/DerekChan65535/pygrays-api/pkg/contracts/domain"
	"github.com/xuri/excelize/v2"
)

// agingFileRE extracts the state token from a data file name. Matching
// is case-insensitive because the exports arrive named by hand.
var agingFileRE = regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(config.AgingExtractPrefix) + `(.+)\.csv$`)

// overdueFill highlights due dates that fall before the reference date.
var overdueFill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFFF00"}}

// AgingReportService builds the receivables aging workbook: state
// extracts joined against the mapping file, filtered, derived, and
// partitioned into settled, outstanding and family sheets.
type AgingReportService struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewAgingReportService creates an aging report service.
func NewAgingReportService(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *AgingReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AgingReportService{cfg: cfg, logger: logger, metrics: metrics}
}

// Process runs the full aging pipeline for one reporting date. Files
// whose names do not carry a state token are skipped with a collected
// error; the batch only fails when no valid file remains. Row-level
// problems never abort the batch: they are logged, counted, and
// surfaced as a capped list in the response envelope.
func (s *AgingReportService) Process(ctx context.Context, mapping domain.FileArtifact, dataFiles []domain.FileArtifact, reportDate time.Time) (result domain.Result) {
	started := time.Now()
	var rows, warningCount int64
	defer func() {
		infrastructure.RecordReportMetrics(ctx, s.metrics, domain.DocumentTypeAgingReport.String(),
			time.Since(started), rows, warningCount, result.IsSuccess)
	}()

	if reportDate.IsZero() {
		reportDate = time.Now()
	}
	s.logger.InfoContext(ctx, "processing aging report",
		slog.String("mapping", mapping.Name),
		slog.Int("data_files", len(dataFiles)),
		slog.Time("report_date", reportDate))
	infrastructure.RecordSourceBytes(ctx, s.metrics, domain.DocumentTypeAgingReport.String(), int64(mapping.Size()))
	for _, f := range dataFiles {
		infrastructure.RecordSourceBytes(ctx, s.metrics, domain.DocumentTypeAgingReport.String(), int64(f.Size()))
	}

	var c collector
	var warnings []string

	tables, mapWarnings, err := s.buildTables(mapping, &c)
	if err != nil {
		return c.fail(ctx, s.logger, domain.DocumentTypeAgingReport.String())
	}
	warnings = append(warnings, mapWarnings...)

	records, ok := s.importDataFiles(ctx, dataFiles, &c, &warnings)
	if !ok {
		return c.fail(ctx, s.logger, domain.DocumentTypeAgingReport.String())
	}

	kept, tally := transform.ApplyExclusions(records, transform.Rules{
		Phrases:       s.cfg.Processing.Aging.ExclusionPhrases,
		TotalsMarkers: s.cfg.Processing.Aging.TotalsMarkers,
	})
	s.logger.InfoContext(ctx, "exclusion filter applied",
		slog.Int("dropped", tally.Dropped()),
		slog.Int("settled", tally.Settled),
		slog.Int("zero_gross", tally.ZeroGross),
		slog.Int("phrase", tally.Phrase),
		slog.Int("totals", tally.Totals))

	derived, deriveWarnings := transform.NewDeriver(tables, reportDate).DeriveAll(kept)
	warnings = append(warnings, deriveWarnings...)
	rows = int64(len(derived))
	warningCount = int64(len(warnings))
	s.logWarnings(ctx, warnings)

	styleCtx := report.StyleContext{Reference: reportDate.AddDate(0, 0, -1)}
	content, err := renderWorkbook(s.sheetPlans(derived), styleCtx)
	if err != nil {
		c.addf("Error assembling workbook: %s", err)
		return c.fail(ctx, s.logger, domain.DocumentTypeAgingReport.String())
	}
	workbook := domain.FileArtifact{
		Name:    archive.EntryName(domain.DocumentTypeAgingReport, reportDate, ""),
		Content: content,
	}
	zipped, err := archive.Bundle([]domain.FileArtifact{workbook})
	if err != nil {
		c.addf("Error packaging archive: %s", err)
		return c.fail(ctx, s.logger, domain.DocumentTypeAgingReport.String())
	}
	name := archive.Name(s.cfg.Processing.ArchivePrefix, domain.DocumentTypeAgingReport, reportDate)

	s.logger.InfoContext(ctx, "aging report archive ready",
		slog.String("archive", name),
		slog.Int64("rows", rows),
		slog.Int64("warnings", warningCount))

	// Skipped-file errors stay in the envelope even on success, followed
	// by the capped row-warning list.
	envelope := append([]string(nil), c.errs...)
	envelope = append(envelope, apierrors.CapMessages(warnings, s.cfg.Processing.WarningLimit)...)
	return domain.SucceedWith(domain.FileArtifact{Name: name, Content: zipped}, envelope)
}

// buildTables loads the mapping file into the three lookup tables.
// Every conflicting key is reported before failing.
func (s *AgingReportService) buildTables(mapping domain.FileArtifact, c *collector) (*lookup.Tables, []string, error) {
	text, err := ingest.DecodeText(mapping.Content)
	if err != nil {
		c.addf("Error loading mapping file: %s", err)
		return nil, nil, err
	}
	grid, err := ingest.ReadTable(text)
	if err != nil {
		c.addf("Error loading mapping file: %s", err)
		return nil, nil, err
	}
	tables, warnings, err := lookup.Build(grid)
	if err != nil {
		var conflict *lookup.ConflictError
		if errors.As(err, &conflict) {
			c.addf("Mapping file has %d conflicting keys", len(conflict.Conflicts))
			c.extend(conflict.Conflicts)
		} else {
			c.add(err.Error())
		}
		return nil, nil, err
	}
	return tables, warnings, nil
}

// importDataFiles reads every conforming state extract, stamping the
// upper-cased state token on each of its rows. Non-conforming names are
// collected but only fatal when nothing conforms; unreadable conforming
// files abort immediately.
func (s *AgingReportService) importDataFiles(ctx context.Context, dataFiles []domain.FileArtifact, c *collector, warnings *[]string) ([]schema.Record, bool) {
	var records []schema.Record
	conforming := 0
	for _, f := range dataFiles {
		m := agingFileRE.FindStringSubmatch(f.Name)
		if m == nil {
			c.addf("File %q skipped: name does not match %q", f.Name, config.AgingExtractPrefix+"<STATE>.csv")
			continue
		}
		conforming++
		state := strings.ToUpper(strings.TrimSpace(m[1]))

		fileRecords, fileWarnings, err := ingest.ImportRows(schema.AgingImport, f.Content)
		if err != nil {
			c.addf("%s: %s", f.Name, err)
			return nil, false
		}
		*warnings = append(*warnings, prefixAll(f.Name, fileWarnings)...)
		for _, rec := range fileRecords {
			rec["State"] = state
		}
		records = append(records, fileRecords...)

		s.logger.InfoContext(ctx, "imported aging extract",
			slog.String("file", f.Name),
			slog.String("state", state),
			slog.Int("rows", len(fileRecords)))
	}
	if conforming == 0 {
		c.addf("No valid data files found - expected names like %q", config.AgingExtractPrefix+"NSW.csv")
		return nil, false
	}
	return records, true
}

// sheetPlans lays out the workbook: the full sorted report, the settled
// and outstanding partitions, then one sheet per configured family.
func (s *AgingReportService) sheetPlans(derived []schema.Record) []report.SheetPlan {
	overdue := report.StyleRule{
		Column: "Due Date",
		When: func(value any, ctx report.StyleContext) bool {
			t, ok := value.(time.Time)
			return ok && t.Before(ctx.Reference)
		},
		Style: excelize.Style{Fill: overdueFill},
	}

	plans := []report.SheetPlan{
		{
			Name:    "Aging Report",
			Schema:  schema.AgingExport,
			Records: derived,
			Sort:    &report.SortSpec{Column: "Due Date"},
			Styles:  []report.StyleRule{overdue},
		},
		{
			Name:      "Fully Settled",
			Schema:    schema.AgingExport,
			Records:   derived,
			Predicate: fullySettled,
		},
		{
			Name:      "Outstanding",
			Schema:    schema.AgingExport,
			Records:   derived,
			Predicate: func(rec schema.Record) bool { return !fullySettled(rec) },
		},
	}

	for _, family := range s.cfg.Processing.Aging.Families {
		members := make(map[string]bool, len(family.SubDivisions))
		for _, sub := range family.SubDivisions {
			members[sub] = true
		}
		plans = append(plans, report.SheetPlan{
			Name:      family.Name,
			Schema:    schema.AgingExport,
			Records:   derived,
			Predicate: func(rec schema.Record) bool { return members[rec.Text("Sub Division Name")] },
		})
	}
	return plans
}

// fullySettled reports rows with nothing left to collect. Rows that
// never went through derivation count as settled.
func fullySettled(rec schema.Record) bool {
	v, ok := rec.Number("To be Collected")
	return !ok || v == 0
}

func (s *AgingReportService) logWarnings(ctx context.Context, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	s.logger.WarnContext(ctx, "row-level warnings collected", slog.Int("count", len(warnings)))
	for _, w := range warnings {
		s.logger.DebugContext(ctx, "row warning", slog.String("warning", w))
	}
}
