package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/DerekChan65535/pygrays-api/internal/archive"
	"github.com/DerekChan65535/pygrays-api/internal/config"
	"github.com/DerekChan65535/pygrays-api/internal/infrastructure"
	"github.com/DerekChan65535/pygrays-api/internal/ingest"
	"github.com/DerekChan65535/pygrays-api/internal/report"
	"github.com/DerekChan65535/pygrays-api/internal/schema"
	"github.com/DerekChan65535/pygrays-api/pkg/contracts/domain"
)

const (
	// paymentEntityColumn is the header cell the split is keyed on.
	paymentEntityColumn = "BusinessEntity"
	// paymentBlankEntity stands in for rows whose entity cell is empty.
	paymentBlankEntity = "Blank"
)

// PaymentExtractService splits a payments workbook into one workbook
// per distinct business entity and packages them into a single archive.
type PaymentExtractService struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewPaymentExtractService creates a payment extract service.
func NewPaymentExtractService(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *PaymentExtractService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentExtractService{cfg: cfg, logger: logger, metrics: metrics}
}

// Process opens the uploaded workbook (modern or legacy format), reads
// the payments sheet, and emits one workbook per distinct trimmed
// BusinessEntity value with the original header order preserved.
func (s *PaymentExtractService) Process(ctx context.Context, excelFile domain.FileArtifact) (result domain.Result) {
	started := time.Now()
	var rows int64
	defer func() {
		infrastructure.RecordReportMetrics(ctx, s.metrics, domain.DocumentTypePaymentExtract.String(),
			time.Since(started), rows, 0, result.IsSuccess)
	}()

	s.logger.InfoContext(ctx, "processing payment extract",
		slog.String("file", excelFile.Name),
		slog.Int("size_bytes", excelFile.Size()))
	infrastructure.RecordSourceBytes(ctx, s.metrics, domain.DocumentTypePaymentExtract.String(), int64(excelFile.Size()))

	var c collector

	wb, err := ingest.OpenWorkbook(excelFile.Content)
	if err != nil {
		c.addf("Error loading Excel file: %s", err)
		return c.fail(ctx, s.logger, domain.DocumentTypePaymentExtract.String())
	}
	defer wb.Close()

	if !containsString(wb.SheetNames(), config.PaymentExtractSheet) {
		c.addf("Sheet '%s' not found in the Excel file", config.PaymentExtractSheet)
		return c.fail(ctx, s.logger, domain.DocumentTypePaymentExtract.String())
	}

	grid, err := wb.Rows(config.PaymentExtractSheet)
	if err != nil {
		c.addf("Error loading Excel file: %s", err)
		return c.fail(ctx, s.logger, domain.DocumentTypePaymentExtract.String())
	}

	var headers []string
	if len(grid) > 0 {
		headers = make([]string, len(grid[0]))
		for i, h := range grid[0] {
			headers[i] = strings.TrimSpace(h)
		}
	}
	entityIdx := indexOf(headers, paymentEntityColumn)
	if entityIdx < 0 {
		c.addf("Column '%s' not found in the '%s' sheet", paymentEntityColumn, config.PaymentExtractSheet)
		return c.fail(ctx, s.logger, domain.DocumentTypePaymentExtract.String())
	}

	records, keys := readPaymentRows(grid, headers, entityIdx)
	if len(records) == 0 {
		c.addf("No data rows found in sheet '%s'", config.PaymentExtractSheet)
		return c.fail(ctx, s.logger, domain.DocumentTypePaymentExtract.String())
	}
	rows = int64(len(records))

	entities := uniqueSorted(keys)
	s.logger.InfoContext(ctx, "splitting payments by business entity",
		slog.Int("rows", len(records)),
		slog.Int("entities", len(entities)))

	sheetSchema := paymentSheetSchema(headers)
	base := baseName(excelFile.Name)

	artifacts := make([]domain.FileArtifact, 0, len(entities))
	for _, entity := range entities {
		filtered := make([]schema.Record, 0, len(records))
		for i, rec := range records {
			if keys[i] == entity {
				filtered = append(filtered, rec)
			}
		}
		content, err := renderWorkbook([]report.SheetPlan{{
			Name:    config.PaymentExtractSheet,
			Schema:  sheetSchema,
			Records: filtered,
		}}, report.StyleContext{})
		if err != nil {
			c.addf("Error processing file: %s", err)
			return c.fail(ctx, s.logger, domain.DocumentTypePaymentExtract.String())
		}
		artifacts = append(artifacts, domain.FileArtifact{
			Name:    fmt.Sprintf("%s-BusinessEntity-%s.xlsx", base, entity),
			Content: content,
		})
		s.logger.DebugContext(ctx, "entity workbook rendered",
			slog.String("entity", entity),
			slog.Int("rows", len(filtered)))
	}

	zipped, err := archive.Bundle(artifacts)
	if err != nil {
		c.addf("Error processing file: %s", err)
		return c.fail(ctx, s.logger, domain.DocumentTypePaymentExtract.String())
	}
	name := fmt.Sprintf("%s%s-PaymentExtract.zip", s.cfg.Processing.ArchivePrefix, base)

	s.logger.InfoContext(ctx, "payment extract archive ready",
		slog.String("archive", name),
		slog.Int("workbooks", len(artifacts)))
	return domain.Succeed(domain.FileArtifact{Name: name, Content: zipped})
}

// readPaymentRows maps every data row onto the header names, restoring
// numeric cell values where the rendering is unambiguous, and returns
// the normalized entity key for each row alongside.
func readPaymentRows(grid [][]string, headers []string, entityIdx int) ([]schema.Record, []string) {
	if len(grid) < 2 {
		return nil, nil
	}
	records := make([]schema.Record, 0, len(grid)-1)
	keys := make([]string, 0, len(grid)-1)
	for _, row := range grid[1:] {
		rec := make(schema.Record, len(headers))
		for i, header := range headers {
			var raw string
			if i < len(row) {
				raw = row[i]
			}
			rec[header] = restoreCellValue(raw)
		}
		var entity string
		if entityIdx < len(row) {
			entity = strings.TrimSpace(row[entityIdx])
		}
		if entity == "" {
			entity = paymentBlankEntity
		}
		records = append(records, rec)
		keys = append(keys, entity)
	}
	return records, keys
}

// paymentSheetSchema rebuilds the sheet's column contract from the
// uploaded header row; duplicate or empty header names pass through.
func paymentSheetSchema(headers []string) *schema.Schema {
	fields := make([]schema.FieldSpec, 0, len(headers))
	for _, h := range headers {
		fields = append(fields, schema.Field(h, schema.KindString))
	}
	return schema.New("payment-extract", fields...)
}

// restoreCellValue turns a cell back into a number when its canonical
// float rendering round-trips exactly; codes with leading zeros and
// anything exotic stay text.
func restoreCellValue(raw string) any {
	if raw == "" {
		return ""
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return raw
	}
	if strconv.FormatFloat(f, 'f', -1, 64) != raw {
		return raw
	}
	return f
}

func uniqueSorted(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	var out []string
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func indexOf(values []string, want string) int {
	for i, v := range values {
		if v == want {
			return i
		}
	}
	return -1
}

func containsString(values []string, want string) bool {
	return indexOf(values, want) >= 0
}
