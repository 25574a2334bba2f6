package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/DerekChan65535/pygrays-api/internal/archive"
	"github.com/DerekChan65535/pygrays-api/internal/config"
	"github.com/DerekChan65535/pygrays-api/internal/infrastructure"
	"github.com/DerekChan65535/pygrays-api/internal/ingest"
	"github.com/DerekChan65535/pygrays-api/internal/report"
	"github.com/DerekChan65535/pygrays-api/internal/schema"
	"github.com/DerekChan65535/pygrays-api/pkg/contracts/domain"
	"github.com/shopspring/decimal"
)

// bankStatementSchema fixes the nine-column sheet layout. Numeric cells
// carry decimals in the records and render by value type, so every
// column is declared as plain text.
var bankStatementSchema = schema.New("bank-statement", bankStatementFields()...)

func bankStatementFields() []schema.FieldSpec {
	fields := make([]schema.FieldSpec, 0, len(schema.BankStatementColumns))
	for _, name := range schema.BankStatementColumns {
		fields = append(fields, schema.Field(name, schema.KindString))
	}
	return fields
}

// BankStatementService splits a Westpac statement export into one
// workbook per account and date plus a per-date summary workbook, and
// packages everything into a single archive.
type BankStatementService struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewBankStatementService creates a bank statement service.
func NewBankStatementService(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *BankStatementService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BankStatementService{cfg: cfg, logger: logger, metrics: metrics}
}

// Process validates the statement CSV, keeps only the configured
// accounts, groups transactions by date and account, and returns the
// packaged archive. Numeric conversion failures keep the original text
// and never fail the batch.
func (s *BankStatementService) Process(ctx context.Context, csvFile domain.FileArtifact) (result domain.Result) {
	started := time.Now()
	var rows, warnings int64
	defer func() {
		infrastructure.RecordReportMetrics(ctx, s.metrics, domain.DocumentTypeBankStatement.String(),
			time.Since(started), rows, warnings, result.IsSuccess)
	}()

	s.logger.InfoContext(ctx, "processing bank statement",
		slog.String("file", csvFile.Name),
		slog.Int("size_bytes", csvFile.Size()))
	infrastructure.RecordSourceBytes(ctx, s.metrics, domain.DocumentTypeBankStatement.String(), int64(csvFile.Size()))

	var c collector

	if csvFile.Size() == 0 {
		c.add("CSV file is empty")
		return c.fail(ctx, s.logger, domain.DocumentTypeBankStatement.String())
	}

	data := s.loadRows(csvFile, &c)
	if c.failed() {
		return c.fail(ctx, s.logger, domain.DocumentTypeBankStatement.String())
	}
	rows = int64(len(data))

	filtered := s.filterAccounts(ctx, data)
	if len(filtered) == 0 {
		c.add("No transactions found for required accounts")
		return c.fail(ctx, s.logger, domain.DocumentTypeBankStatement.String())
	}

	warnings = s.convertNumericColumns(ctx, filtered)

	dates, byDate := groupByDate(filtered)
	if len(dates) == 0 {
		c.add("No date groups found")
		return c.fail(ctx, s.logger, domain.DocumentTypeBankStatement.String())
	}

	artifacts, err := s.buildWorkbooks(ctx, dates, byDate)
	if err != nil {
		c.addf("Error processing file: %s", err)
		return c.fail(ctx, s.logger, domain.DocumentTypeBankStatement.String())
	}

	zipped, err := archive.Bundle(artifacts)
	if err != nil {
		c.addf("Error processing file: %s", err)
		return c.fail(ctx, s.logger, domain.DocumentTypeBankStatement.String())
	}
	name := fmt.Sprintf("%s%s-BankStatement.zip", s.cfg.Processing.ArchivePrefix, baseName(csvFile.Name))

	s.logger.InfoContext(ctx, "bank statement archive ready",
		slog.String("archive", name),
		slog.Int("workbooks", len(artifacts)),
		slog.Int64("transactions", rows))
	return domain.Succeed(domain.FileArtifact{Name: name, Content: zipped})
}

// loadRows decodes and parses the CSV, enforcing the exact header
// contract, and returns one trimmed Record per data row.
func (s *BankStatementService) loadRows(csvFile domain.FileArtifact, c *collector) []schema.Record {
	text, err := ingest.DecodeText(csvFile.Content)
	if err != nil {
		c.addf("Error loading CSV data: %s", err)
		return nil
	}
	table, err := ingest.ReadTable(text)
	if err != nil {
		c.addf("Error loading CSV data: %s", err)
		return nil
	}
	if len(table) == 0 {
		c.add("CSV file has no headers")
		return nil
	}

	headers := make([]string, len(table[0]))
	for i, h := range table[0] {
		headers[i] = strings.TrimSpace(h)
	}
	if !equalColumns(headers, schema.BankStatementColumns) {
		c.addf("Invalid CSV headers. Expected [%s], got [%s]",
			strings.Join(schema.BankStatementColumns, ", "), strings.Join(headers, ", "))
		return nil
	}

	data := make([]schema.Record, 0, len(table)-1)
	for _, row := range table[1:] {
		rec := make(schema.Record, len(headers))
		for i, col := range headers {
			var cell string
			if i < len(row) {
				cell = strings.TrimSpace(row[i])
			}
			rec[col] = cell
		}
		data = append(data, rec)
	}
	if len(data) == 0 {
		c.add("No data rows found in CSV file")
		return nil
	}
	return data
}

// filterAccounts keeps transactions whose account number is on the
// configured allow list.
func (s *BankStatementService) filterAccounts(ctx context.Context, data []schema.Record) []schema.Record {
	allowed := make(map[string]bool, len(s.cfg.Processing.BankAccounts))
	for _, account := range s.cfg.Processing.BankAccounts {
		allowed[account] = true
	}
	filtered := make([]schema.Record, 0, len(data))
	for _, rec := range data {
		if allowed[rec.Text("ACCOUNT_NO")] {
			filtered = append(filtered, rec)
		}
	}
	s.logger.InfoContext(ctx, "filtered transactions to required accounts",
		slog.Int("total", len(data)),
		slog.Int("kept", len(filtered)))
	return filtered
}

// convertNumericColumns coerces the numeric columns to decimal in
// place. A cell that fails to parse keeps its original text; the count
// of such cells is returned for the warning metric.
func (s *BankStatementService) convertNumericColumns(ctx context.Context, data []schema.Record) int64 {
	var failures int64
	for _, rec := range data {
		for _, col := range schema.BankStatementNumericColumns {
			raw := rec.Text(col)
			if raw == "" {
				continue
			}
			d, err := decimal.NewFromString(raw)
			if err != nil {
				s.logger.WarnContext(ctx, "numeric cell kept as text",
					slog.String("column", col),
					slog.String("value", raw))
				failures++
				continue
			}
			rec[col] = d
		}
	}
	if failures > 0 {
		s.logger.WarnContext(ctx, "numeric conversion failures", slog.Int64("count", failures))
	}
	return failures
}

// groupByDate buckets transactions under their TRAN_DATE rendering,
// returning the date keys in ascending order.
func groupByDate(data []schema.Record) ([]string, map[string][]schema.Record) {
	byDate := make(map[string][]schema.Record)
	for _, rec := range data {
		key := cellString(rec, "TRAN_DATE")
		byDate[key] = append(byDate[key], rec)
	}
	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, byDate
}

// buildWorkbooks renders, for every date, one workbook per account and
// a summary workbook carrying every account as its own sheet. Archive
// order is deterministic: dates ascending, accounts ascending within a
// date, summary last.
func (s *BankStatementService) buildWorkbooks(ctx context.Context, dates []string, byDate map[string][]schema.Record) ([]domain.FileArtifact, error) {
	var artifacts []domain.FileArtifact
	for _, date := range dates {
		accounts, byAccount := groupByAccount(byDate[date])

		summary := make([]report.SheetPlan, 0, len(accounts))
		for _, account := range accounts {
			records := byAccount[account]
			plan := report.SheetPlan{Name: account, Schema: bankStatementSchema, Records: records}

			content, err := renderWorkbook([]report.SheetPlan{plan}, report.StyleContext{})
			if err != nil {
				return nil, err
			}
			artifacts = append(artifacts, domain.FileArtifact{
				Name:    fmt.Sprintf("%s_%s.xlsx", account, date),
				Content: content,
			})
			summary = append(summary, plan)

			s.logger.DebugContext(ctx, "account workbook rendered",
				slog.String("account", account),
				slog.String("date", date),
				slog.Int("transactions", len(records)))
		}

		content, err := renderWorkbook(summary, report.StyleContext{})
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, domain.FileArtifact{
			Name:    fmt.Sprintf("ALL Westpac Accounts Bank Statements %s.xlsx", date),
			Content: content,
		})
	}
	return artifacts, nil
}

func groupByAccount(records []schema.Record) ([]string, map[string][]schema.Record) {
	byAccount := make(map[string][]schema.Record)
	for _, rec := range records {
		account := rec.Text("ACCOUNT_NO")
		byAccount[account] = append(byAccount[account], rec)
	}
	accounts := make([]string, 0, len(byAccount))
	for account := range byAccount {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts, byAccount
}

func renderWorkbook(plans []report.SheetPlan, styleCtx report.StyleContext) ([]byte, error) {
	f, err := report.Assemble(plans, styleCtx)
	if err != nil {
		return nil, err
	}
	return report.Bytes(f)
}

// cellString renders a cell for grouping: converted decimals print
// their canonical form, everything else is the raw text.
func cellString(rec schema.Record, col string) string {
	if d, ok := rec.Decimal(col); ok {
		return d.String()
	}
	return rec.Text(col)
}

// baseName strips the final extension, keeping any earlier dots.
func baseName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// equalColumns compares two header slices element by element.
func equalColumns(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
