package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/DerekChan65535/pygrays-api/internal/config"
	"github.com/DerekChan65535/pygrays-api/internal/files"
	"github.com/DerekChan65535/pygrays-api/internal/infrastructure"
	"github.com/DerekChan65535/pygrays-api/internal/services"
	"github.com/DerekChan65535/pygrays-api/internal/validation"
)

// Batch entry point for the aging report. Scans a directory for state
// extracts, runs the same pipeline the HTTP transport uses, and writes
// the resulting archive to disk.
func main() {
	mappingPath := flag.String("mapping", "", "path to the salesperson region mapping file (.csv or .txt)")
	inDir := flag.String("in", ".", `directory scanned for "Sales Aged Balance - *.csv" extracts`)
	dateArg := flag.String("date", "", "report date as YYYY-MM-DD (defaults to today)")
	outDir := flag.String("out", ".", "directory the report archive is written to")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	if err := run(cfg, logger, *mappingPath, *inDir, *dateArg, *outDir); err != nil {
		logger.Error("Aging report generation failed", slog.String("error", err.Error()))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, mappingPath, inDir, dateArg, outDir string) error {
	if mappingPath == "" {
		return fmt.Errorf("-mapping is required")
	}

	reportDate := time.Now()
	if dateArg != "" {
		parsed, err := time.Parse("2006-01-02", dateArg)
		if err != nil {
			return fmt.Errorf("invalid -date %q, expected YYYY-MM-DD", dateArg)
		}
		reportDate = parsed
	}

	extractPattern := config.AgingExtractPrefix + "*.csv"

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateFile(mappingPath); err != nil {
		return err
	}
	if !validation.AllowedExtension(mappingPath, config.MappingExtensions) {
		return fmt.Errorf("mapping file %s must have one of extensions %v", mappingPath, config.MappingExtensions)
	}
	if err := validator.ValidateInputDirectory(inDir, extractPattern); err != nil {
		return err
	}
	if err := validator.ValidateOutputDirectory(outDir); err != nil {
		return err
	}

	mapping, err := files.LoadArtifact(mappingPath)
	if err != nil {
		return err
	}

	extracts, err := files.NewDiscovery("").FindAgingExtracts(inDir)
	if err != nil {
		return err
	}
	if len(extracts) == 0 {
		return fmt.Errorf("no %q extracts found in %s", extractPattern, inDir)
	}

	dataFiles, err := files.LoadArtifacts(extracts)
	if err != nil {
		return err
	}

	logger.Info("Processing aging extracts",
		slog.Int("files", len(dataFiles)),
		slog.String("mapping", filepath.Base(mappingPath)),
		slog.String("report_date", reportDate.Format("2006-01-02")),
	)

	service := services.NewAgingReportService(cfg, logger, nil)
	result := service.Process(context.Background(), mapping, dataFiles, reportDate)
	for _, msg := range result.Errors {
		fmt.Fprintln(os.Stderr, msg)
	}
	if !result.IsSuccess || result.Data == nil {
		return fmt.Errorf("report generation failed")
	}

	outPath, err := files.WriteArtifact(outDir, *result.Data)
	if err != nil {
		return err
	}

	logger.Info("Archive written",
		slog.String("path", outPath),
		slog.Int("bytes", result.Data.Size()),
	)
	fmt.Println(outPath)
	return nil
}
