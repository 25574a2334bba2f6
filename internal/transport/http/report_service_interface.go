package http

import (
	"context"
	"time"

	"github.com/DerekChan65535/pygrays-api/pkg/contracts/domain"
)

// AgingReportProcessor builds the aged balance archive from a mapping
// file and the per-state extracts.
type AgingReportProcessor interface {
	Process(ctx context.Context, mapping domain.FileArtifact, dataFiles []domain.FileArtifact, reportDate time.Time) domain.Result
}

// InventoryProcessor builds the monthly sales workbook from dropship
// and deals extracts plus the stock-on-hand files.
type InventoryProcessor interface {
	Process(ctx context.Context, txtFiles, sohFiles []domain.FileArtifact) domain.Result
}

// BankStatementProcessor splits a combined statement extract into
// per-account and per-day workbooks.
type BankStatementProcessor interface {
	Process(ctx context.Context, csvFile domain.FileArtifact) domain.Result
}

// PaymentExtractProcessor splits a payments workbook by business entity.
type PaymentExtractProcessor interface {
	Process(ctx context.Context, excelFile domain.FileArtifact) domain.Result
}
