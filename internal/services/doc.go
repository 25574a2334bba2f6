// Package services implements the business logic layer of the report
// engine. Each document type (aging report, inventory, bank statement,
// payment extract) gets one stateless service that turns uploaded source
// files into a packaged artifact, keeping HTTP handlers free of any
// transformation logic.
//
// # Architecture
//
// Services follow these architectural principles:
//
//	1. Stateless, synchronous processing: one call, one artifact
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Collected errors over thrown errors wherever rows can recover
//	5. Domain-focused methods that encapsulate business rules
//
// # Service Layer Responsibilities
//
// The service layer is responsible for:
//
//	- Source file validation and decoding
//	- Schema-driven row import and coercion
//	- Lookup joins and per-row derivation
//	- Sheet assembly and archive packaging
//	- Cross-cutting concerns (logging, metrics)
//
// # Common Service Pattern
//
// Services typically follow this structure:
//
//	type ServiceName struct {
//	    cfg     *config.Config
//	    logger  *slog.Logger
//	    metrics *infrastructure.BusinessMetrics
//	}
//
//	func NewServiceName(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *ServiceName {
//	    return &ServiceName{cfg: cfg, logger: logger, metrics: metrics}
//	}
//
//	func (s *ServiceName) Process(ctx context.Context, source domain.FileArtifact) domain.Result {
//	    // Validate and decode the source
//	    // Import rows against the document schema
//	    // Derive, partition, assemble, package
//	    // Return the Result envelope
//	}
//
// # Error Handling
//
// Every Process call returns the domain.Result envelope rather than an
// error. Fatal problems (unreadable source, failed validation, lookup
// conflicts) abort the batch and come back with IsSuccess=false and the
// full ordered error list. Row-level problems (coercion failures, lookup
// misses) are logged, counted, and surfaced as a capped list without
// failing the batch.
//
// # Available Services
//
// The package provides these core services:
//
//	- AgingReportService: state-partitioned receivables aging workbook
//	- InventoryService: monthly dropship/deals sales workbook
//	- BankStatementService: per-account, per-date statement archive
//	- PaymentExtractService: business-entity split of a payments workbook
//	- HealthService: liveness, readiness and version reporting
//
// # Testing
//
// Services are tested end to end: build source bytes in memory, call
// Process, then reopen the returned workbook or archive and assert on
// sheet names, headers and cell values.
package services
