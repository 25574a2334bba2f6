package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/DerekChan65535/pygrays-api/internal/config"
	apierrors "github.com/DerekChan65535/pygrays-api/internal/errors"
	"github.com/DerekChan65535/pygrays-api/internal/middleware"
	"github.com/DerekChan65535/pygrays-api/internal/validation"
	"github.com/DerekChan65535/pygrays-api/pkg/contracts/domain"
)

// multipartMemory is the in-memory buffer for parsed uploads before
// the runtime spills parts to temp files.
const multipartMemory = 32 << 20

// sohDatedName matches stock-on-hand uploads, which must end with a
// DDMMYY date right before the extension.
var sohDatedName = regexp.MustCompile(`(?i)\d{6}\.csv$`)

// ReportHandler exposes the report generators over multipart HTTP with
// RFC 7807 compliance for malformed requests. Engine-level failures
// keep their JSON envelope so callers see every collected error.
type ReportHandler struct {
	cfg            *config.Config
	aging          AgingReportProcessor
	inventory      InventoryProcessor
	bankStatement  BankStatementProcessor
	paymentExtract PaymentExtractProcessor
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewReportHandler creates a new report handler
func NewReportHandler(
	cfg *config.Config,
	aging AgingReportProcessor,
	inventory InventoryProcessor,
	bankStatement BankStatementProcessor,
	paymentExtract PaymentExtractProcessor,
	logger *slog.Logger,
	errorHandler *apierrors.ErrorHandler,
) *ReportHandler {
	return &ReportHandler{
		cfg:            cfg,
		aging:          aging,
		inventory:      inventory,
		bankStatement:  bankStatement,
		paymentExtract: paymentExtract,
		logger:         logger.With(slog.String("component", "report_handler")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the report routes with proper Chi patterns
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/aging-reports/process", h.ProcessAgingReport)
	r.Post("/inventory/uploadfiles", h.ProcessInventory)
	r.Post("/bank-statement/process", h.ProcessBankStatement)
	r.Post("/payment-extract/process", h.ProcessPaymentExtract)

	return r
}

// ProcessAgingReport handles POST /api/aging-reports/process.
// Expects mapping_file (one), data_files (many) and an optional
// report_date form value in YYYY-MM-DD form.
func (h *ReportHandler) ProcessAgingReport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	if !h.parseUpload(w, r) {
		return
	}

	mapping, apiErr := h.formFile(r, "mapping_file", config.MappingExtensions)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	// Data file names are screened by the service itself, which skips
	// anything not shaped like a per-state extract.
	dataFiles, apiErr := h.formFiles(r, "data_files", nil)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	reportDate, apiErr := reportDateParam(r)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	h.logger.InfoContext(r.Context(), "aging report requested",
		slog.String("request_id", reqID),
		slog.String("mapping_file", mapping.Name),
		slog.Int("data_files", len(dataFiles)),
		slog.Time("report_date", reportDate))

	h.respond(w, r, h.aging.Process(r.Context(), mapping, dataFiles, reportDate))
}

// ProcessInventory handles POST /api/inventory/uploadfiles.
// Expects txt_files (dropship and deals extracts) and csv_files
// (stock-on-hand exports named with a DDMMYY date).
func (h *ReportHandler) ProcessInventory(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	if !h.parseUpload(w, r) {
		return
	}

	txtFiles, apiErr := h.formFiles(r, "txt_files", config.TextExtensions)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	sohFiles, apiErr := h.formFiles(r, "csv_files", config.CSVExtensions)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}
	for _, f := range sohFiles {
		if !sohDatedName.MatchString(f.Name) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("csv_files",
				fmt.Sprintf("SOH file %q must end with a DDMMYY date before the extension", f.Name)))
			return
		}
	}

	h.logger.InfoContext(r.Context(), "inventory workbook requested",
		slog.String("request_id", reqID),
		slog.Int("txt_files", len(txtFiles)),
		slog.Int("csv_files", len(sohFiles)))

	h.respond(w, r, h.inventory.Process(r.Context(), txtFiles, sohFiles))
}

// ProcessBankStatement handles POST /api/bank-statement/process.
// Expects a single csv_file holding the combined statement extract.
func (h *ReportHandler) ProcessBankStatement(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	if !h.parseUpload(w, r) {
		return
	}

	csvFile, apiErr := h.formFile(r, "csv_file", config.CSVExtensions)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	h.logger.InfoContext(r.Context(), "bank statement split requested",
		slog.String("request_id", reqID),
		slog.String("csv_file", csvFile.Name),
		slog.Int("bytes", csvFile.Size()))

	h.respond(w, r, h.bankStatement.Process(r.Context(), csvFile))
}

// ProcessPaymentExtract handles POST /api/payment-extract/process.
// Expects a single excel_file holding the payments workbook.
func (h *ReportHandler) ProcessPaymentExtract(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	if !h.parseUpload(w, r) {
		return
	}

	excelFile, apiErr := h.formFile(r, "excel_file", config.WorkbookExtensions)
	if apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return
	}

	h.logger.InfoContext(r.Context(), "payment extract split requested",
		slog.String("request_id", reqID),
		slog.String("excel_file", excelFile.Name),
		slog.Int("bytes", excelFile.Size()))

	h.respond(w, r, h.paymentExtract.Process(r.Context(), excelFile))
}

// parseUpload parses the multipart body, translating size overruns
// into 413 problems. Returns false once an error response is written.
func (h *ReportHandler) parseUpload(w http.ResponseWriter, r *http.Request) bool {
	err := r.ParseMultipartForm(multipartMemory)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusRequestEntityTooLarge,
			"PAYLOAD_TOO_LARGE",
			fmt.Sprintf("Request body exceeds the %d byte upload limit", tooLarge.Limit)))
		return false
	}

	h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
	return false
}

// formFile returns the first file uploaded under field.
func (h *ReportHandler) formFile(r *http.Request, field string, allowed []string) (domain.FileArtifact, *apierrors.APIError) {
	headers := h.fileHeaders(r, field)
	if len(headers) == 0 {
		return domain.FileArtifact{}, apierrors.MissingParameterError(field)
	}
	return h.readArtifact(field, headers[0], allowed)
}

// formFiles returns every file uploaded under field, in upload order.
func (h *ReportHandler) formFiles(r *http.Request, field string, allowed []string) ([]domain.FileArtifact, *apierrors.APIError) {
	headers := h.fileHeaders(r, field)
	if len(headers) == 0 {
		return nil, apierrors.MissingParameterError(field)
	}

	artifacts := make([]domain.FileArtifact, 0, len(headers))
	for _, fh := range headers {
		artifact, apiErr := h.readArtifact(field, fh, allowed)
		if apiErr != nil {
			return nil, apiErr
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}

func (h *ReportHandler) fileHeaders(r *http.Request, field string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File[field]
}

// readArtifact screens one upload against the extension allow list and
// the per-file size limit, then buffers its content.
func (h *ReportHandler) readArtifact(field string, fh *multipart.FileHeader, allowed []string) (domain.FileArtifact, *apierrors.APIError) {
	name := filepath.Base(fh.Filename)

	if len(allowed) > 0 && !validation.AllowedExtension(name, allowed) {
		return domain.FileArtifact{}, apierrors.UnsupportedMediaError(field, name, allowed)
	}
	if limit := h.cfg.Processing.MaxUploadBytes; fh.Size > limit {
		return domain.FileArtifact{}, apierrors.PayloadTooLargeError(name, limit)
	}

	f, err := fh.Open()
	if err != nil {
		return domain.FileArtifact{}, apierrors.InvalidRequestWithError(err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return domain.FileArtifact{}, apierrors.InvalidRequestWithError(err)
	}
	return domain.FileArtifact{Name: name, Content: content}, nil
}

// reportDateParam parses the optional report_date form value. A zero
// time tells the service to use today.
func reportDateParam(r *http.Request) (time.Time, *apierrors.APIError) {
	raw := strings.TrimSpace(r.FormValue("report_date"))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, apierrors.ErrValidation("report_date",
			fmt.Sprintf("Invalid date %q, expected YYYY-MM-DD", raw))
	}
	return t, nil
}

// respond streams the produced artifact on success. Failures keep the
// JSON envelope so the caller sees every collected error at once.
func (h *ReportHandler) respond(w http.ResponseWriter, r *http.Request, result domain.Result) {
	if !result.IsSuccess || result.Data == nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, result)
		return
	}

	artifact := *result.Data
	w.Header().Set("Content-Type", artifactMediaType(artifact.Name))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	w.Header().Set("Content-Length", strconv.Itoa(artifact.Size()))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(artifact.Content); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to stream artifact",
			slog.String("artifact", artifact.Name),
			slog.String("error", err.Error()))
	}
}

// artifactMediaType maps an artifact name to its response media type.
func artifactMediaType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zip":
		return config.ContentTypeZip
	case ".xlsx", ".xls":
		return config.ContentTypeXLSX
	default:
		return "application/octet-stream"
	}
}
