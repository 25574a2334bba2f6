package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/DerekChan65535/pygrays-api/internal/config"
	"github.com/DerekChan65535/pygrays-api/internal/schema"
	"github.com/DerekChan65535/pygrays-api/pkg/contracts"
)

// HealthService answers the health, readiness, liveness and version
// probes. It holds no engine state beyond the loaded configuration.
type HealthService struct {
	cfg       *config.Config
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a new health service
func NewHealthService(cfg *config.Config, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("HealthService initialized",
		slog.String("version", contracts.Version))
	return &HealthService{
		cfg:       cfg,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.Debug("HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services:  make(map[string]interface{}),
	}

	status.Services["config"] = hs.checkConfigHealth()
	status.Services["schemas"] = hs.checkSchemaHealth()

	allReady := true
	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			allReady = false
			break
		}
	}
	if !allReady {
		status.Status = "not_ready"
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":      contracts.Version,
		"data_format":  contracts.DataFormatVersion,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

// checkConfigHealth verifies the processing configuration carries the
// values the report services depend on.
func (hs *HealthService) checkConfigHealth() ServiceHealth {
	if hs.cfg == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "configuration not loaded",
		}
	}
	if len(hs.cfg.Processing.BankAccounts) == 0 {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "no bank accounts configured",
		}
	}
	if hs.cfg.Processing.WarningLimit <= 0 {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "warning limit must be positive",
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: "Configuration is healthy",
	}
}

// checkSchemaHealth verifies the column registry is intact.
func (hs *HealthService) checkSchemaHealth() ServiceHealth {
	for _, sch := range []*schema.Schema{
		schema.AgingImport,
		schema.AgingExport,
		schema.InventoryDropshipImport,
		schema.InventoryDealsImport,
		schema.InventoryMixedExport,
		schema.InventoryWineExport,
	} {
		if sch == nil || len(sch.Fields()) == 0 {
			return ServiceHealth{
				Status:  "not_ready",
				Message: "schema registry incomplete",
			}
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: "Schema registry is healthy",
		Uptime:  time.Since(hs.startTime).String(),
	}
}
