package http

import (
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// MetricsHandler serves a JSON snapshot of process-level counters.
// Prometheus scraping happens at the root /metrics endpoint; this is
// the human-facing view.
type MetricsHandler struct {
	startTime time.Time
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{startTime: time.Now()}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetMetrics)
	return r
}

// GetMetrics returns basic runtime metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	render.JSON(w, r, map[string]interface{}{
		"status": "ok",
		"metrics": map[string]interface{}{
			"uptime_seconds":    time.Since(h.startTime).Seconds(),
			"goroutines":        runtime.NumGoroutine(),
			"heap_alloc_bytes":  mem.HeapAlloc,
			"total_alloc_bytes": mem.TotalAlloc,
			"gc_runs":           mem.NumGC,
		},
	})
}
