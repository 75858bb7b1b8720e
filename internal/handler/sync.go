package handler

import (
	"log/slog"
	"net/http"

	wsSvc "github.com/parkyoonha/searchedia-sub001/internal/domain/services/workspace"
	"github.com/parkyoonha/searchedia-sub001/internal/httputil"
)

// SyncHandler exposes the reconciliation engine
type SyncHandler struct {
	sync   wsSvc.SyncService
	logger *slog.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(sync wsSvc.SyncService, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{
		sync:   sync,
		logger: logger,
	}
}

// HealthCheck reports liveness
// GET /health
func (h *SyncHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Sync runs one full reconciliation pass and returns its report.
// Per-record failures are reported in the body, not as an error status.
// POST /api/sync
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	report, err := h.sync.SyncAll(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, report)
}

// GetStatus returns session and queue state
// GET /api/status
func (h *SyncHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.sync.Status())
}

// ListNotifications returns recent background failures
// GET /api/notifications
func (h *SyncHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.sync.Notifications())
}
