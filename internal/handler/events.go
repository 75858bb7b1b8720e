package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	wsSvc "github.com/parkyoonha/searchedia-sub001/internal/domain/services/workspace"
	"github.com/parkyoonha/searchedia-sub001/internal/handler/sse"
	"github.com/parkyoonha/searchedia-sub001/internal/httputil"
)

// EventsHandler streams workspace changes to the UI over Server-Sent Events
type EventsHandler struct {
	feed   wsSvc.ChangeFeed
	sync   wsSvc.SyncService
	config *sse.Config
	logger *slog.Logger
}

// NewEventsHandler creates a new events handler; a nil config uses defaults.
func NewEventsHandler(feed wsSvc.ChangeFeed, sync wsSvc.SyncService, config *sse.Config, logger *slog.Logger) *EventsHandler {
	if config == nil {
		config = sse.DefaultConfig()
	}
	return &EventsHandler{feed: feed, sync: sync, config: config, logger: logger}
}

// Stream sends a status event, then one change event per workspace change
// until the client disconnects.
// GET /api/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	clientID := uuid.NewString()

	events, cancel := h.feed.Subscribe(h.config.Buffer)
	defer cancel()

	writer, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	h.logger.Debug("SSE stream established", "client_id", clientID)
	defer h.logger.Debug("SSE stream ended", "client_id", clientID)

	if err := writer.WriteEvent("status", h.sync.Status()); err != nil {
		h.logger.Info("client disconnected during status write", "client_id", clientID, "error", err)
		return
	}

	ticker := time.NewTicker(h.config.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writer.WriteEvent("change", ev); err != nil {
				h.logger.Info("client disconnected during event write", "client_id", clientID, "error", err)
				return
			}

		case <-ticker.C:
			if err := writer.WriteKeepAlive(); err != nil {
				h.logger.Info("client disconnected during keepalive", "client_id", clientID, "error", err)
				return
			}
		}
	}
}
