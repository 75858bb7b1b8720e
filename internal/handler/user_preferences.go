package handler

import (
	"log/slog"
	"net/http"

	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
	wsSvc "github.com/parkyoonha/searchedia-sub001/internal/domain/services/workspace"
	"github.com/parkyoonha/searchedia-sub001/internal/httputil"
)

// UserPreferencesHandler handles device preference HTTP requests
type UserPreferencesHandler struct {
	service wsSvc.PreferencesService
	logger  *slog.Logger
}

// NewUserPreferencesHandler creates a new user preferences handler
func NewUserPreferencesHandler(service wsSvc.PreferencesService, logger *slog.Logger) *UserPreferencesHandler {
	return &UserPreferencesHandler{
		service: service,
		logger:  logger,
	}
}

// updatePreferencesBody is the PATCH DTO; activeProjectId is tri-state
type updatePreferencesBody struct {
	ActiveProjectID httputil.OptionalID `json:"activeProjectId"`
	ViewMode        *models.ViewMode    `json:"viewMode"`
	ExpandedFolders *[]string           `json:"expandedFolders"`
}

// GetPreferences retrieves preferences
// GET /api/preferences
func (h *UserPreferencesHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.service.Get()
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences updates preferences
// PATCH /api/preferences
func (h *UserPreferencesHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var body updatePreferencesBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Map DTO to domain request
	req := models.UpdatePreferencesRequest{
		ActiveProjectID: body.ActiveProjectID.Ref(),
		ViewMode:        body.ViewMode,
		ExpandedFolders: body.ExpandedFolders,
	}

	prefs, err := h.service.Update(&req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, prefs)
}
