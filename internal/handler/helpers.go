package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/parkyoonha/searchedia-sub001/internal/domain"
	"github.com/parkyoonha/searchedia-sub001/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var childErr *domain.HasChildFoldersError

	switch {
	case errors.As(err, &childErr):
		httputil.RespondErrorWithExtras(w, childErr.StatusCode(), childErr.Error(), map[string]interface{}{
			"folderId":   childErr.FolderID,
			"childCount": childErr.ChildCount,
		})
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrUnreachable):
		logger.Warn("remote store unreachable", "error", err)
		httputil.RespondError(w, http.StatusServiceUnavailable, "remote store unreachable")
	default:
		logger.Error("request failed", "error", err)
		httputil.RespondError(w, domain.StatusFor(err), "internal server error")
	}
}

// pathID returns the {id} path value, answering 400 when it is missing
func pathID(w http.ResponseWriter, r *http.Request, what string) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, what+" ID is required")
		return "", false
	}
	return id, true
}
