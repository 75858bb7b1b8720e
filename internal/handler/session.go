package handler

import (
	"errors"
	"log/slog"
	"net/http"

	wsSvc "github.com/parkyoonha/searchedia-sub001/internal/domain/services/workspace"
	"github.com/parkyoonha/searchedia-sub001/internal/httputil"
)

// SessionHandler signs the device in and out
type SessionHandler struct {
	sessions wsSvc.SessionService
	logger   *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions wsSvc.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// GetSession returns the signed-in session
// GET /api/session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.CurrentSession()
	if session == nil {
		httputil.RespondError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, session)
}

// SignIn verifies an access token and makes it the device's session.
// Accepts the token in the body or as a Bearer Authorization header.
// POST /api/session
func (h *SessionHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	token := httputil.BearerToken(r)
	if token == "" {
		var req wsSvc.SessionRequest
		err := httputil.ParseJSON(w, r, &req)
		if err != nil && !errors.Is(err, httputil.ErrEmptyBody) {
			httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		token = req.AccessToken
	}
	if token == "" {
		httputil.RespondError(w, http.StatusBadRequest, "accessToken is required")
		return
	}

	session, err := h.sessions.SignIn(r.Context(), token)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, session)
}

// SignOut ends the session and wipes device data
// DELETE /api/session
func (h *SessionHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(r.Context()); err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondNoContent(w)
}
