package handler

import "net/http"

// Handlers groups every HTTP handler the daemon serves
type Handlers struct {
	Workspace   *WorkspaceHandler
	Sync        *SyncHandler
	Session     *SessionHandler
	Preferences *UserPreferencesHandler
	Events      *EventsHandler
}

// NewRouter registers all routes on a new ServeMux
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", h.Sync.HealthCheck)

	// Workspace
	mux.HandleFunc("GET /api/workspace", h.Workspace.GetWorkspace)

	// Folders
	mux.HandleFunc("POST /api/folders", h.Workspace.CreateFolder)
	mux.HandleFunc("PATCH /api/folders/{id}", h.Workspace.UpdateFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", h.Workspace.DeleteFolder)

	// Projects
	mux.HandleFunc("POST /api/projects", h.Workspace.CreateProject)
	mux.HandleFunc("PATCH /api/projects/{id}", h.Workspace.UpdateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", h.Workspace.DeleteProject)
	mux.HandleFunc("POST /api/projects/{id}/duplicate", h.Workspace.DuplicateProject)
	mux.HandleFunc("POST /api/projects/{id}/items", h.Workspace.AppendItems)
	mux.HandleFunc("PUT /api/projects/{id}/items", h.Workspace.ReplaceItems)

	// Sync engine
	mux.HandleFunc("POST /api/sync", h.Sync.Sync)
	mux.HandleFunc("GET /api/status", h.Sync.GetStatus)
	mux.HandleFunc("GET /api/notifications", h.Sync.ListNotifications)
	mux.HandleFunc("GET /api/events", h.Events.Stream)

	// Session
	mux.HandleFunc("GET /api/session", h.Session.GetSession)
	mux.HandleFunc("POST /api/session", h.Session.SignIn)
	mux.HandleFunc("DELETE /api/session", h.Session.SignOut)

	// Device preferences
	mux.HandleFunc("GET /api/preferences", h.Preferences.GetPreferences)
	mux.HandleFunc("PATCH /api/preferences", h.Preferences.UpdatePreferences)

	return mux
}
