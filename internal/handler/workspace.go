package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
	wsSvc "github.com/parkyoonha/searchedia-sub001/internal/domain/services/workspace"
	"github.com/parkyoonha/searchedia-sub001/internal/httputil"
)

// WorkspaceHandler handles folder and project HTTP requests. Every mutation
// answers with the resulting snapshot; persistence happens in the background.
type WorkspaceHandler struct {
	workspace wsSvc.WorkspaceService
	logger    *slog.Logger
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(workspace wsSvc.WorkspaceService, logger *slog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspace: workspace,
		logger:    logger,
	}
}

// folderResponse is a created folder plus the workspace it now lives in
type folderResponse struct {
	Folder    models.Folder   `json:"folder"`
	Workspace models.Snapshot `json:"workspace"`
}

// projectResponse is a created project plus the workspace it now lives in
type projectResponse struct {
	Project   models.Project  `json:"project"`
	Workspace models.Snapshot `json:"workspace"`
}

// updateProjectBody is the PATCH DTO; folderId is tri-state
type updateProjectBody struct {
	Name     *string             `json:"name"`
	FolderID httputil.OptionalID `json:"folderId"`
}

// GetWorkspace returns every folder and project
// GET /api/workspace
func (h *WorkspaceHandler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.workspace.Snapshot())
}

// CreateFolder creates a new folder
// POST /api/folders
func (h *WorkspaceHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req wsSvc.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	folder, snap, err := h.workspace.CreateFolder(req.Name, req.ParentID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folderResponse{Folder: folder, Workspace: snap})
}

// UpdateFolder renames a folder
// PATCH /api/folders/{id}
func (h *WorkspaceHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Folder")
	if !ok {
		return
	}

	var req wsSvc.UpdateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snap, err := h.workspace.Rename(models.EntityFolder, id, req.Name)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, snap)
}

// DeleteFolder deletes a leaf folder and the projects directly inside it.
// Returns 412 if the folder still has child folders.
// DELETE /api/folders/{id}
func (h *WorkspaceHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Folder")
	if !ok {
		return
	}

	snap, err := h.workspace.DeleteFolder(id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, snap)
}

// CreateProject creates a new project
// POST /api/projects
func (h *WorkspaceHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req wsSvc.CreateProjectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	project, snap, err := h.workspace.CreateProject(req.Name, req.FolderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, projectResponse{Project: project, Workspace: snap})
}

// UpdateProject renames and/or moves a project
// PATCH /api/projects/{id}
func (h *WorkspaceHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Project")
	if !ok {
		return
	}

	var body updateProjectBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req := wsSvc.UpdateProjectRequest{
		Name:     body.Name,
		FolderID: body.FolderID.Ref(),
	}
	if req.Name == nil && !req.FolderID.Present {
		httputil.RespondError(w, http.StatusBadRequest, "Nothing to update")
		return
	}
	if v := req.FolderID.Value; v != nil && *v == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folderId cannot be blank; send null to move to the root")
		return
	}

	snap := h.workspace.Snapshot()
	var err error
	if req.Name != nil {
		if snap, err = h.workspace.Rename(models.EntityProject, id, *req.Name); err != nil {
			handleError(w, h.logger, err)
			return
		}
	}
	if req.FolderID.Present {
		if snap, err = h.workspace.MoveProject(id, req.FolderID.Value); err != nil {
			handleError(w, h.logger, err)
			return
		}
	}

	httputil.RespondJSON(w, http.StatusOK, snap)
}

// DuplicateProject copies a project next to the original
// POST /api/projects/{id}/duplicate
func (h *WorkspaceHandler) DuplicateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Project")
	if !ok {
		return
	}

	var req wsSvc.DuplicateProjectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	project, snap, err := h.workspace.DuplicateProject(id, req.Name)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, projectResponse{Project: project, Workspace: snap})
}

// AppendItems appends content items to a project
// POST /api/projects/{id}/items
func (h *WorkspaceHandler) AppendItems(w http.ResponseWriter, r *http.Request) {
	h.writeItems(w, r, h.workspace.AppendItems)
}

// ReplaceItems overwrites a project's content items
// PUT /api/projects/{id}/items
func (h *WorkspaceHandler) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	h.writeItems(w, r, h.workspace.ReplaceItems)
}

func (h *WorkspaceHandler) writeItems(
	w http.ResponseWriter,
	r *http.Request,
	apply func(string, json.RawMessage) (models.Snapshot, error),
) {
	id, ok := pathID(w, r, "Project")
	if !ok {
		return
	}

	var req wsSvc.ItemsRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	snap, err := apply(id, req.Items)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, snap)
}

// DeleteProject deletes a project
// DELETE /api/projects/{id}
func (h *WorkspaceHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "Project")
	if !ok {
		return
	}

	snap, err := h.workspace.DeleteProject(id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, snap)
}
