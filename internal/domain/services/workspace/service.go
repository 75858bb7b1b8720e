package workspace

import (
	"context"
	"encoding/json"

	"github.com/parkyoonha/searchedia-sub001/internal/domain/models"
	ws "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
)

// CreateFolderRequest represents a request to create a folder
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

// UpdateFolderRequest renames a folder
type UpdateFolderRequest struct {
	Name string `json:"name"`
}

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	Name     string  `json:"name"`
	FolderID *string `json:"folderId"`
}

// UpdateProjectRequest carries a rename and/or a move.
// FolderID is tri-state: absent = stay, null = move to root, value = move.
type UpdateProjectRequest struct {
	Name     *string
	FolderID ws.OptionalRef
}

// DuplicateProjectRequest names the copy
type DuplicateProjectRequest struct {
	Name string `json:"name"`
}

// ItemsRequest carries an opaque items array from the content collaborator
type ItemsRequest struct {
	Items json.RawMessage `json:"items"`
}

// SessionRequest signs in with a Supabase access token
type SessionRequest struct {
	AccessToken string `json:"accessToken"`
}

// WorkspaceService is the mutation surface over the in-memory workspace.
// Every call applies synchronously and returns the resulting snapshot;
// persistence happens afterwards.
type WorkspaceService interface {
	Snapshot() ws.Snapshot
	CreateFolder(name string, parentID *string) (ws.Folder, ws.Snapshot, error)
	CreateProject(name string, folderID *string) (ws.Project, ws.Snapshot, error)
	Rename(kind ws.EntityKind, id, newName string) (ws.Snapshot, error)
	MoveProject(projectID string, newFolderID *string) (ws.Snapshot, error)
	DuplicateProject(projectID, newName string) (ws.Project, ws.Snapshot, error)
	DeleteFolder(id string) (ws.Snapshot, error)
	DeleteProject(id string) (ws.Snapshot, error)
	AppendItems(projectID string, items json.RawMessage) (ws.Snapshot, error)
	ReplaceItems(projectID string, items json.RawMessage) (ws.Snapshot, error)
}

// SyncService exposes the reconciliation engine to the API.
type SyncService interface {
	// SyncAll runs one full reconciliation pass for the signed-in user
	SyncAll(ctx context.Context) (*SyncReport, error)

	// Status reports the engine's session and queue state
	Status() Status

	// Notifications returns recent background failures, oldest first
	Notifications() []Notification
}

// PreferencesService reads and updates device-scoped UI preferences
type PreferencesService interface {
	Get() (ws.Preferences, error)
	Update(req *ws.UpdatePreferencesRequest) (ws.Preferences, error)
}

// SessionService signs the device in and out
type SessionService interface {
	CurrentSession() *models.Session
	SignIn(ctx context.Context, token string) (*models.Session, error)
	SignOut(ctx context.Context) error
}

// ChangeFeed streams workspace changes to live clients. A subscriber that
// falls behind misses events; every event is a hint to refetch.
type ChangeFeed interface {
	Subscribe(buffer int) (<-chan ChangeEvent, func())
}
