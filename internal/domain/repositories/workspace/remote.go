package workspace

import (
	"context"

	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
)

// FolderRemote is the remote, owner-scoped folders collection.
//
// Every method may be slow or never return; callers bound latency
// themselves. Network and auth failures are wrapped with
// domain.ErrUnreachable.
type FolderRemote interface {
	// LoadAll returns every folder owned by userID, oldest first
	LoadAll(ctx context.Context, userID string) ([]models.Folder, error)

	// ListIDs returns the ids of every folder owned by userID
	ListIDs(ctx context.Context, userID string) ([]string, error)

	// Upsert inserts or wholly replaces the folder row (last write wins)
	Upsert(ctx context.Context, folder *models.Folder, userID string) error

	// Delete removes the row if userID owns it; otherwise it is a no-op
	Delete(ctx context.Context, id, userID string) error
}

// ProjectRemote is the remote, owner-scoped projects collection.
// Same contract as FolderRemote.
type ProjectRemote interface {
	LoadAll(ctx context.Context, userID string) ([]models.Project, error)
	ListIDs(ctx context.Context, userID string) ([]string, error)
	Upsert(ctx context.Context, project *models.Project, userID string) error
	Delete(ctx context.Context, id, userID string) error
}
