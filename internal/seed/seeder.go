package seed

import (
	"context"
	"fmt"
	"log/slog"

	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
	wsRepo "github.com/parkyoonha/searchedia-sub001/internal/domain/repositories/workspace"
	"github.com/parkyoonha/searchedia-sub001/internal/service/workspace"
)

// Seeder writes a built workspace to a target store
type Seeder struct {
	logger *slog.Logger
}

// NewSeeder creates a new seeder
func NewSeeder(logger *slog.Logger) *Seeder {
	return &Seeder{logger: logger}
}

// SeedLocal replaces the cached workspace with snap. Preferences are left
// untouched.
func (s *Seeder) SeedLocal(cache wsRepo.LocalCache, snap models.Snapshot) error {
	if err := workspace.NewLocalStore(cache, s.logger).SaveWorkspace(snap); err != nil {
		return fmt.Errorf("failed to write local cache: %w", err)
	}
	s.logger.Info("seeded local cache", "folders", len(snap.Folders), "projects", len(snap.Projects))
	return nil
}

// SeedRemote upserts every record of snap for userID, folders first.
// Existing rows of that user are left in place; the engine's next
// reconciliation removes whatever the device does not hold.
func (s *Seeder) SeedRemote(
	ctx context.Context,
	folders wsRepo.FolderRemote,
	projects wsRepo.ProjectRemote,
	userID string,
	snap models.Snapshot,
) error {
	for i := range snap.Folders {
		if err := folders.Upsert(ctx, &snap.Folders[i], userID); err != nil {
			return fmt.Errorf("failed to upsert folder %q: %w", snap.Folders[i].Name, err)
		}
		s.logger.Debug("folder seeded", "id", snap.Folders[i].ID, "name", snap.Folders[i].Name)
	}
	for i := range snap.Projects {
		if err := projects.Upsert(ctx, &snap.Projects[i], userID); err != nil {
			return fmt.Errorf("failed to upsert project %q: %w", snap.Projects[i].Name, err)
		}
		s.logger.Debug("project seeded", "id", snap.Projects[i].ID, "name", snap.Projects[i].Name)
	}

	s.logger.Info("seeded remote store",
		"user_id", userID,
		"folders", len(snap.Folders),
		"projects", len(snap.Projects),
	)
	return nil
}
