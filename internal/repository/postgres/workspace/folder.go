package workspace

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
	wsRepo "github.com/parkyoonha/searchedia-sub001/internal/domain/repositories/workspace"
	"github.com/parkyoonha/searchedia-sub001/internal/repository/postgres"
)

// PostgresFolderRemote implements the FolderRemote interface
type PostgresFolderRemote struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFolderRemote creates a new folder remote store
func NewFolderRemote(config *postgres.RepositoryConfig) wsRepo.FolderRemote {
	return &PostgresFolderRemote{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// LoadAll retrieves every folder owned by userID, oldest first
func (r *PostgresFolderRemote) LoadAll(ctx context.Context, userID string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT id, name, parent_id, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, postgres.Classify("load folders", err)
	}
	defer rows.Close()

	folders := []models.Folder{}
	for rows.Next() {
		var folder models.Folder
		if err := rows.Scan(&folder.ID, &folder.Name, &folder.ParentID, &folder.CreatedAt); err != nil {
			return nil, postgres.Classify("scan folder", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.Classify("iterate folders", err)
	}

	return folders, nil
}

// ListIDs retrieves the ids of every folder owned by userID
func (r *PostgresFolderRemote) ListIDs(ctx context.Context, userID string) ([]string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE user_id = $1`, r.tables.Folders)
	return listIDs(ctx, postgres.GetExecutor(ctx, r.pool), query, userID, "folder")
}

// Upsert inserts the folder or replaces every column of the existing row.
// Rows owned by another user are left untouched.
func (r *PostgresFolderRemote) Upsert(ctx context.Context, folder *models.Folder, userID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (id, user_id, name, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			parent_id = EXCLUDED.parent_id,
			created_at = EXCLUDED.created_at
		WHERE %[1]s.user_id = EXCLUDED.user_id
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		folder.ID,
		userID,
		folder.Name,
		folder.ParentID,
		folder.CreatedAt,
	)
	if err != nil {
		return postgres.Classify(fmt.Sprintf("upsert folder %s", folder.ID), err)
	}

	if result.RowsAffected() == 0 {
		r.logger.Warn("folder upsert skipped, id owned by another user", "folder_id", folder.ID)
	}

	return nil
}

// Delete removes the folder row if userID owns it
func (r *PostgresFolderRemote) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return postgres.Classify(fmt.Sprintf("delete folder %s", id), err)
	}

	if result.RowsAffected() == 0 {
		r.logger.Debug("folder delete matched no row", "folder_id", id)
	}

	return nil
}
