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

// PostgresProjectRemote implements the ProjectRemote interface
type PostgresProjectRemote struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewProjectRemote creates a new project remote store
func NewProjectRemote(config *postgres.RepositoryConfig) wsRepo.ProjectRemote {
	return &PostgresProjectRemote{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// LoadAll retrieves every project owned by userID, oldest first
func (r *PostgresProjectRemote) LoadAll(ctx context.Context, userID string) ([]models.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, name, folder_id, items, created_at, updated_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, r.tables.Projects)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, postgres.Classify("load projects", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var (
			project models.Project
			items   []byte
		)
		err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.FolderID,
			&items,
			&project.CreatedAt,
			&project.UpdatedAt,
		)
		if err != nil {
			return nil, postgres.Classify("scan project", err)
		}
		project.Items = items
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, postgres.Classify("iterate projects", err)
	}

	return projects, nil
}

// ListIDs retrieves the ids of every project owned by userID
func (r *PostgresProjectRemote) ListIDs(ctx context.Context, userID string) ([]string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE user_id = $1`, r.tables.Projects)
	return listIDs(ctx, postgres.GetExecutor(ctx, r.pool), query, userID, "project")
}

// Upsert inserts the project or replaces every column of the existing row.
// Rows owned by another user are left untouched.
func (r *PostgresProjectRemote) Upsert(ctx context.Context, project *models.Project, userID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (id, user_id, name, items, folder_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			items = EXCLUDED.items,
			folder_id = EXCLUDED.folder_id,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
		WHERE %[1]s.user_id = EXCLUDED.user_id
	`, r.tables.Projects)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		project.ID,
		userID,
		project.Name,
		string(project.ItemsOrEmpty()),
		project.FolderID,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return postgres.Classify(fmt.Sprintf("upsert project %s", project.ID), err)
	}

	if result.RowsAffected() == 0 {
		r.logger.Warn("project upsert skipped, id owned by another user", "project_id", project.ID)
	}

	return nil
}

// Delete removes the project row if userID owns it
func (r *PostgresProjectRemote) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.tables.Projects)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return postgres.Classify(fmt.Sprintf("delete project %s", id), err)
	}

	if result.RowsAffected() == 0 {
		r.logger.Debug("project delete matched no row", "project_id", id)
	}

	return nil
}
