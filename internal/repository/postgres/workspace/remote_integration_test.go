package workspace

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
	"github.com/parkyoonha/searchedia-sub001/internal/repository/postgres"
)

// Runs against a real database only when TEST_DATABASE_URL is set.
func setupRemote(t *testing.T) (*postgres.RepositoryConfig, context.Context) {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	pool, err := postgres.CreateConnectionPool(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	tables := postgres.NewTableNames("it_" + uuid.NewString()[:8] + "_")
	require.NoError(t, postgres.EnsureSchema(ctx, pool, tables, postgres.NewTransactionManager(pool, logger)))
	t.Cleanup(func() {
		_ = postgres.DropSchema(context.Background(), pool, tables)
	})

	return &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}, ctx
}

func TestRemote_RoundTrip(t *testing.T) {
	cfg, ctx := setupRemote(t)
	folders := NewFolderRemote(cfg)
	projects := NewProjectRemote(cfg)

	folder := models.Folder{ID: uuid.NewString(), Name: "Recipes", CreatedAt: time.Now().UTC().Truncate(time.Microsecond)}
	project := models.Project{
		ID:        uuid.NewString(),
		Name:      "P1",
		FolderID:  &folder.ID,
		Items:     json.RawMessage(`[{"id":"i1"}]`),
		CreatedAt: folder.CreatedAt,
		UpdatedAt: folder.CreatedAt,
	}

	require.NoError(t, folders.Upsert(ctx, &folder, "user-a"))
	require.NoError(t, projects.Upsert(ctx, &project, "user-a"))

	gotFolders, err := folders.LoadAll(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, gotFolders, 1)
	assert.Equal(t, "Recipes", gotFolders[0].Name)
	assert.Nil(t, gotFolders[0].ParentID)

	gotProjects, err := projects.LoadAll(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, gotProjects, 1)
	assert.Equal(t, folder.ID, *gotProjects[0].FolderID)
	assert.JSONEq(t, `[{"id":"i1"}]`, string(gotProjects[0].Items))

	// Whole-row replace
	project.Name = "P1 renamed"
	project.FolderID = nil
	require.NoError(t, projects.Upsert(ctx, &project, "user-a"))
	gotProjects, err = projects.LoadAll(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, "P1 renamed", gotProjects[0].Name)
	assert.Nil(t, gotProjects[0].FolderID)

	// Another user neither sees nor deletes the rows
	other, err := projects.LoadAll(ctx, "user-b")
	require.NoError(t, err)
	assert.Empty(t, other)
	require.NoError(t, projects.Delete(ctx, project.ID, "user-b"))
	ids, err := projects.ListIDs(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, []string{project.ID}, ids)

	require.NoError(t, projects.Delete(ctx, project.ID, "user-a"))
	require.NoError(t, folders.Delete(ctx, folder.ID, "user-a"))
	ids, err = folders.ListIDs(ctx, "user-a")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
