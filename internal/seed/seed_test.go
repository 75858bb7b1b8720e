package seed

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkyoonha/searchedia-sub001/internal/domain"
	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
	"github.com/parkyoonha/searchedia-sub001/internal/repository/memory"
	"github.com/parkyoonha/searchedia-sub001/internal/service/workspace"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadFixture_Embedded(t *testing.T) {
	fixture, err := LoadFixture(DefaultFixture)
	require.NoError(t, err)

	snap, err := fixture.Build(workspace.NewState())
	require.NoError(t, err)

	folderNames := make(map[string]models.Folder)
	for _, f := range snap.Folders {
		folderNames[f.Name] = f
	}
	require.Contains(t, folderNames, "Breakfast")
	require.NotNil(t, folderNames["Breakfast"].ParentID)
	assert.Equal(t, folderNames["Recipes"].ID, *folderNames["Breakfast"].ParentID)
	assert.Nil(t, folderNames["Travel"].ParentID)

	var pancakes models.Project
	for _, p := range snap.Projects {
		if p.Name == "Pancakes" {
			pancakes = p
		}
	}
	require.NotEmpty(t, pancakes.ID)
	assert.True(t, pancakes.InFolder(folderNames["Breakfast"].ID))

	var items []map[string]any
	require.NoError(t, json.Unmarshal(pancakes.Items, &items))
	require.Len(t, items, 2)
	assert.Equal(t, "pancakes-hero", items[0]["id"])
}

func TestParseFixture_InvalidName(t *testing.T) {
	fixture, err := ParseFixture([]byte("folders:\n  - name: \"   \"\n"))
	require.NoError(t, err)

	_, err = fixture.Build(workspace.NewState())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLoadFixture_Missing(t *testing.T) {
	_, err := LoadFixture("does-not-exist")
	assert.Error(t, err)
}

func TestSeeder_LocalAndRemote(t *testing.T) {
	fixture, err := LoadFixture(DefaultFixture)
	require.NoError(t, err)
	snap, err := fixture.Build(workspace.NewState())
	require.NoError(t, err)

	seeder := NewSeeder(testLogger())

	cache := memory.NewCache()
	require.NoError(t, seeder.SeedLocal(cache, snap))
	cached, err := workspace.NewLocalStore(cache, testLogger()).LoadWorkspace()
	require.NoError(t, err)
	assert.Len(t, cached.Folders, len(snap.Folders))
	assert.Len(t, cached.Projects, len(snap.Projects))

	remote := memory.NewRemote()
	require.NoError(t, seeder.SeedRemote(context.Background(), remote.Folders(), remote.Projects(), "alice", snap))
	assert.Len(t, remote.FolderRows("alice"), len(snap.Folders))
	assert.Len(t, remote.ProjectRows("alice"), len(snap.Projects))
	assert.Empty(t, remote.ProjectRows("bob"))
}

func TestSeeder_RemoteFailure(t *testing.T) {
	snap, err := (&Fixture{Projects: []ProjectFixture{{Name: "P"}}}).Build(workspace.NewState())
	require.NoError(t, err)

	remote := memory.NewRemote()
	remote.SetFailure(assert.AnError)

	err = NewSeeder(testLogger()).SeedRemote(context.Background(), remote.Folders(), remote.Projects(), "alice", snap)
	assert.ErrorIs(t, err, domain.ErrUnreachable)
}
