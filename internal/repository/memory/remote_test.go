package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkyoonha/searchedia-sub001/internal/domain"
	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
)

func TestRemote_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	r := NewRemote()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Folders().Upsert(ctx, &models.Folder{ID: "f2", Name: "B", CreatedAt: base.Add(time.Hour)}, "alice"))
	require.NoError(t, r.Folders().Upsert(ctx, &models.Folder{ID: "f1", Name: "A", CreatedAt: base}, "alice"))
	require.NoError(t, r.Folders().Upsert(ctx, &models.Folder{ID: "f3", Name: "C", CreatedAt: base}, "bob"))

	folders, err := r.Folders().LoadAll(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, folders, 2)
	assert.Equal(t, "f1", folders[0].ID, "oldest first")
	assert.Equal(t, "f2", folders[1].ID)

	ids, err := r.Folders().ListIDs(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"f3"}, ids)

	// Another owner can neither overwrite nor delete the row.
	require.NoError(t, r.Folders().Upsert(ctx, &models.Folder{ID: "f3", Name: "hijack"}, "alice"))
	require.NoError(t, r.Folders().Delete(ctx, "f3", "alice"))
	bobs := r.FolderRows("bob")
	require.Len(t, bobs, 1)
	assert.Equal(t, "C", bobs[0].Name)
}

func TestRemote_ProjectUpsertReplacesRow(t *testing.T) {
	ctx := context.Background()
	r := NewRemote()

	p := models.Project{ID: "p1", Name: "One", Items: []byte(`[1]`)}
	require.NoError(t, r.Projects().Upsert(ctx, &p, "u"))
	p.Name = "Renamed"
	p.Items = []byte(`[1,2]`)
	require.NoError(t, r.Projects().Upsert(ctx, &p, "u"))

	rows := r.ProjectRows("u")
	require.Len(t, rows, 1)
	assert.Equal(t, "Renamed", rows[0].Name)
	assert.JSONEq(t, `[1,2]`, string(rows[0].Items))
	assert.Equal(t, 2, r.Calls("projects.upsert"))

	require.NoError(t, r.Projects().Delete(ctx, "p1", "u"))
	assert.Empty(t, r.ProjectRows("u"))
}

func TestRemote_FailureInjection(t *testing.T) {
	ctx := context.Background()
	r := NewRemote()

	r.SetFailure(errors.New("offline"))
	_, err := r.Projects().LoadAll(ctx, "u")
	assert.ErrorIs(t, err, domain.ErrUnreachable)

	r.SetFailure(nil)
	r.FailRecord(models.EntityProject, "bad", errors.New("rejected"))
	err = r.Projects().Upsert(ctx, &models.Project{ID: "bad"}, "u")
	assert.ErrorIs(t, err, domain.ErrUnreachable)
	require.NoError(t, r.Projects().Upsert(ctx, &models.Project{ID: "good"}, "u"))

	r.FailRecord(models.EntityProject, "bad", nil)
	require.NoError(t, r.Projects().Upsert(ctx, &models.Project{ID: "bad"}, "u"))
}

func TestRemote_BlockHonorsContext(t *testing.T) {
	r := NewRemote()
	release := r.Block()
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Folders().LoadAll(ctx, "u")
	assert.ErrorIs(t, err, domain.ErrUnreachable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRemote_BlockRelease(t *testing.T) {
	r := NewRemote()
	release := r.Block()

	done := make(chan error, 1)
	go func() {
		_, err := r.Folders().LoadAll(context.Background(), "u")
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("call returned while blocked")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("call did not resume after release")
	}
}

func TestRemote_BlockOpsOnlyStallsNamedOps(t *testing.T) {
	r := NewRemote()
	release := r.BlockOps("projects.list_ids")
	defer release()

	_, err := r.Folders().ListIDs(context.Background(), "u")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := r.Projects().ListIDs(context.Background(), "u")
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("blocked op returned before release")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("op did not resume after release")
	}
}

func TestCache_GetMissing(t *testing.T) {
	c := NewCache()
	_, err := c.Get("folders")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, c.Set("folders", []byte(`[]`)))
	got, err := c.Get("folders")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Len())
}
