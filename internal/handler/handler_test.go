package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkyoonha/searchedia-sub001/internal/domain"
	"github.com/parkyoonha/searchedia-sub001/internal/domain/models"
	ws "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
	wsSvc "github.com/parkyoonha/searchedia-sub001/internal/domain/services/workspace"
	"github.com/parkyoonha/searchedia-sub001/internal/repository/memory"
	"github.com/parkyoonha/searchedia-sub001/internal/service/workspace"
)

type fakeSync struct {
	report *wsSvc.SyncReport
	err    error
}

func (f *fakeSync) SyncAll(context.Context) (*wsSvc.SyncReport, error) { return f.report, f.err }
func (f *fakeSync) Status() wsSvc.Status                                { return wsSvc.Status{Loaded: true} }
func (f *fakeSync) Notifications() []wsSvc.Notification                 { return []wsSvc.Notification{} }

type fakeSessions struct {
	session *models.Session
	tokens  map[string]string
}

func (f *fakeSessions) CurrentSession() *models.Session { return f.session }

func (f *fakeSessions) SignIn(_ context.Context, token string) (*models.Session, error) {
	userID, ok := f.tokens[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	f.session = &models.Session{UserID: userID}
	return f.session, nil
}

func (f *fakeSessions) SignOut(context.Context) error {
	f.session = nil
	return nil
}

type testServer struct {
	router   http.Handler
	state    *workspace.State
	sync     *fakeSync
	sessions *fakeSessions
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	state := workspace.NewState()
	prefs := workspace.NewPreferencesService(workspace.NewLocalStore(memory.NewCache(), logger), state, logger)
	sync := &fakeSync{}
	sessions := &fakeSessions{tokens: map[string]string{"good-token": "alice"}}

	router := NewRouter(Handlers{
		Workspace:   NewWorkspaceHandler(state, logger),
		Sync:        NewSyncHandler(sync, logger),
		Session:     NewSessionHandler(sessions, logger),
		Preferences: NewUserPreferencesHandler(prefs, logger),
		Events:      NewEventsHandler(state, sync, nil, logger),
	})
	return &testServer{router: router, state: state, sync: sync, sessions: sessions}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestWorkspaceRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/folders", map[string]any{"name": "Recipes"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	folder := decode[folderResponse](t, rec).Folder
	assert.Equal(t, "Recipes", folder.Name)

	rec = s.do(t, http.MethodPost, "/api/projects", map[string]any{"name": "P1", "folderId": folder.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	project := decode[projectResponse](t, rec).Project
	require.NotNil(t, project.FolderID)

	rec = s.do(t, http.MethodPost, "/api/projects/"+project.ID+"/items", map[string]any{"items": []any{map[string]any{"id": "i1"}}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/projects/"+project.ID+"/duplicate", map[string]any{"name": "P1 copy"})
	require.Equal(t, http.StatusCreated, rec.Code)
	dup := decode[projectResponse](t, rec)
	assert.Equal(t, []string{"P1", "P1 copy"}, []string{dup.Workspace.Projects[0].Name, dup.Workspace.Projects[1].Name})

	rec = s.do(t, http.MethodGet, "/api/workspace", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[ws.Snapshot](t, rec)
	assert.Len(t, snap.Folders, 1)
	assert.Len(t, snap.Projects, 2)
}

func TestUpdateProject_TriStateFolder(t *testing.T) {
	s := newTestServer(t)
	folder, _, _ := s.state.CreateFolder("F", nil)
	project, _, _ := s.state.CreateProject("P", &folder.ID)

	// Rename only: folder untouched.
	rec := s.do(t, http.MethodPatch, "/api/projects/"+project.ID, map[string]any{"name": "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code)
	got, _ := s.state.Project(project.ID)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.InFolder(folder.ID))

	// Explicit null moves to root.
	rec = s.do(t, http.MethodPatch, "/api/projects/"+project.ID, json.RawMessage(`{"folderId":null}`))
	require.Equal(t, http.StatusOK, rec.Code)
	got, _ = s.state.Project(project.ID)
	assert.Nil(t, got.FolderID)

	rec = s.do(t, http.MethodPatch, "/api/projects/"+project.ID, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/projects/"+project.ID, map[string]any{"folderId": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	recipes, _, _ := s.state.CreateFolder("Recipes", nil)
	_, _, _ = s.state.CreateFolder("Breakfast", &recipes.ID)

	rec := s.do(t, http.MethodDelete, "/api/folders/"+recipes.ID, nil)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	problem := decode[map[string]any](t, rec)
	assert.Equal(t, recipes.ID, problem["folderId"])
	assert.EqualValues(t, 1, problem["childCount"])

	rec = s.do(t, http.MethodDelete, "/api/projects/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/folders", map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/projects/ghost/items", map[string]any{"items": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.sync.err = fmt.Errorf("sync: %w", domain.ErrUnauthorized)
	rec = s.do(t, http.MethodPost, "/api/sync", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	s.sync.err = fmt.Errorf("sync: %w", domain.ErrUnreachable)
	rec = s.do(t, http.MethodPost, "/api/sync", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSyncRoute(t *testing.T) {
	s := newTestServer(t)
	s.sync.report = &wsSvc.SyncReport{UserID: "alice", FoldersUpserted: 2}

	rec := s.do(t, http.MethodPost, "/api/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode[wsSvc.SyncReport](t, rec)
	assert.Equal(t, 2, report.FoldersUpserted)

	rec = s.do(t, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[wsSvc.Status](t, rec).Loaded)

	rec = s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/session", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/session", map[string]any{"accessToken": "bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[models.Session](t, rec).UserID)

	rec = s.do(t, http.MethodDelete, "/api/session", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, s.sessions.session)
}

func TestPreferencesRoutes(t *testing.T) {
	s := newTestServer(t)
	project, _, _ := s.state.CreateProject("P", nil)

	rec := s.do(t, http.MethodGet, "/api/preferences", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	prefs := decode[ws.Preferences](t, rec)
	assert.Equal(t, ws.ViewModeGrid, prefs.ViewMode)
	assert.Nil(t, prefs.ActiveProjectID)

	rec = s.do(t, http.MethodPatch, "/api/preferences", map[string]any{
		"activeProjectId": project.ID,
		"viewMode":        "list",
		"expandedFolders": []string{"f1"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	prefs = decode[ws.Preferences](t, rec)
	require.NotNil(t, prefs.ActiveProjectID)
	assert.Equal(t, project.ID, *prefs.ActiveProjectID)
	assert.Equal(t, ws.ViewModeList, prefs.ViewMode)
	assert.Equal(t, []string{"f1"}, prefs.ExpandedFolders)

	// Absent fields are left alone; null clears.
	rec = s.do(t, http.MethodPatch, "/api/preferences", json.RawMessage(`{"activeProjectId":null}`))
	require.Equal(t, http.StatusOK, rec.Code)
	prefs = decode[ws.Preferences](t, rec)
	assert.Nil(t, prefs.ActiveProjectID)
	assert.Equal(t, ws.ViewModeList, prefs.ViewMode)

	rec = s.do(t, http.MethodPatch, "/api/preferences", map[string]any{"viewMode": "carousel"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/api/preferences", map[string]any{"activeProjectId": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsStream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)

	readEvent := func() (string, string) {
		var name, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimSuffix(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "" && name != "":
				return name, data
			}
		}
	}

	name, _ := readEvent()
	assert.Equal(t, "status", name)

	folder, _, err := s.state.CreateFolder("Live", nil)
	require.NoError(t, err)

	name, data := readEvent()
	assert.Equal(t, "change", name)
	var ev wsSvc.ChangeEvent
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	require.Len(t, ev.Upserted, 1)
	assert.Equal(t, folder.ID, ev.Upserted[0].ID)

	s.state.Reset()
	name, data = readEvent()
	assert.Equal(t, "change", name)
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.True(t, ev.Reloaded)
}

func TestSignIn_EmptyBody(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/session", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "accessToken is required")
}
