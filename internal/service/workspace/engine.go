// Package workspace implements the in-memory workspace and the engine that
// keeps it aligned with the device cache and the per-user remote store.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/parkyoonha/searchedia-sub001/internal/config"
	"github.com/parkyoonha/searchedia-sub001/internal/domain"
	authModels "github.com/parkyoonha/searchedia-sub001/internal/domain/models"
	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
	wsRepo "github.com/parkyoonha/searchedia-sub001/internal/domain/repositories/workspace"
	wsSvc "github.com/parkyoonha/searchedia-sub001/internal/domain/services/workspace"
)

// IdentitySource supplies the current session and its transitions.
type IdentitySource interface {
	CurrentSession() *authModels.Session
	Subscribe(buffer int) (<-chan authModels.AuthEvent, func())
}

// EngineConfig wires an Engine
type EngineConfig struct {
	State    *State
	Cache    wsRepo.LocalCache
	Folders  wsRepo.FolderRemote
	Projects wsRepo.ProjectRemote
	Identity IdentitySource

	InitialLoadTimeout time.Duration
	OutboxWorkers      int
	Logger             *slog.Logger
}

// Engine reconciles State with the local cache and the remote store.
//
// Every sign-in starts a new session generation. Remote results, outbound
// tasks and reconciliation passes carry the generation they started under
// and are dropped once it is no longer current.
type Engine struct {
	state    *State
	local    *LocalStore
	prefs    *preferencesService
	folders  wsRepo.FolderRemote
	projects wsRepo.ProjectRemote
	identity IdentitySource
	outbox   *Outbox
	notes    *notificationLog
	logger   *slog.Logger

	loadTimeout time.Duration
	workers     int

	mu       sync.Mutex
	ctx      context.Context
	gen      uint64
	session  *authModels.Session
	loaded   bool
	loadedCh chan struct{}
	lastSync *wsSvc.SyncReport

	// cancelLoad stops the remote side of the pending initial load.
	cancelLoad context.CancelFunc

	// syncMu serializes reconciliation passes.
	syncMu sync.Mutex

	bgMu   sync.Mutex
	bgRuns int
	bgIdle chan struct{}
}

var _ wsSvc.SyncService = (*Engine)(nil)

// NewEngine creates an engine and registers it as an observer of cfg.State.
func NewEngine(cfg EngineConfig) *Engine {
	timeout := cfg.InitialLoadTimeout
	if timeout <= 0 {
		timeout = config.DefaultInitialLoadTimeout
	}
	workers := cfg.OutboxWorkers
	if workers <= 0 {
		workers = config.DefaultOutboxWorkers
	}

	local := NewLocalStore(cfg.Cache, cfg.Logger)
	e := &Engine{
		state:       cfg.State,
		local:       local,
		prefs:       newPreferencesService(local, cfg.State, cfg.Logger),
		folders:     cfg.Folders,
		projects:    cfg.Projects,
		identity:    cfg.Identity,
		notes:       newNotificationLog(config.NotificationBacklog, time.Now),
		logger:      cfg.Logger,
		loadTimeout: timeout,
		workers:     workers,
		ctx:         context.Background(),
		loadedCh:    make(chan struct{}),
		bgIdle:      closedChan(),
	}
	e.outbox = NewOutbox(e.executeTask, e.onTaskError, cfg.Logger)
	cfg.State.Observe(e.onChange)
	return e
}

// State returns the workspace the engine keeps in sync
func (e *Engine) State() *State { return e.state }

// Preferences returns the device preferences service
func (e *Engine) Preferences() wsSvc.PreferencesService { return e.prefs }

// Run loads the initial session and then follows identity transitions
// until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	events, unsubscribe := e.identity.Subscribe(8)
	defer unsubscribe()

	e.mu.Lock()
	e.ctx = ctx
	e.mu.Unlock()
	e.outbox.Start(ctx, e.workers)

	// Subscribing before reading the current session means a concurrent
	// sign-in shows up as a repeated event, which handleAuthEvent ignores.
	if session := e.identity.CurrentSession(); session != nil {
		e.signIn(session)
	} else {
		e.startAnonymous()
	}

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("sync engine stopped")
			return nil
		case ev := <-events:
			e.handleAuthEvent(ev)
		}
	}
}

func (e *Engine) handleAuthEvent(ev authModels.AuthEvent) {
	current := e.currentUserID()

	switch ev.Type {
	case authModels.AuthEventSignedIn:
		if ev.Session == nil {
			e.logger.Warn("sign-in event without session")
			return
		}
		if current == ev.Session.UserID {
			e.logger.Debug("ignoring repeated sign-in", "user_id", current)
			return
		}
		if current != "" {
			e.teardown()
		}
		e.signIn(ev.Session)
	case authModels.AuthEventSignedOut:
		if current == "" {
			return
		}
		e.teardown()
	default:
		e.logger.Warn("unknown auth event", "type", ev.Type)
	}
}

// startAnonymous runs local-only: the cache is the whole truth and the
// guard is set immediately.
func (e *Engine) startAnonymous() {
	local, err := e.local.LoadWorkspace()
	if err != nil {
		e.logger.Warn("failed to read local cache, starting empty", "error", err)
		local = models.Snapshot{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.session = nil
	e.cancelLoadLocked()
	e.state.Replace(local)
	e.markLoadedLocked()

	e.logger.Info("started without session",
		"generation", e.gen,
		"folders", len(local.Folders),
		"projects", len(local.Projects),
	)
}

// remoteResult is the outcome of the remote side of the initial load.
type remoteResult struct {
	folders     []models.Folder
	foldersErr  error
	projects    []models.Project
	projectsErr error
}

// signIn starts the initial load race for session.
func (e *Engine) signIn(session *authModels.Session) {
	local, err := e.local.LoadWorkspace()
	if err != nil {
		e.logger.Warn("failed to read local cache", "error", err)
		local = models.Snapshot{}
	}

	s := *session
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.cancelLoadLocked()
	ctx, cancel := context.WithCancel(e.ctx)
	e.cancelLoad = cancel
	e.session = &s
	e.loaded = false
	e.loadedCh = make(chan struct{})
	e.lastSync = nil
	if !local.Empty() {
		e.state.Replace(local)
	}
	e.mu.Unlock()

	e.logger.Info("initial load started",
		"user_id", s.UserID,
		"generation", gen,
		"local_folders", len(local.Folders),
		"local_projects", len(local.Projects),
		"timeout", e.loadTimeout,
	)

	timer := time.AfterFunc(e.loadTimeout, func() {
		e.settleInitialLoad(gen, nil)
	})

	go func() {
		result := e.loadRemote(ctx, s.UserID)
		if e.settleInitialLoad(gen, &result) {
			timer.Stop()
		}
	}()
}

// loadRemote fetches both collections concurrently.
func (e *Engine) loadRemote(ctx context.Context, userID string) remoteResult {
	var (
		result remoteResult
		wg     sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		result.folders, result.foldersErr = e.folders.LoadAll(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		result.projects, result.projectsErr = e.projects.LoadAll(ctx, userID)
	}()
	wg.Wait()
	return result
}

// settleInitialLoad applies the first of {remote result, timeout} to arrive
// for generation gen. result is nil when the timeout fired. It reports
// whether this call won the race.
func (e *Engine) settleInitialLoad(gen uint64, result *remoteResult) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen {
		e.logger.Debug("discarding initial load from old session", "generation", gen, "current", e.gen)
		return false
	}
	if e.loaded {
		if result != nil {
			e.logger.Info("discarding late remote result", "generation", gen)
		}
		return false
	}

	if result == nil {
		e.logger.Warn("remote initial load timed out, keeping local data",
			"generation", gen,
			"timeout", e.loadTimeout,
			"error", domain.ErrTimeout,
		)
		timedOut := fmt.Errorf("initial load: %w", domain.ErrTimeout)
		result = &remoteResult{foldersErr: timedOut, projectsErr: timedOut}
	}

	current := e.state.Snapshot()
	var bootstrap []models.EntityRef

	switch {
	case result.foldersErr == nil && len(result.folders) > 0:
		e.state.ReplaceFolders(result.folders)
		e.logger.Info("remote folders adopted", "count", len(result.folders))
	case len(current.Folders) > 0:
		if result.foldersErr != nil {
			e.logger.Warn("remote folders unavailable, uploading local copy", "error", result.foldersErr)
		}
		for _, f := range current.Folders {
			bootstrap = append(bootstrap, models.EntityRef{Kind: models.EntityFolder, ID: f.ID})
		}
	}

	switch {
	case result.projectsErr == nil && len(result.projects) > 0:
		e.state.ReplaceProjects(result.projects)
		e.logger.Info("remote projects adopted", "count", len(result.projects))
	case len(current.Projects) > 0:
		if result.projectsErr != nil {
			e.logger.Warn("remote projects unavailable, uploading local copy", "error", result.projectsErr)
		}
		for _, p := range current.Projects {
			bootstrap = append(bootstrap, models.EntityRef{Kind: models.EntityProject, ID: p.ID})
		}
	}

	if err := e.local.SaveWorkspace(e.state.Snapshot()); err != nil {
		e.logger.Warn("failed to mirror workspace to local cache", "error", err)
	}

	userID := e.session.UserID
	for _, ref := range bootstrap {
		e.outbox.Enqueue(Task{Ref: ref, Op: TaskUpsert, UserID: userID, Generation: gen})
	}

	e.cancelLoadLocked()
	e.markLoadedLocked()
	e.logger.Info("initial load settled",
		"user_id", userID,
		"generation", gen,
		"bootstrap_uploads", len(bootstrap),
	)
	return true
}

// teardown ends the session: queued writes are dropped, the cache and the
// workspace are emptied, and the engine continues local-only.
func (e *Engine) teardown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	var userID string
	if e.session != nil {
		userID = e.session.UserID
	}

	e.gen++
	e.session = nil
	e.lastSync = nil
	e.cancelLoadLocked()
	dropped := e.outbox.DropQueued()
	if err := e.local.Clear(); err != nil {
		e.logger.Warn("failed to clear local cache", "error", err)
	}
	e.state.Reset()
	e.notes.reset()
	e.markLoadedLocked()

	e.logger.Info("session torn down",
		"user_id", userID,
		"generation", e.gen,
		"dropped_writes", dropped,
	)
}

func (e *Engine) cancelLoadLocked() {
	if e.cancelLoad != nil {
		e.cancelLoad()
		e.cancelLoad = nil
	}
}

func (e *Engine) markLoadedLocked() {
	e.loaded = true
	select {
	case <-e.loadedCh:
		e.loadedCh = closedChan()
	default:
		close(e.loadedCh)
	}
}

// onChange is the write-through path for every State mutation.
func (e *Engine) onChange(change Change) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.loaded {
		e.logger.Debug("initial load pending, persistence suppressed",
			"upserted", len(change.Upserted),
			"deleted", len(change.Deleted),
		)
		return
	}

	// Mirror the live state rather than change.Snapshot: a concurrent
	// mutation may already have superseded it.
	current := e.state.Snapshot()
	if change.Touches(models.EntityFolder) {
		if err := e.local.SaveFolders(current.Folders); err != nil {
			e.logger.Warn("failed to write folders to local cache", "error", err)
			e.notes.add(wsSvc.NotificationWarning, "Could not save folders on this device.", nil)
		}
	}
	if change.Touches(models.EntityProject) {
		if err := e.local.SaveProjects(current.Projects); err != nil {
			e.logger.Warn("failed to write projects to local cache", "error", err)
			e.notes.add(wsSvc.NotificationWarning, "Could not save projects on this device.", nil)
		}
	}

	deletedProjects := make(map[string]struct{})
	for _, ref := range change.Deleted {
		if ref.Kind == models.EntityProject {
			deletedProjects[ref.ID] = struct{}{}
		}
	}
	if len(deletedProjects) > 0 {
		e.prefs.clearActiveIf(deletedProjects)
	}

	if e.session == nil {
		return
	}

	userID := e.session.UserID
	for _, ref := range change.Upserted {
		e.outbox.Enqueue(Task{Ref: ref, Op: TaskUpsert, UserID: userID, Generation: e.gen})
	}
	for _, ref := range change.Deleted {
		e.outbox.Enqueue(Task{Ref: ref, Op: TaskDelete, UserID: userID, Generation: e.gen})
	}

	if change.Cascade {
		e.syncInBackgroundLocked("folder delete")
	}
}

// executeTask performs one outbound write. Upserts read the record at run
// time; a record that no longer exists is skipped.
func (e *Engine) executeTask(ctx context.Context, task Task) error {
	if !e.isCurrent(task.Generation) {
		e.logger.Debug("dropping write from old session", "kind", task.Ref.Kind, "id", task.Ref.ID)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, config.RemoteWriteTimeout)
	defer cancel()

	switch task.Op {
	case TaskUpsert:
		return e.upsertRecord(ctx, task.Ref, task.UserID)
	case TaskDelete:
		if e.state.Has(task.Ref) {
			e.logger.Debug("record exists again, skipping delete", "kind", task.Ref.Kind, "id", task.Ref.ID)
			return nil
		}
		return e.deleteRecord(ctx, task.Ref, task.UserID)
	default:
		return fmt.Errorf("unknown task op %q", task.Op)
	}
}

// upsertRecord writes the current value of ref. Missing records are skipped.
func (e *Engine) upsertRecord(ctx context.Context, ref models.EntityRef, userID string) error {
	switch ref.Kind {
	case models.EntityFolder:
		folder, ok := e.state.Folder(ref.ID)
		if !ok {
			return nil
		}
		return e.folders.Upsert(ctx, &folder, userID)
	case models.EntityProject:
		project, ok := e.state.Project(ref.ID)
		if !ok {
			return nil
		}
		return e.projects.Upsert(ctx, &project, userID)
	default:
		return fmt.Errorf("unknown entity kind %q", ref.Kind)
	}
}

func (e *Engine) deleteRecord(ctx context.Context, ref models.EntityRef, userID string) error {
	switch ref.Kind {
	case models.EntityFolder:
		return e.folders.Delete(ctx, ref.ID, userID)
	case models.EntityProject:
		return e.projects.Delete(ctx, ref.ID, userID)
	default:
		return fmt.Errorf("unknown entity kind %q", ref.Kind)
	}
}

// onTaskError turns a failed background write into a notification. State
// is never rolled back.
func (e *Engine) onTaskError(task Task, err error) {
	if !e.isCurrent(task.Generation) {
		return
	}

	ref := task.Ref
	if task.Op == TaskDelete {
		e.notes.add(wsSvc.NotificationError,
			fmt.Sprintf("Could not delete %s from your account. It will be retried on the next sync.", ref.Kind),
			&ref)
		return
	}
	e.notes.add(wsSvc.NotificationWarning,
		fmt.Sprintf("Could not save %s to your account. It will be retried on the next sync.", ref.Kind),
		&ref)
}

func (e *Engine) isCurrent(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.gen
}

func (e *Engine) currentUserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return ""
	}
	return e.session.UserID
}

// WaitLoaded blocks until the current session's initial load has settled.
func (e *Engine) WaitLoaded(ctx context.Context) error {
	e.mu.Lock()
	ch := e.loadedCh
	e.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush blocks until background reconciliation passes and outbound writes
// have drained.
func (e *Engine) Flush(ctx context.Context) error {
	e.bgMu.Lock()
	idle := e.bgIdle
	e.bgMu.Unlock()

	select {
	case <-idle:
	case <-ctx.Done():
		return ctx.Err()
	}
	return e.outbox.Wait(ctx)
}

// Status reports the engine's session and queue state
func (e *Engine) Status() wsSvc.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := wsSvc.Status{
		SignedIn:      e.session != nil,
		Loaded:        e.loaded,
		Generation:    e.gen,
		PendingWrites: e.outbox.Pending(),
		LastSync:      e.lastSync,
	}
	if e.session != nil {
		status.UserID = e.session.UserID
	}
	return status
}

// Notifications returns recent background failures, oldest first
func (e *Engine) Notifications() []wsSvc.Notification {
	return e.notes.list()
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
