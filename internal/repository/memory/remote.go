// Package memory holds in-process implementations of the workspace stores.
//
// Remote behaves like the Postgres remote (owner-scoped rows, whole-row
// upserts, oldest-first loads) and can inject latency, failures and stalls.
// The daemon uses it when REMOTE_BACKEND=memory; tests use it as the fake
// remote.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/parkyoonha/searchedia-sub001/internal/domain"
	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
	wsRepo "github.com/parkyoonha/searchedia-sub001/internal/domain/repositories/workspace"
)

type row[T any] struct {
	owner string
	seq   uint64
	value T
}

// Remote is an in-process remote store for both collections.
type Remote struct {
	mu       sync.Mutex
	folders  map[string]row[models.Folder]
	projects map[string]row[models.Project]
	seq      uint64

	latency  time.Duration
	failAll  error
	failRefs map[models.EntityRef]error
	gate     chan struct{}
	opGates  map[string]chan struct{}

	calls map[string]int
}

// NewRemote creates an empty remote
func NewRemote() *Remote {
	return &Remote{
		folders:  make(map[string]row[models.Folder]),
		projects: make(map[string]row[models.Project]),
		failRefs: make(map[models.EntityRef]error),
		opGates:  make(map[string]chan struct{}),
		calls:    make(map[string]int),
	}
}

// Folders returns the folders collection view
func (r *Remote) Folders() wsRepo.FolderRemote { return folderView{r} }

// Projects returns the projects collection view
func (r *Remote) Projects() wsRepo.ProjectRemote { return projectView{r} }

// SetLatency delays every call by d (respecting ctx cancellation)
func (r *Remote) SetLatency(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latency = d
}

// SetFailure makes every call fail with err wrapped in domain.ErrUnreachable.
// nil clears it.
func (r *Remote) SetFailure(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failAll = err
}

// FailRecord makes writes (upsert and delete) for one record fail.
// nil clears it.
func (r *Remote) FailRecord(kind models.EntityKind, id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := models.EntityRef{Kind: kind, ID: id}
	if err == nil {
		delete(r.failRefs, ref)
		return
	}
	r.failRefs[ref] = err
}

// Block stalls every call until the returned release func is called.
func (r *Remote) Block() (release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gate := make(chan struct{})
	r.gate = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			if r.gate == gate {
				r.gate = nil
			}
			r.mu.Unlock()
			close(gate)
		})
	}
}

// BlockOps stalls calls to the named ops ("projects.list_ids", ...) until
// the returned release func is called.
func (r *Remote) BlockOps(ops ...string) (release func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	gate := make(chan struct{})
	for _, op := range ops {
		r.opGates[op] = gate
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			for _, op := range ops {
				if r.opGates[op] == gate {
					delete(r.opGates, op)
				}
			}
			r.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns how many times op ("folders.upsert", ...) was invoked
func (r *Remote) Calls(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

// SeedFolders stores folders for userID directly, bypassing injection
func (r *Remote) SeedFolders(userID string, folders ...models.Folder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range folders {
		r.seq++
		r.folders[f.ID] = row[models.Folder]{owner: userID, seq: r.seq, value: f.Clone()}
	}
}

// SeedProjects stores projects for userID directly, bypassing injection
func (r *Remote) SeedProjects(userID string, projects ...models.Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range projects {
		r.seq++
		r.projects[p.ID] = row[models.Project]{owner: userID, seq: r.seq, value: p.Clone()}
	}
}

// FolderRows returns the stored folders of userID, oldest first
func (r *Remote) FolderRows(userID string) []models.Folder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ownedRows(r.folders, userID, func(f models.Folder) time.Time { return f.CreatedAt }, models.Folder.Clone)
}

// ProjectRows returns the stored projects of userID, oldest first
func (r *Remote) ProjectRows(userID string) []models.Project {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ownedRows(r.projects, userID, func(p models.Project) time.Time { return p.CreatedAt }, models.Project.Clone)
}

// enter applies injected latency, stalls and failures for one call.
func (r *Remote) enter(ctx context.Context, op string, ref *models.EntityRef) error {
	r.mu.Lock()
	r.calls[op]++
	latency, failAll := r.latency, r.failAll
	gates := []chan struct{}{r.gate, r.opGates[op]}
	var failRef error
	if ref != nil {
		failRef = r.failRefs[*ref]
	}
	r.mu.Unlock()

	for _, gate := range gates {
		if gate == nil {
			continue
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return fmt.Errorf("%s: %w: %w", op, domain.ErrUnreachable, ctx.Err())
		}
	}

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return fmt.Errorf("%s: %w: %w", op, domain.ErrUnreachable, ctx.Err())
		}
	}

	if failAll != nil {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrUnreachable, failAll)
	}
	if failRef != nil {
		return fmt.Errorf("%s %s: %w: %w", op, ref.ID, domain.ErrUnreachable, failRef)
	}
	return nil
}

func ownedRows[T any](rows map[string]row[T], userID string, created func(T) time.Time, clone func(T) T) []T {
	owned := make([]row[T], 0, len(rows))
	for _, r := range rows {
		if r.owner == userID {
			owned = append(owned, r)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		ci, cj := created(owned[i].value), created(owned[j].value)
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return owned[i].seq < owned[j].seq
	})
	out := make([]T, len(owned))
	for i, r := range owned {
		out[i] = clone(r.value)
	}
	return out
}

func ownedIDs[T any](rows map[string]row[T], userID string) []string {
	ids := []string{}
	for id, r := range rows {
		if r.owner == userID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

type folderView struct{ r *Remote }

func (v folderView) LoadAll(ctx context.Context, userID string) ([]models.Folder, error) {
	if err := v.r.enter(ctx, "folders.load", nil); err != nil {
		return nil, err
	}
	return v.r.FolderRows(userID), nil
}

func (v folderView) ListIDs(ctx context.Context, userID string) ([]string, error) {
	if err := v.r.enter(ctx, "folders.list_ids", nil); err != nil {
		return nil, err
	}
	v.r.mu.Lock()
	defer v.r.mu.Unlock()
	return ownedIDs(v.r.folders, userID), nil
}

func (v folderView) Upsert(ctx context.Context, folder *models.Folder, userID string) error {
	if err := v.r.enter(ctx, "folders.upsert", &models.EntityRef{Kind: models.EntityFolder, ID: folder.ID}); err != nil {
		return err
	}
	v.r.mu.Lock()
	defer v.r.mu.Unlock()
	existing, ok := v.r.folders[folder.ID]
	if ok && existing.owner != userID {
		return nil
	}
	seq := existing.seq
	if !ok {
		v.r.seq++
		seq = v.r.seq
	}
	v.r.folders[folder.ID] = row[models.Folder]{owner: userID, seq: seq, value: folder.Clone()}
	return nil
}

func (v folderView) Delete(ctx context.Context, id, userID string) error {
	if err := v.r.enter(ctx, "folders.delete", &models.EntityRef{Kind: models.EntityFolder, ID: id}); err != nil {
		return err
	}
	v.r.mu.Lock()
	defer v.r.mu.Unlock()
	if existing, ok := v.r.folders[id]; ok && existing.owner == userID {
		delete(v.r.folders, id)
	}
	return nil
}

type projectView struct{ r *Remote }

func (v projectView) LoadAll(ctx context.Context, userID string) ([]models.Project, error) {
	if err := v.r.enter(ctx, "projects.load", nil); err != nil {
		return nil, err
	}
	return v.r.ProjectRows(userID), nil
}

func (v projectView) ListIDs(ctx context.Context, userID string) ([]string, error) {
	if err := v.r.enter(ctx, "projects.list_ids", nil); err != nil {
		return nil, err
	}
	v.r.mu.Lock()
	defer v.r.mu.Unlock()
	return ownedIDs(v.r.projects, userID), nil
}

func (v projectView) Upsert(ctx context.Context, project *models.Project, userID string) error {
	if err := v.r.enter(ctx, "projects.upsert", &models.EntityRef{Kind: models.EntityProject, ID: project.ID}); err != nil {
		return err
	}
	v.r.mu.Lock()
	defer v.r.mu.Unlock()
	existing, ok := v.r.projects[project.ID]
	if ok && existing.owner != userID {
		return nil
	}
	seq := existing.seq
	if !ok {
		v.r.seq++
		seq = v.r.seq
	}
	v.r.projects[project.ID] = row[models.Project]{owner: userID, seq: seq, value: project.Clone()}
	return nil
}

func (v projectView) Delete(ctx context.Context, id, userID string) error {
	if err := v.r.enter(ctx, "projects.delete", &models.EntityRef{Kind: models.EntityProject, ID: id}); err != nil {
		return err
	}
	v.r.mu.Lock()
	defer v.r.mu.Unlock()
	if existing, ok := v.r.projects[id]; ok && existing.owner == userID {
		delete(v.r.projects, id)
	}
	return nil
}
