package workspace

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/parkyoonha/searchedia-sub001/internal/config"
	"github.com/parkyoonha/searchedia-sub001/internal/domain"
	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
	wsSvc "github.com/parkyoonha/searchedia-sub001/internal/domain/services/workspace"
)

// Change describes one applied mutation. Observers receive it after the
// state lock has been released. Cascade is set for folder deletes, which
// remove contained projects too.
type Change struct {
	Upserted []models.EntityRef
	Deleted  []models.EntityRef
	Cascade  bool
	Snapshot models.Snapshot
}

// Touches reports whether the change affects the given collection.
func (c Change) Touches(kind models.EntityKind) bool {
	for _, ref := range c.Upserted {
		if ref.Kind == kind {
			return true
		}
	}
	for _, ref := range c.Deleted {
		if ref.Kind == kind {
			return true
		}
	}
	return false
}

// Observer is notified of every mutation. It must not mutate the State.
type Observer func(Change)

// State is the in-memory workspace: the single source of truth for the
// running session. Mutations apply synchronously in caller order.
type State struct {
	mu       sync.RWMutex
	folders  []models.Folder
	projects []models.Project

	obsMu     sync.RWMutex
	observers []Observer

	subsMu  sync.Mutex
	subs    map[int]chan wsSvc.ChangeEvent
	nextSub int

	newID func() string
	now   func() time.Time
}

var (
	_ wsSvc.WorkspaceService = (*State)(nil)
	_ wsSvc.ChangeFeed       = (*State)(nil)
)

// StateOption configures a State
type StateOption func(*State)

// WithIDGenerator replaces uuid.NewString for new records and item ids
func WithIDGenerator(newID func() string) StateOption {
	return func(s *State) { s.newID = newID }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) StateOption {
	return func(s *State) { s.now = now }
}

// NewState creates an empty workspace
func NewState(opts ...StateOption) *State {
	s := &State{
		folders:  []models.Folder{},
		projects: []models.Project{},
		subs:     make(map[int]chan wsSvc.ChangeEvent),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Observe registers fn for every subsequent mutation.
func (s *State) Observe(fn Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *State) notify(change Change) {
	s.obsMu.RLock()
	observers := append([]Observer(nil), s.observers...)
	s.obsMu.RUnlock()

	for _, fn := range observers {
		fn(change)
	}

	s.publish(wsSvc.ChangeEvent{Upserted: change.Upserted, Deleted: change.Deleted})
}

// Subscribe returns a feed of change events and a cancel func that closes
// it. Events are dropped for a subscriber whose buffer is full.
func (s *State) Subscribe(buffer int) (<-chan wsSvc.ChangeEvent, func()) {
	ch := make(chan wsSvc.ChangeEvent, buffer)

	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

// publish never blocks, so it is safe to call with any lock held.
func (s *State) publish(ev wsSvc.ChangeEvent) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Snapshot returns a deep copy of the workspace
func (s *State) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() models.Snapshot {
	return models.Snapshot{Folders: s.folders, Projects: s.projects}.Clone()
}

// Folder returns a copy of the folder with id
func (s *State) Folder(id string) (models.Folder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.folders {
		if f.ID == id {
			return f.Clone(), true
		}
	}
	return models.Folder{}, false
}

// Project returns a copy of the project with id
func (s *State) Project(id string) (models.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projects {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return models.Project{}, false
}

// Has reports whether the record is currently present
func (s *State) Has(ref models.EntityRef) bool {
	switch ref.Kind {
	case models.EntityFolder:
		_, ok := s.Folder(ref.ID)
		return ok
	case models.EntityProject:
		_, ok := s.Project(ref.ID)
		return ok
	}
	return false
}

// Replace swaps the whole workspace without notifying observers. Feed
// subscribers get a reload event.
func (s *State) Replace(snapshot models.Snapshot) {
	snapshot = snapshot.Clone()
	s.mu.Lock()
	s.folders = snapshot.Folders
	s.projects = snapshot.Projects
	s.mu.Unlock()
	s.publish(wsSvc.ChangeEvent{Reloaded: true})
}

// ReplaceFolders swaps the folder collection without notifying observers.
func (s *State) ReplaceFolders(folders []models.Folder) {
	snapshot := models.Snapshot{Folders: folders}.Clone()
	s.mu.Lock()
	s.folders = snapshot.Folders
	s.mu.Unlock()
	s.publish(wsSvc.ChangeEvent{Reloaded: true})
}

// ReplaceProjects swaps the project collection without notifying observers.
func (s *State) ReplaceProjects(projects []models.Project) {
	snapshot := models.Snapshot{Projects: projects}.Clone()
	s.mu.Lock()
	s.projects = snapshot.Projects
	s.mu.Unlock()
	s.publish(wsSvc.ChangeEvent{Reloaded: true})
}

// Reset empties the workspace without notifying observers.
func (s *State) Reset() {
	s.Replace(models.Snapshot{})
}

// CreateFolder appends a new folder. parentID is not checked.
func (s *State) CreateFolder(name string, parentID *string) (models.Folder, models.Snapshot, error) {
	name, err := cleanName(name, config.MaxFolderNameLength)
	if err != nil {
		return models.Folder{}, models.Snapshot{}, err
	}

	folder := models.Folder{
		ID:        s.newID(),
		Name:      name,
		ParentID:  models.NormalizeRef(parentID),
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.folders = append(s.folders, folder)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(Change{
		Upserted: []models.EntityRef{{Kind: models.EntityFolder, ID: folder.ID}},
		Snapshot: snap,
	})
	return folder.Clone(), snap, nil
}

// CreateProject appends a new project with an empty items array.
func (s *State) CreateProject(name string, folderID *string) (models.Project, models.Snapshot, error) {
	name, err := cleanName(name, config.MaxProjectNameLength)
	if err != nil {
		return models.Project{}, models.Snapshot{}, err
	}

	now := s.now().UTC()
	project := models.Project{
		ID:        s.newID(),
		Name:      name,
		FolderID:  models.NormalizeRef(folderID),
		Items:     append(json.RawMessage(nil), models.EmptyItems...),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.projects = append(s.projects, project)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(Change{
		Upserted: []models.EntityRef{{Kind: models.EntityProject, ID: project.ID}},
		Snapshot: snap,
	})
	return project.Clone(), snap, nil
}

// Rename changes the name of a folder or project.
func (s *State) Rename(kind models.EntityKind, id, newName string) (models.Snapshot, error) {
	switch kind {
	case models.EntityFolder:
		name, err := cleanName(newName, config.MaxFolderNameLength)
		if err != nil {
			return models.Snapshot{}, err
		}
		return s.updateFolder(id, func(f *models.Folder) { f.Name = name })
	case models.EntityProject:
		name, err := cleanName(newName, config.MaxProjectNameLength)
		if err != nil {
			return models.Snapshot{}, err
		}
		return s.updateProject(id, func(p *models.Project) error {
			p.Name = name
			return nil
		})
	default:
		return models.Snapshot{}, &domain.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown entity kind %q", kind)}
	}
}

// MoveProject reassigns a project to newFolderID; nil moves it to the root.
func (s *State) MoveProject(projectID string, newFolderID *string) (models.Snapshot, error) {
	folderID := models.NormalizeRef(newFolderID)
	return s.updateProject(projectID, func(p *models.Project) error {
		p.FolderID = folderID
		return nil
	})
}

// AppendItems adds items to the end of a project's items array.
func (s *State) AppendItems(projectID string, items json.RawMessage) (models.Snapshot, error) {
	if err := models.ValidateItems(items); err != nil {
		return models.Snapshot{}, &domain.ValidationError{Field: "items", Message: err.Error()}
	}
	return s.updateProject(projectID, func(p *models.Project) error {
		merged, err := models.ConcatItems(p.Items, items)
		if err != nil {
			return &domain.ValidationError{Field: "items", Message: err.Error()}
		}
		p.Items = merged
		return nil
	})
}

// ReplaceItems overwrites a project's items array.
func (s *State) ReplaceItems(projectID string, items json.RawMessage) (models.Snapshot, error) {
	if err := models.ValidateItems(items); err != nil {
		return models.Snapshot{}, &domain.ValidationError{Field: "items", Message: err.Error()}
	}
	replacement := append(json.RawMessage(nil), items...)
	return s.updateProject(projectID, func(p *models.Project) error {
		p.Items = replacement
		return nil
	})
}

// DuplicateProject copies a project under a new name and inserts the copy
// directly after the source.
func (s *State) DuplicateProject(projectID, newName string) (models.Project, models.Snapshot, error) {
	name, err := cleanName(newName, config.MaxProjectNameLength)
	if err != nil {
		return models.Project{}, models.Snapshot{}, err
	}

	s.mu.Lock()
	idx := s.projectIndexLocked(projectID)
	if idx < 0 {
		s.mu.Unlock()
		return models.Project{}, models.Snapshot{}, fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
	}

	source := s.projects[idx]
	now := s.now().UTC()
	items, err := models.CloneItems(source.Items, s.newID, now)
	if err != nil {
		s.mu.Unlock()
		return models.Project{}, models.Snapshot{}, fmt.Errorf("duplicate project %s: %w", projectID, err)
	}

	dup := models.Project{
		ID:        s.newID(),
		Name:      name,
		FolderID:  models.NormalizeRef(source.FolderID),
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}

	projects := make([]models.Project, 0, len(s.projects)+1)
	projects = append(projects, s.projects[:idx+1]...)
	projects = append(projects, dup)
	projects = append(projects, s.projects[idx+1:]...)
	s.projects = projects
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(Change{
		Upserted: []models.EntityRef{{Kind: models.EntityProject, ID: dup.ID}},
		Snapshot: snap,
	})
	return dup.Clone(), snap, nil
}

// DeleteFolder removes a leaf folder and every project directly inside it.
// A folder with child folders is rejected with *domain.HasChildFoldersError
// and nothing changes.
func (s *State) DeleteFolder(id string) (models.Snapshot, error) {
	s.mu.Lock()
	idx := -1
	children := 0
	for i, f := range s.folders {
		if f.ID == id {
			idx = i
		}
		if f.IsChildOf(id) {
			children++
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return models.Snapshot{}, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	if children > 0 {
		s.mu.Unlock()
		return models.Snapshot{}, &domain.HasChildFoldersError{FolderID: id, ChildCount: children}
	}

	var deleted []models.EntityRef
	kept := make([]models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if p.InFolder(id) {
			deleted = append(deleted, models.EntityRef{Kind: models.EntityProject, ID: p.ID})
			continue
		}
		kept = append(kept, p)
	}
	s.projects = kept
	s.folders = append(s.folders[:idx:idx], s.folders[idx+1:]...)
	deleted = append(deleted, models.EntityRef{Kind: models.EntityFolder, ID: id})
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(Change{Deleted: deleted, Cascade: true, Snapshot: snap})
	return snap, nil
}

// DeleteProject removes a project.
func (s *State) DeleteProject(id string) (models.Snapshot, error) {
	s.mu.Lock()
	idx := s.projectIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.Snapshot{}, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	s.projects = append(s.projects[:idx:idx], s.projects[idx+1:]...)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(Change{
		Deleted:  []models.EntityRef{{Kind: models.EntityProject, ID: id}},
		Snapshot: snap,
	})
	return snap, nil
}

func (s *State) updateFolder(id string, apply func(*models.Folder)) (models.Snapshot, error) {
	s.mu.Lock()
	idx := -1
	for i, f := range s.folders {
		if f.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return models.Snapshot{}, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	updated := s.folders[idx].Clone()
	apply(&updated)
	s.folders[idx] = updated
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(Change{
		Upserted: []models.EntityRef{{Kind: models.EntityFolder, ID: id}},
		Snapshot: snap,
	})
	return snap, nil
}

// updateProject replaces the whole record with a modified copy.
func (s *State) updateProject(id string, apply func(*models.Project) error) (models.Snapshot, error) {
	s.mu.Lock()
	idx := s.projectIndexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return models.Snapshot{}, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}

	updated := s.projects[idx].Clone()
	if err := apply(&updated); err != nil {
		s.mu.Unlock()
		return models.Snapshot{}, err
	}
	updated.UpdatedAt = s.now().UTC()
	s.projects[idx] = updated
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(Change{
		Upserted: []models.EntityRef{{Kind: models.EntityProject, ID: id}},
		Snapshot: snap,
	})
	return snap, nil
}

func (s *State) projectIndexLocked(id string) int {
	for i, p := range s.projects {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// cleanName trims and validates a display name.
func cleanName(name string, maxLen int) (string, error) {
	name = strings.TrimSpace(name)
	err := validation.Validate(name,
		validation.Required.Error("name cannot be empty"),
		validation.RuneLength(1, maxLen),
	)
	if err != nil {
		return "", &domain.ValidationError{Field: "name", Message: err.Error()}
	}
	return name, nil
}
