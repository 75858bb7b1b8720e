package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/parkyoonha/searchedia-sub001/internal/domain"
	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
	wsRepo "github.com/parkyoonha/searchedia-sub001/internal/domain/repositories/workspace"
)

// LocalStore is the typed view of the device cache. Every namespace holds a
// whole-collection JSON value.
type LocalStore struct {
	cache  wsRepo.LocalCache
	logger *slog.Logger
}

// NewLocalStore wraps cache
func NewLocalStore(cache wsRepo.LocalCache, logger *slog.Logger) *LocalStore {
	return &LocalStore{cache: cache, logger: logger}
}

// LoadWorkspace reads both collections. Missing namespaces load as empty.
func (l *LocalStore) LoadWorkspace() (models.Snapshot, error) {
	var snap models.Snapshot
	if err := l.get(models.NamespaceFolders, &snap.Folders); err != nil {
		return models.Snapshot{}, err
	}
	if err := l.get(models.NamespaceProjects, &snap.Projects); err != nil {
		return models.Snapshot{}, err
	}
	return snap.Clone(), nil
}

// SaveWorkspace writes both collections
func (l *LocalStore) SaveWorkspace(snap models.Snapshot) error {
	if err := l.SaveFolders(snap.Folders); err != nil {
		return err
	}
	return l.SaveProjects(snap.Projects)
}

// SaveFolders writes the folder collection
func (l *LocalStore) SaveFolders(folders []models.Folder) error {
	if folders == nil {
		folders = []models.Folder{}
	}
	return l.set(models.NamespaceFolders, folders)
}

// SaveProjects writes the project collection
func (l *LocalStore) SaveProjects(projects []models.Project) error {
	if projects == nil {
		projects = []models.Project{}
	}
	return l.set(models.NamespaceProjects, projects)
}

// LoadPreferences reads the UI preferences, filling defaults.
func (l *LocalStore) LoadPreferences() (models.Preferences, error) {
	prefs := models.Preferences{ViewMode: models.DefaultViewMode, ExpandedFolders: []string{}}
	if err := l.get(models.NamespaceActiveProjectID, &prefs.ActiveProjectID); err != nil {
		return models.Preferences{}, err
	}
	if err := l.get(models.NamespaceViewMode, &prefs.ViewMode); err != nil {
		return models.Preferences{}, err
	}
	if err := l.get(models.NamespaceExpandedFolders, &prefs.ExpandedFolders); err != nil {
		return models.Preferences{}, err
	}
	if !prefs.ViewMode.Valid() {
		prefs.ViewMode = models.DefaultViewMode
	}
	if prefs.ExpandedFolders == nil {
		prefs.ExpandedFolders = []string{}
	}
	return prefs, nil
}

// SaveActiveProject stores the active project; nil removes the key.
func (l *LocalStore) SaveActiveProject(id *string) error {
	if id == nil {
		return l.remove(models.NamespaceActiveProjectID)
	}
	return l.set(models.NamespaceActiveProjectID, *id)
}

// SaveViewMode stores the layout mode
func (l *LocalStore) SaveViewMode(mode models.ViewMode) error {
	return l.set(models.NamespaceViewMode, mode)
}

// SaveExpandedFolders stores the expanded folder ids
func (l *LocalStore) SaveExpandedFolders(ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return l.set(models.NamespaceExpandedFolders, ids)
}

// Clear removes every namespace
func (l *LocalStore) Clear() error {
	if err := l.cache.Clear(); err != nil {
		return fmt.Errorf("clear local cache: %w", err)
	}
	return nil
}

func (l *LocalStore) get(namespace string, dst any) error {
	raw, err := l.cache.Get(namespace)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s from local cache: %w", namespace, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s from local cache: %w", namespace, err)
	}
	return nil
}

func (l *LocalStore) set(namespace string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", namespace, err)
	}
	if err := l.cache.Set(namespace, raw); err != nil {
		return fmt.Errorf("write %s to local cache: %w", namespace, err)
	}
	return nil
}

func (l *LocalStore) remove(namespace string) error {
	if err := l.cache.Remove(namespace); err != nil {
		return fmt.Errorf("remove %s from local cache: %w", namespace, err)
	}
	return nil
}
