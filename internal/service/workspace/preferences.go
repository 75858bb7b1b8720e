package workspace

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/parkyoonha/searchedia-sub001/internal/config"
	"github.com/parkyoonha/searchedia-sub001/internal/domain"
	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
	wsSvc "github.com/parkyoonha/searchedia-sub001/internal/domain/services/workspace"
)

// preferencesService keeps the device-scoped UI preferences in the local
// cache. They never reach the remote store.
type preferencesService struct {
	local  *LocalStore
	state  *State
	logger *slog.Logger
	mu     sync.Mutex
}

// NewPreferencesService creates a preferences service over local. state is
// used to reject an active project that does not exist.
func NewPreferencesService(local *LocalStore, state *State, logger *slog.Logger) wsSvc.PreferencesService {
	return newPreferencesService(local, state, logger)
}

func newPreferencesService(local *LocalStore, state *State, logger *slog.Logger) *preferencesService {
	return &preferencesService{local: local, state: state, logger: logger}
}

// Get returns the stored preferences with defaults filled in
func (s *preferencesService) Get() (models.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local.LoadPreferences()
}

// Update applies a partial update
func (s *preferencesService) Update(req *models.UpdatePreferencesRequest) (models.Preferences, error) {
	if err := s.validateUpdateRequest(req); err != nil {
		return models.Preferences{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if active := req.ActiveProjectID; active.Present {
		var id *string
		if active.Value != nil {
			trimmed := strings.TrimSpace(*active.Value)
			if _, ok := s.state.Project(trimmed); !ok {
				return models.Preferences{}, fmt.Errorf("active project %s: %w", trimmed, domain.ErrNotFound)
			}
			id = &trimmed
		}
		if err := s.local.SaveActiveProject(id); err != nil {
			return models.Preferences{}, err
		}
	}

	if req.ViewMode != nil {
		if err := s.local.SaveViewMode(*req.ViewMode); err != nil {
			return models.Preferences{}, err
		}
	}

	if req.ExpandedFolders != nil {
		if err := s.local.SaveExpandedFolders(*req.ExpandedFolders); err != nil {
			return models.Preferences{}, err
		}
	}

	return s.local.LoadPreferences()
}

// clearActiveIf forgets the active project when it is one of ids.
func (s *preferencesService) clearActiveIf(ids map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.local.LoadPreferences()
	if err != nil {
		s.logger.Warn("failed to read preferences", "error", err)
		return
	}
	if prefs.ActiveProjectID == nil {
		return
	}
	if _, ok := ids[*prefs.ActiveProjectID]; !ok {
		return
	}
	if err := s.local.SaveActiveProject(nil); err != nil {
		s.logger.Warn("failed to clear active project", "error", err)
		return
	}
	s.logger.Debug("active project cleared", "project_id", *prefs.ActiveProjectID)
}

// validateUpdateRequest validates a preferences update
func (s *preferencesService) validateUpdateRequest(req *models.UpdatePreferencesRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ActiveProjectID, validation.By(func(value interface{}) error {
			ref, _ := value.(models.OptionalRef)
			if ref.Value != nil && strings.TrimSpace(*ref.Value) == "" {
				return fmt.Errorf("cannot be blank; send null to clear")
			}
			return nil
		})),
		validation.Field(&req.ViewMode, validation.By(func(value interface{}) error {
			mode, _ := value.(*models.ViewMode)
			if mode != nil && !mode.Valid() {
				return fmt.Errorf("must be %q or %q", models.ViewModeGrid, models.ViewModeList)
			}
			return nil
		})),
		validation.Field(&req.ExpandedFolders, validation.By(func(value interface{}) error {
			ids, _ := value.(*[]string)
			if ids != nil && len(*ids) > config.MaxExpandedFolders {
				return fmt.Errorf("at most %d folders", config.MaxExpandedFolders)
			}
			return nil
		})),
	)
}
