// Package seed builds demo workspaces from YAML fixtures and writes them to
// the device cache or to a user's remote rows.
package seed

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
	"github.com/parkyoonha/searchedia-sub001/internal/service/workspace"
)

//go:embed fixtures/*.yaml
var fixtureFiles embed.FS

// DefaultFixture is the embedded fixture used when no file is given
const DefaultFixture = "demo"

// Fixture is a workspace described as a tree of names.
type Fixture struct {
	Folders  []FolderFixture  `yaml:"folders"`
	Projects []ProjectFixture `yaml:"projects"`
}

// FolderFixture is a folder with its nested folders and projects
type FolderFixture struct {
	Name     string           `yaml:"name"`
	Folders  []FolderFixture  `yaml:"folders"`
	Projects []ProjectFixture `yaml:"projects"`
}

// ProjectFixture is a project and its opaque items
type ProjectFixture struct {
	Name  string           `yaml:"name"`
	Items []map[string]any `yaml:"items"`
}

// LoadFixture reads a fixture file, or the embedded fixture of that name
// when path has no such file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		data, err = fixtureFiles.ReadFile(fmt.Sprintf("fixtures/%s.yaml", path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes YAML fixture data
func ParseFixture(data []byte) (*Fixture, error) {
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fixture: %w", err)
	}
	return &fixture, nil
}

// Build creates the fixture's records through state and returns the
// resulting workspace. Parents are created before their children.
func (f *Fixture) Build(state *workspace.State) (models.Snapshot, error) {
	for _, folder := range f.Folders {
		if err := buildFolder(state, folder, nil); err != nil {
			return models.Snapshot{}, err
		}
	}
	for _, project := range f.Projects {
		if err := buildProject(state, project, nil); err != nil {
			return models.Snapshot{}, err
		}
	}
	return state.Snapshot(), nil
}

func buildFolder(state *workspace.State, fixture FolderFixture, parentID *string) error {
	folder, _, err := state.CreateFolder(fixture.Name, parentID)
	if err != nil {
		return fmt.Errorf("folder %q: %w", fixture.Name, err)
	}
	for _, child := range fixture.Folders {
		if err := buildFolder(state, child, &folder.ID); err != nil {
			return err
		}
	}
	for _, project := range fixture.Projects {
		if err := buildProject(state, project, &folder.ID); err != nil {
			return err
		}
	}
	return nil
}

func buildProject(state *workspace.State, fixture ProjectFixture, folderID *string) error {
	project, _, err := state.CreateProject(fixture.Name, folderID)
	if err != nil {
		return fmt.Errorf("project %q: %w", fixture.Name, err)
	}
	if len(fixture.Items) == 0 {
		return nil
	}

	items, err := json.Marshal(fixture.Items)
	if err != nil {
		return fmt.Errorf("project %q items: %w", fixture.Name, err)
	}
	if _, err := state.ReplaceItems(project.ID, items); err != nil {
		return fmt.Errorf("project %q items: %w", fixture.Name, err)
	}
	return nil
}
