package workspace

// Local cache namespaces. Each holds one whole-collection JSON value and all
// of them are cleared together on sign-out.
const (
	NamespaceFolders         = "folders"
	NamespaceProjects        = "projects"
	NamespaceActiveProjectID = "activeProjectId"
	NamespaceViewMode        = "viewMode"
	NamespaceExpandedFolders = "expandedFolders"
)

// Namespaces lists every dataset the device cache holds.
var Namespaces = []string{
	NamespaceFolders,
	NamespaceProjects,
	NamespaceActiveProjectID,
	NamespaceViewMode,
	NamespaceExpandedFolders,
}

// ViewMode is how the project list is laid out.
type ViewMode string

const (
	ViewModeGrid ViewMode = "grid"
	ViewModeList ViewMode = "list"
)

// DefaultViewMode is used when nothing is cached.
const DefaultViewMode = ViewModeGrid

// Valid reports whether m is a known mode.
func (m ViewMode) Valid() bool {
	return m == ViewModeGrid || m == ViewModeList
}

// Preferences are the small device-scoped UI values kept next to the
// workspace in the local cache. They are never sent to the remote store.
type Preferences struct {
	ActiveProjectID *string  `json:"activeProjectId"`
	ViewMode        ViewMode `json:"viewMode"`
	ExpandedFolders []string `json:"expandedFolders"`
}

// OptionalRef tracks tri-state semantics for a nullable reference in a
// PATCH (RFC 7396). Transport-agnostic: handlers map from
// httputil.OptionalString.
//   - Present=false: field absent (don't change)
//   - Present=true, Value=nil: field is null (clear)
//   - Present=true, Value=&"id": set
type OptionalRef struct {
	Present bool
	Value   *string
}

// UpdatePreferencesRequest carries a partial update. Nil fields are left
// alone.
type UpdatePreferencesRequest struct {
	ActiveProjectID OptionalRef // no json tag - mapped from handler DTO
	ViewMode        *ViewMode   `json:"viewMode"`
	ExpandedFolders *[]string   `json:"expandedFolders"`
}
