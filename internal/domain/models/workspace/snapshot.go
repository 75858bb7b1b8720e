package workspace

// EntityKind names one of the two synchronised collections.
type EntityKind string

const (
	EntityFolder  EntityKind = "folder"
	EntityProject EntityKind = "project"
)

// Valid reports whether k is a known kind.
func (k EntityKind) Valid() bool {
	return k == EntityFolder || k == EntityProject
}

// EntityRef identifies a single record.
type EntityRef struct {
	Kind EntityKind `json:"kind"`
	ID   string     `json:"id"`
}

// Snapshot is a deep copy of the workspace at one point in time.
type Snapshot struct {
	Folders  []Folder  `json:"folders"`
	Projects []Project `json:"projects"`
}

// Empty reports whether the snapshot holds no records at all.
func (s Snapshot) Empty() bool {
	return len(s.Folders) == 0 && len(s.Projects) == 0
}

// Clone deep-copies the snapshot. Nil slices become empty ones so the JSON
// encoding is always an array.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Folders:  make([]Folder, len(s.Folders)),
		Projects: make([]Project, len(s.Projects)),
	}
	for i, f := range s.Folders {
		out.Folders[i] = f.Clone()
	}
	for i, p := range s.Projects {
		out.Projects[i] = p.Clone()
	}
	return out
}

// FolderByID returns the folder with id, if present.
func (s Snapshot) FolderByID(id string) (Folder, bool) {
	for _, f := range s.Folders {
		if f.ID == id {
			return f, true
		}
	}
	return Folder{}, false
}

// ProjectByID returns the project with id, if present.
func (s Snapshot) ProjectByID(id string) (Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// FolderIDs returns the set of folder ids.
func (s Snapshot) FolderIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Folders))
	for _, f := range s.Folders {
		ids[f.ID] = struct{}{}
	}
	return ids
}

// ProjectIDs returns the set of project ids.
func (s Snapshot) ProjectIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Projects))
	for _, p := range s.Projects {
		ids[p.ID] = struct{}{}
	}
	return ids
}
