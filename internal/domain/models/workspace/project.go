package workspace

import (
	"bytes"
	"encoding/json"
	"time"
)

// EmptyItems is the payload of a freshly created project.
var EmptyItems = json.RawMessage(`[]`)

// Project is a named container for an ordered, opaque list of content items.
// Items is owned by the content collaborator and stored as a single JSON blob.
type Project struct {
	ID        string          `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	FolderID  *string         `json:"folderId" db:"folder_id"`
	Items     json.RawMessage `json:"items" db:"items"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// Clone returns a copy that shares no memory with p.
func (p Project) Clone() Project {
	p.FolderID = cloneRef(p.FolderID)
	if p.Items != nil {
		p.Items = append(json.RawMessage(nil), p.Items...)
	}
	return p
}

// InFolder reports whether p sits directly in the folder with folderID.
func (p Project) InFolder(folderID string) bool {
	return p.FolderID != nil && *p.FolderID == folderID
}

// ItemsOrEmpty returns the items payload, substituting an empty array for
// a missing one so the remote column never receives NULL.
func (p Project) ItemsOrEmpty() json.RawMessage {
	if len(bytes.TrimSpace(p.Items)) == 0 || bytes.Equal(bytes.TrimSpace(p.Items), []byte("null")) {
		return EmptyItems
	}
	return p.Items
}
