package workspace

import (
	"time"
)

// Folder groups projects. ParentID == nil means the folder sits at the root.
type Folder struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	ParentID  *string   `json:"parentId" db:"parent_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Clone returns a copy that shares no pointers with f.
func (f Folder) Clone() Folder {
	f.ParentID = cloneRef(f.ParentID)
	return f
}

// IsChildOf reports whether f sits directly under the folder with parentID.
func (f Folder) IsChildOf(parentID string) bool {
	return f.ParentID != nil && *f.ParentID == parentID
}

func cloneRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	v := *ref
	return &v
}

// NormalizeRef turns an empty reference into nil (root level).
func NormalizeRef(ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	return cloneRef(ref)
}

// SameRef compares two nullable references by value.
func SameRef(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
