package workspace

import (
	"time"

	ws "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
)

// SyncOp names a remote write.
type SyncOp string

const (
	SyncOpUpsert SyncOp = "upsert"
	SyncOpDelete SyncOp = "delete"
	SyncOpList   SyncOp = "list"
)

// SyncFailure is one record the pass could not write. The record is retried
// by the next pass.
type SyncFailure struct {
	Ref   ws.EntityRef `json:"ref"`
	Op    SyncOp       `json:"op"`
	Error string       `json:"error"`
}

// SyncReport summarises one full reconciliation pass.
type SyncReport struct {
	UserID           string         `json:"userId"`
	StartedAt        time.Time      `json:"startedAt"`
	FinishedAt       time.Time      `json:"finishedAt"`
	Deleted          []ws.EntityRef `json:"deleted"`
	FoldersUpserted  int            `json:"foldersUpserted"`
	ProjectsUpserted int            `json:"projectsUpserted"`
	Failures         []SyncFailure  `json:"failures"`
	// Aborted is set when the session changed mid-pass.
	Aborted bool `json:"aborted"`
}

// OK reports whether every write in the pass succeeded
func (r *SyncReport) OK() bool {
	return !r.Aborted && len(r.Failures) == 0
}

// Status is a point-in-time view of the engine.
type Status struct {
	SignedIn      bool        `json:"signedIn"`
	UserID        string      `json:"userId,omitempty"`
	Loaded        bool        `json:"loaded"`
	Generation    uint64      `json:"generation"`
	PendingWrites int         `json:"pendingWrites"`
	LastSync      *SyncReport `json:"lastSync,omitempty"`
}

// NotificationLevel grades a notification for the UI.
type NotificationLevel string

const (
	NotificationWarning NotificationLevel = "warning"
	NotificationError   NotificationLevel = "error"
)

// Notification is a transient, non-blocking message about a background
// failure (a toast).
type Notification struct {
	ID        string            `json:"id"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	Ref       *ws.EntityRef     `json:"ref,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ChangeEvent is pushed to live subscribers after the workspace changes.
// Reloaded is set when a whole collection was swapped (remote load,
// sign-out) and no per-record refs are listed.
type ChangeEvent struct {
	Upserted []ws.EntityRef `json:"upserted,omitempty"`
	Deleted  []ws.EntityRef `json:"deleted,omitempty"`
	Reloaded bool           `json:"reloaded,omitempty"`
}
