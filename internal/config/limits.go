package config

import "time"

const (
	// MaxProjectNameLength is the maximum length for project names.
	// Limited to 255 to keep names short and descriptive in the sidebar.
	MaxProjectNameLength = 255

	// MaxFolderNameLength is the maximum length for folder names.
	MaxFolderNameLength = 255

	// MaxExpandedFolders caps the expandedFolders preference.
	MaxExpandedFolders = 1000
)

const (
	// DefaultInitialLoadTimeout bounds the remote side of the sign-in load
	// race. After it fires, whatever the local cache held stands.
	DefaultInitialLoadTimeout = 1500 * time.Millisecond

	// MaxInitialLoadTimeout keeps the UI from waiting on a dead network.
	MaxInitialLoadTimeout = 10 * time.Second

	// DefaultOutboxWorkers is the number of concurrent remote writes.
	DefaultOutboxWorkers = 4

	// NotificationBacklog is how many background notifications are kept.
	NotificationBacklog = 50

	// RemoteWriteTimeout bounds a single outbound write so a hung request
	// cannot pin an outbox worker forever.
	RemoteWriteTimeout = 30 * time.Second
)
