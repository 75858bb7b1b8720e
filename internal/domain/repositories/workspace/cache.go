package workspace

// LocalCache is a synchronous, device-scoped key/value store. Keys are the
// dataset namespaces from models/workspace.
type LocalCache interface {
	// Get returns the stored value, or domain.ErrNotFound if the key is absent
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any previous value
	Set(key string, value []byte) error

	// Remove deletes key; removing an absent key is not an error
	Remove(key string) error

	// Clear deletes every key
	Clear() error
}
