package subsystems

// DataStore is a small durable key/value store used for state that must survive process
// restarts: the last known consent value and the server-issued store payloads.
type DataStore interface {
	// Get returns the value for a key, with false if the key is absent.
	Get(key string) (string, bool)

	// Set writes a value for a key, replacing any existing value.
	Set(key string, value string)

	// Remove deletes a key. Removing an absent key is a no-op.
	Remove(key string)
}
