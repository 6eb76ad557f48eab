package driven

// ConfigStore is a flat key/value view of the configuration. Keys are dotted
// "section.name" paths such as "store.nlist". Layers may overlay a base
// store, so a value read back need not come from the file.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	// GetString returns the value as a string, or "" when unset or not a string.
	GetString(key string) string

	// GetInt returns the value as an int, or 0 when unset or not numeric.
	GetInt(key string) int

	// GetBool returns the value as a bool, or false when unset.
	GetBool(key string) bool

	// GetStringSlice returns a list value, or nil when unset or not a list.
	GetStringSlice(key string) []string

	// Set stores and persists a value.
	Set(key string, value any) error

	// Save writes the current values to the backing file.
	Save() error

	// Load re-reads the backing file.
	Load() error

	// Path returns the backing file path, or "" for stores without one.
	Path() string
}
