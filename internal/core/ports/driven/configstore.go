package driven

// ConfigStore provides access to user configuration.
// Backed by a TOML file; keys use dotted paths like "embedding.model".
type ConfigStore interface {
	// Get retrieves a raw configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string configuration value ("" when unset).
	GetString(key string) string

	// GetInt retrieves an integer configuration value (0 when unset).
	GetInt(key string) int

	// GetFloat retrieves a float configuration value (0 when unset).
	GetFloat(key string) float64

	// GetBool retrieves a boolean configuration value (false when unset).
	GetBool(key string) bool

	// Set stores a configuration value.
	Set(key string, value any) error
}
