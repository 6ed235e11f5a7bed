package types

import "errors"

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend   string `json:"backend" yaml:"backend"`
	DataDir   string `json:"data_dir" yaml:"data_dir"`
	CacheSize int    `json:"cache_size,omitempty" yaml:"cache_size,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// DefaultCacheSize is the number of canonical groups kept in the store's
// lookup cache when Config.CacheSize is zero.
const DefaultCacheSize = 256

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrCacheSizeInvalid = errors.New("cache size must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.CacheSize < 0 {
		return ErrCacheSizeInvalid
	}
	return nil
}

// GetCacheSize returns the configured cache size or DefaultCacheSize.
func (c Config) GetCacheSize() int {
	if c.CacheSize == 0 {
		return DefaultCacheSize
	}
	return c.CacheSize
}
