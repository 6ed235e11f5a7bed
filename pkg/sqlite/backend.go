// Package sqlite provides the public API for the SQLite hierarchy store.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"github.com/charmbracelet/log"

	"github.com/mesh-intelligence/loadout/internal/sqlite"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
// A nil logger discards backend logs.
//
// Example:
//
//	store := sqlite.NewBackend(nil)
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".loadout-db",
//	})
//	defer store.Detach()
func NewBackend(logger *log.Logger) types.Store {
	return sqlite.NewBackend(logger)
}
