// Package sqlite provides the public API for the SQLite library backend.
// It exposes constructors while keeping the implementation internal.
package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/shelfmark/internal/sqlite"
	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend()
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".shelfmark",
//	})
//	defer backend.Detach()
func NewBackend() types.Cupboard {
	return sqlite.NewBackend()
}

// Open creates a backend and attaches it to config in one step.
func Open(config types.Config) (types.Cupboard, error) {
	b := sqlite.NewBackend()
	if err := b.Attach(config); err != nil {
		return nil, fmt.Errorf("attaching %s backend: %w", config.Backend, err)
	}
	return b, nil
}
