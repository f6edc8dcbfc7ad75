package types

import "errors"

// Cupboard defines the interface for backend-agnostic storage access.
// Every table is scoped to one user, mirroring a users/{uid}/{collection}
// document layout. Callers attach to a backend, open tables per user, and
// detach when done.
type Cupboard interface {
	// GetTable returns the Table for the given user and collection name.
	// Returns ErrInvalidUser if userID is empty and ErrTableNotFound if the
	// name is not a standard table.
	GetTable(userID, name string) (Table, error)

	// Attach connects the Cupboard to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, GetTable returns ErrCupboardDetached.
	Detach() error
}

// Cupboard lifecycle errors.
var (
	ErrCupboardDetached = errors.New("cupboard is detached")
	ErrAlreadyAttached  = errors.New("cupboard is already attached")
	ErrTableNotFound    = errors.New("table not found")
	ErrInvalidUser      = errors.New("user id must not be empty")
)
