package types

import (
	"context"
	"errors"
)

// Filter selects entities in Table.Fetch. Keys are table specific; unknown
// keys are ignored and values of the wrong type return ErrInvalidFilter.
type Filter map[string]any

// Table provides uniform document operations for a single entity type within
// one user's namespace. Get and Fetch return any; callers type-assert to the
// concrete entity struct.
type Table interface {
	// Get retrieves the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Get(ctx context.Context, id string) (any, error)

	// Set creates or replaces an entity. When id is empty the table derives
	// one (the entity's own ID, a slug, or a new UUID v7). Returns the ID used.
	Set(ctx context.Context, id string, data any) (string, error)

	// Update changes only the named fields of an existing entity.
	// Returns ErrNotFound if the entity does not exist and ErrInvalidData if
	// a field is unknown or carries a value of the wrong type.
	Update(ctx context.Context, id string, fields map[string]any) error

	// Delete removes the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Delete(ctx context.Context, id string) error

	// Fetch returns all entities matching the filter in store order. An
	// empty filter returns every entity in the table.
	Fetch(ctx context.Context, filter Filter) ([]any, error)
}

// Table operation errors.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrInvalidFilter = errors.New("invalid filter value type")
	ErrDuplicateBook = errors.New("book already in library")
)

// Entity method errors.
var (
	ErrInvalidState      = errors.New("invalid status value")
	ErrInvalidRating     = errors.New("rating must be between 0 and 5 in half steps")
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidTransition = errors.New("invalid transition")
)
