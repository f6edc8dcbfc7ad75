package types

import (
	"strings"
	"time"
)

// Category is a user-defined shelf. Its identifier is derived from the name
// at creation and never changes; renaming touches only Name.
type Category struct {
	CategoryID string    `json:"category_id" yaml:"category_id"`
	Name       string    `json:"name" yaml:"name"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// Slug derives a category identifier from a display name: surrounding
// whitespace is dropped, the rest is lowercased, and each run of whitespace
// becomes a single hyphen. "  Cozy Fantasy  " yields "cozy-fantasy".
func Slug(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}

// NewCategory builds a category from user input. Returns ErrInvalidName when
// the trimmed name is empty.
func NewCategory(name string) (*Category, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrInvalidName
	}
	return &Category{
		CategoryID: Slug(trimmed),
		Name:       trimmed,
		CreatedAt:  time.Now(),
	}, nil
}

// Rename changes the display name. The identifier is immutable.
// Returns ErrInvalidName when the trimmed name is empty.
func (c *Category) Rename(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrInvalidName
	}
	c.Name = trimmed
	return nil
}
