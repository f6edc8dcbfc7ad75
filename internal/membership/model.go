// Package membership holds the in-memory snapshot of a user's library and
// derives the shelves it is displayed in.
package membership

import (
	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// Model is an immutable snapshot of books and categories as last fetched
// from the store. Queries are pure projections and return copies, so callers
// can modify results freely. A new Model replaces the old one after every
// mutation; nothing is patched in place.
type Model struct {
	books      []*types.Book
	categories []*types.Category
	bookIdx    map[string]int
	catIdx     map[string]int
}

// NewModel snapshots books and categories, keeping their order.
func NewModel(books []*types.Book, categories []*types.Category) *Model {
	m := &Model{
		books:      make([]*types.Book, 0, len(books)),
		categories: make([]*types.Category, 0, len(categories)),
		bookIdx:    make(map[string]int, len(books)),
		catIdx:     make(map[string]int, len(categories)),
	}
	for _, b := range books {
		c := b.Clone()
		c.Normalize()
		m.bookIdx[c.BookID] = len(m.books)
		m.books = append(m.books, c)
	}
	for _, c := range categories {
		cp := *c
		m.catIdx[cp.CategoryID] = len(m.categories)
		m.categories = append(m.categories, &cp)
	}
	return m
}

// Empty returns a model with no books and no categories.
func Empty() *Model { return NewModel(nil, nil) }

// Books returns every book in store order.
func (m *Model) Books() []*types.Book {
	return m.filter(func(*types.Book) bool { return true })
}

// Categories returns every category in store order.
func (m *Model) Categories() []*types.Category {
	out := make([]*types.Category, len(m.categories))
	for i, c := range m.categories {
		cp := *c
		out[i] = &cp
	}
	return out
}

// Book looks up a book by ID.
func (m *Model) Book(id string) (*types.Book, bool) {
	i, ok := m.bookIdx[id]
	if !ok {
		return nil, false
	}
	return m.books[i].Clone(), true
}

// Category looks up a category by ID.
func (m *Model) Category(id string) (*types.Category, bool) {
	i, ok := m.catIdx[id]
	if !ok {
		return nil, false
	}
	cp := *m.categories[i]
	return &cp, true
}

// BooksByStatus returns the books with the given status in input order.
func (m *Model) BooksByStatus(status string) []*types.Book {
	return m.filter(func(b *types.Book) bool { return b.Status == status })
}

// BooksByCategory returns the books whose categories contain categoryID.
func (m *Model) BooksByCategory(categoryID string) []*types.Book {
	return m.filter(func(b *types.Book) bool { return b.HasCategory(categoryID) })
}

// UnassignedBooks returns the books with no categories, whatever their status.
func (m *Model) UnassignedBooks() []*types.Book {
	return m.filter(func(b *types.Book) bool { return len(b.Categories) == 0 })
}

// PublicBooks returns the books shared on the public library page.
func (m *Model) PublicBooks() []*types.Book {
	return m.filter(func(b *types.Book) bool { return b.IsPublic })
}

func (m *Model) filter(keep func(*types.Book) bool) []*types.Book {
	out := []*types.Book{}
	for _, b := range m.books {
		if keep(b) {
			out = append(out, b.Clone())
		}
	}
	return out
}
