package membership

import (
	"strings"

	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// Kind distinguishes the three families of shelves.
type Kind string

const (
	KindStatus     Kind = "status"
	KindUnassigned Kind = "unassigned"
	KindCategory   Kind = "category"
)

// UnassignedTitle is the display title of the unassigned shelf.
const UnassignedTitle = "Unassigned Books"

// Shelf is one displayable group of books.
type Shelf struct {
	Key    string        `json:"key" yaml:"key"`
	Title  string        `json:"title" yaml:"title"`
	Kind   Kind          `json:"kind" yaml:"kind"`
	Custom bool          `json:"custom" yaml:"custom"` // category shelves can be renamed and deleted
	Open   bool          `json:"open" yaml:"open"`
	Books  []*types.Book `json:"books" yaml:"books"`
}

// StatusTitle renders a status as a shelf heading: "in-progress" becomes
// "IN PROGRESS".
func StatusTitle(status string) string {
	return strings.ToUpper(strings.Replace(status, "-", " ", 1))
}

// ShelfKeys lists every shelf key of m in display order.
func ShelfKeys(m *Model) []string {
	keys := make([]string, 0, len(types.Statuses)+1+len(m.categories))
	keys = append(keys, types.Statuses...)
	keys = append(keys, types.ShelfKeyUnassigned)
	for _, c := range m.categories {
		keys = append(keys, c.CategoryID)
	}
	return keys
}

// Partition returns the shelves of m: the three status shelves in fixed
// order, then the unassigned shelf, then one shelf per category in store
// order. Open flags come from open; keys it does not know are closed.
func Partition(m *Model, open OpenState) []Shelf {
	shelves := make([]Shelf, 0, len(types.Statuses)+1+len(m.categories))
	for _, s := range types.Statuses {
		shelves = append(shelves, Shelf{
			Key:   s,
			Title: StatusTitle(s),
			Kind:  KindStatus,
			Open:  open.IsOpen(s),
			Books: m.BooksByStatus(s),
		})
	}
	shelves = append(shelves, Shelf{
		Key:   types.ShelfKeyUnassigned,
		Title: UnassignedTitle,
		Kind:  KindUnassigned,
		Open:  open.IsOpen(types.ShelfKeyUnassigned),
		Books: m.UnassignedBooks(),
	})
	for _, c := range m.categories {
		shelves = append(shelves, Shelf{
			Key:    c.CategoryID,
			Title:  c.Name,
			Kind:   KindCategory,
			Custom: true,
			Open:   open.IsOpen(c.CategoryID),
			Books:  m.BooksByCategory(c.CategoryID),
		})
	}
	return shelves
}

// Find returns the shelf with the given key.
func Find(shelves []Shelf, key string) (Shelf, bool) {
	for _, s := range shelves {
		if s.Key == key {
			return s, true
		}
	}
	return Shelf{}, false
}
