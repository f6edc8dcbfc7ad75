package catalog

import (
	"strings"

	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// Placeholders used when the catalog omits a field.
const (
	UnknownAuthor = "Unknown Author"
	NoSummary     = "No summary available."
)

// Volume is one search result, flattened for display and for adding to the
// library.
type Volume struct {
	ID      string `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Author  string `json:"author" yaml:"author"`
	Cover   string `json:"cover,omitempty" yaml:"cover,omitempty"`
	Summary string `json:"summary" yaml:"summary"`
	Year    string `json:"year,omitempty" yaml:"year,omitempty"`
}

// Book converts the volume into a new library entry with default status.
func (v Volume) Book() *types.Book {
	return &types.Book{
		BookID:     v.ID,
		Title:      v.Title,
		Author:     v.Author,
		Cover:      v.Cover,
		Summary:    v.Summary,
		Year:       v.Year,
		Status:     types.StatusToRead,
		Categories: []string{},
	}
}

// volumesResponse is the subset of the volumes list response we read.
type volumesResponse struct {
	TotalItems int          `json:"totalItems"`
	Items      []volumeItem `json:"items"`
}

type volumeItem struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Description   string   `json:"description"`
	PublishedDate string   `json:"publishedDate"`
	ImageLinks    struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}

// toVolume applies the display defaults.
func (it volumeItem) toVolume() Volume {
	info := it.VolumeInfo
	v := Volume{
		ID:      it.ID,
		Title:   info.Title,
		Author:  strings.Join(info.Authors, ", "),
		Cover:   info.ImageLinks.Thumbnail,
		Summary: info.Description,
	}
	if v.Author == "" {
		v.Author = UnknownAuthor
	}
	if v.Summary == "" {
		v.Summary = NoSummary
	}
	if info.PublishedDate != "" {
		v.Year, _, _ = strings.Cut(info.PublishedDate, "-")
	}
	return v
}
