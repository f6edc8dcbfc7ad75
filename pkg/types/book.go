package types

import (
	"math"
	"slices"
	"time"
)

// Book reading statuses. Every book holds exactly one.
const (
	StatusToRead     = "to-read"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Statuses lists the reading statuses in shelf order.
var Statuses = []string{StatusToRead, StatusInProgress, StatusCompleted}

var validStatuses = map[string]bool{
	StatusToRead:     true,
	StatusInProgress: true,
	StatusCompleted:  true,
}

// IsValidStatus reports whether s is a recognized reading status.
func IsValidStatus(s string) bool {
	return validStatuses[s]
}

// MaxRating is the top of the rating scale.
const MaxRating = 5

var ratingLabels = []string{"Terrible", "Poor", "Average", "Good", "Excellent"}

// RatingLabel returns the word shown next to a rating, or "" below one star.
func RatingLabel(rating float64) string {
	i := int(math.Floor(rating)) - 1
	if i < 0 || i >= len(ratingLabels) {
		return ""
	}
	return ratingLabels[i]
}

// ValidRating reports whether r lies in [0, MaxRating] on a half-star step.
func ValidRating(r float64) bool {
	if r < 0 || r > MaxRating {
		return false
	}
	return math.Mod(r*2, 1) == 0
}

// Book is one title in a user's library. The identifier comes from the
// catalog the book was selected from and is stable across edits.
type Book struct {
	BookID     string    `json:"book_id" yaml:"book_id"`
	Title      string    `json:"title" yaml:"title" validate:"required"`
	Author     string    `json:"author" yaml:"author"`
	Cover      string    `json:"cover,omitempty" yaml:"cover,omitempty"`
	Summary    string    `json:"summary,omitempty" yaml:"summary,omitempty"`
	Year       string    `json:"year,omitempty" yaml:"year,omitempty"`
	Status     string    `json:"status" yaml:"status" validate:"oneof=to-read in-progress completed"`
	Rating     float64   `json:"rating" yaml:"rating" validate:"gte=0,lte=5"`
	Review     string    `json:"review,omitempty" yaml:"review,omitempty"`
	Categories []string  `json:"categories" yaml:"categories"`
	IsPublic   bool      `json:"is_public" yaml:"is_public"`
	AddedAt    time.Time `json:"added_at" yaml:"added_at"`
	UpdatedAt  time.Time `json:"updated_at" yaml:"updated_at"`
}

var bookFieldErrors = map[string]error{
	"Title":  ErrInvalidName,
	"Status": ErrInvalidState,
	"Rating": ErrInvalidRating,
}

// Normalize applies the defaulting rules for optional fields: an empty
// status becomes to-read and categories become a duplicate-free, non-nil set.
func (b *Book) Normalize() {
	if b.Status == "" {
		b.Status = StatusToRead
	}
	b.Categories = uniqueIDs(b.Categories)
}

// Validate checks field rules. Call Normalize first to apply defaults.
func (b *Book) Validate() error {
	if err := validateStruct(b, bookFieldErrors); err != nil {
		return err
	}
	if !ValidRating(b.Rating) {
		return ErrInvalidRating
	}
	return nil
}

// Clone returns a deep copy of the book.
func (b *Book) Clone() *Book {
	c := *b
	c.Categories = slices.Clone(b.Categories)
	if c.Categories == nil {
		c.Categories = []string{}
	}
	return &c
}

// SetStatus replaces the reading status.
// Returns ErrInvalidState if the status is not recognized.
// Idempotent: setting the current status succeeds without error.
func (b *Book) SetStatus(status string) error {
	if !IsValidStatus(status) {
		return ErrInvalidState
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	return nil
}

// SetRating stores a rating. Returns ErrInvalidRating outside the scale.
func (b *Book) SetRating(r float64) error {
	if !ValidRating(r) {
		return ErrInvalidRating
	}
	b.Rating = r
	b.UpdatedAt = time.Now()
	return nil
}

// EffectiveRating is the rating as displayed: zero unless the book is completed.
func (b *Book) EffectiveRating() float64 {
	if b.Status != StatusCompleted {
		return 0
	}
	return b.Rating
}

// HasCategory reports whether the book belongs to the category.
func (b *Book) HasCategory(categoryID string) bool {
	return slices.Contains(b.Categories, categoryID)
}

// AddCategory adds categoryID to the set. Returns false when the book
// already belonged to it.
func (b *Book) AddCategory(categoryID string) bool {
	if categoryID == "" || b.HasCategory(categoryID) {
		return false
	}
	b.Categories = append(b.Categories, categoryID)
	b.UpdatedAt = time.Now()
	return true
}

// RemoveCategory drops categoryID from the set, leaving other memberships
// untouched. Returns false when the book did not belong to it.
func (b *Book) RemoveCategory(categoryID string) bool {
	i := slices.Index(b.Categories, categoryID)
	if i < 0 {
		return false
	}
	b.Categories = slices.Delete(slices.Clone(b.Categories), i, i+1)
	b.UpdatedAt = time.Now()
	return true
}

// ClearCategories empties the set. Returns false if it was already empty.
func (b *Book) ClearCategories() bool {
	if len(b.Categories) == 0 {
		return false
	}
	b.Categories = []string{}
	b.UpdatedAt = time.Now()
	return true
}

// Partial-update field names accepted by the books table.
const (
	FieldStatus     = "status"
	FieldRating     = "rating"
	FieldReview     = "review"
	FieldIsPublic   = "is_public"
	FieldCategories = "categories"
)

// BookUpdate is a partial edit of a book. Nil fields are left unchanged; a
// non-nil empty Categories clears the set.
type BookUpdate struct {
	Status     *string
	Rating     *float64
	Review     *string
	IsPublic   *bool
	Categories *[]string
}

// IsEmpty reports whether the update changes nothing.
func (u BookUpdate) IsEmpty() bool {
	return u.Status == nil && u.Rating == nil && u.Review == nil &&
		u.IsPublic == nil && u.Categories == nil
}

// Validate checks the fields that are set.
func (u BookUpdate) Validate() error {
	if u.Status != nil && !IsValidStatus(*u.Status) {
		return ErrInvalidState
	}
	if u.Rating != nil && !ValidRating(*u.Rating) {
		return ErrInvalidRating
	}
	return nil
}

// Fields converts the update into the map accepted by Table.Update.
func (u BookUpdate) Fields() map[string]any {
	fields := make(map[string]any)
	if u.Status != nil {
		fields[FieldStatus] = *u.Status
	}
	if u.Rating != nil {
		fields[FieldRating] = *u.Rating
	}
	if u.Review != nil {
		fields[FieldReview] = *u.Review
	}
	if u.IsPublic != nil {
		fields[FieldIsPublic] = *u.IsPublic
	}
	if u.Categories != nil {
		fields[FieldCategories] = uniqueIDs(*u.Categories)
	}
	return fields
}

// Apply writes the set fields onto b through its setters. On error b is
// left partly updated; call Validate first to rule that out.
func (u BookUpdate) Apply(b *Book) error {
	if u.Status != nil {
		if err := b.SetStatus(*u.Status); err != nil {
			return err
		}
	}
	if u.Rating != nil {
		if err := b.SetRating(*u.Rating); err != nil {
			return err
		}
	}
	if u.Review != nil {
		b.Review = *u.Review
	}
	if u.IsPublic != nil {
		b.IsPublic = *u.IsPublic
	}
	if u.Categories != nil {
		b.Categories = uniqueIDs(*u.Categories)
	}
	return nil
}

// uniqueIDs returns ids without blanks or repeats, first occurrence wins.
func uniqueIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || slices.Contains(out, id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
