package engine

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// AddBook puts a new book in the library. Status defaults to to-read. A
// rating is kept only for completed books. Categories must exist and the
// ID must not be taken.
func (e *Engine) AddBook(ctx context.Context, book *types.Book) (Outcome, error) {
	b := book.Clone()
	b.Normalize()
	if b.Status != types.StatusCompleted {
		b.Rating = 0
	}
	if err := b.Validate(); err != nil {
		return Failed, err
	}
	if err := e.store.CreateBook(ctx, b); err != nil {
		return Failed, err
	}
	*book = *b
	e.log.Info("book added", bookField(b.BookID), zap.String("status", b.Status))
	return e.commit(ctx)
}

// EditBook applies a partial edit read from the edit form. A rating can only
// be set on a book that is, or is becoming, completed. An edit that changes
// nothing is a no-op.
func (e *Engine) EditBook(ctx context.Context, id string, u types.BookUpdate) (Outcome, error) {
	if u.IsEmpty() {
		return Noop, nil
	}
	if err := u.Validate(); err != nil {
		return Failed, err
	}
	current, err := e.store.GetBook(ctx, id)
	if err != nil {
		return Failed, err
	}
	next := current.Clone()
	if err := u.Apply(next); err != nil {
		return Failed, err
	}
	if u.Rating != nil && next.Status != types.StatusCompleted && *u.Rating != current.Rating {
		return Failed, fmt.Errorf("%w: book %s is not completed", types.ErrInvalidRating, id)
	}
	if sameEditableFields(current, next) {
		return Noop, nil
	}
	if err := e.store.UpdateBook(ctx, id, u); err != nil {
		return Failed, err
	}
	e.log.Info("book edited", bookField(id))
	return e.commit(ctx)
}

// SetStatus changes a book's status outside a drag gesture.
func (e *Engine) SetStatus(ctx context.Context, bookID, status string) (Outcome, error) {
	return e.EditBook(ctx, bookID, types.BookUpdate{Status: &status})
}

// AddToCategory union-adds a category outside a drag gesture.
func (e *Engine) AddToCategory(ctx context.Context, bookID, categoryID string) (Outcome, error) {
	current, err := e.store.GetBook(ctx, bookID)
	if err != nil {
		return Failed, err
	}
	if !current.AddCategory(categoryID) {
		return Noop, nil
	}
	return e.EditBook(ctx, bookID, types.BookUpdate{Categories: &current.Categories})
}

// DeleteBook removes a book behind a prompt. It shares the removal guard
// with category removals.
func (e *Engine) DeleteBook(ctx context.Context, id string) (Outcome, error) {
	if !e.beginRemoval() {
		e.log.Debug("book delete rejected: another removal in flight", bookField(id))
		return Rejected, nil
	}
	defer e.endRemoval()

	if _, err := e.store.GetBook(ctx, id); err != nil {
		return Failed, err
	}
	if !e.confirm(ctx, deleteBookPrompt(id)) {
		return Declined, nil
	}
	if err := e.store.DeleteBook(ctx, id); err != nil {
		return Failed, err
	}
	e.log.Info("book deleted", bookField(id))
	return e.commit(ctx)
}

func sameEditableFields(a, b *types.Book) bool {
	return a.Status == b.Status &&
		a.Rating == b.Rating &&
		a.Review == b.Review &&
		a.IsPublic == b.IsPublic &&
		sameSet(a.Categories, b.Categories)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, id := range a {
		if !slices.Contains(b, id) {
			return false
		}
	}
	return true
}
