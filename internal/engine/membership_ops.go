package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// addToCategory union-adds categoryID to the book's set behind a prompt.
// A book that already belongs to the category is a no-op and is not prompted.
func (e *Engine) addToCategory(ctx context.Context, book *types.Book, categoryID string) (Outcome, error) {
	cat, ok := e.Model().Category(categoryID)
	if !ok {
		return Failed, fmt.Errorf("%w: %s", types.ErrInvalidCategory, categoryID)
	}
	next := book.Clone()
	if !next.AddCategory(categoryID) {
		return Noop, nil
	}
	if !e.confirm(ctx, addPrompt(book, cat)) {
		return Declined, nil
	}
	if err := e.store.UpdateBook(ctx, book.BookID, types.BookUpdate{Categories: &next.Categories}); err != nil {
		return Failed, err
	}
	e.log.Info("book added to category", bookField(book.BookID), categoryField(categoryID))
	return e.commit(ctx)
}

// setStatus overwrites the book's status behind a prompt. Setting the status
// the book already has is a no-op.
func (e *Engine) setStatus(ctx context.Context, book *types.Book, status string) (Outcome, error) {
	next := book.Clone()
	if err := next.SetStatus(status); err != nil {
		return Failed, fmt.Errorf("%w: %q", err, status)
	}
	if book.Status == next.Status {
		return Noop, nil
	}
	if !e.confirm(ctx, statusPrompt(book, status)) {
		return Declined, nil
	}
	if err := e.store.UpdateBook(ctx, book.BookID, types.BookUpdate{Status: &status}); err != nil {
		return Failed, err
	}
	e.log.Info("book status changed", bookField(book.BookID),
		zap.String("from", book.Status), zap.String("to", status))
	return e.commit(ctx)
}

// removeFromCategory drops one category from the book's set, leaving the
// others alone. It holds the removal guard for the prompt and the write.
func (e *Engine) removeFromCategory(ctx context.Context, book *types.Book, categoryID string, prompt Prompt) (Outcome, error) {
	if !e.beginRemoval() {
		e.log.Debug("removal rejected: another in flight", bookField(book.BookID))
		return Rejected, nil
	}
	defer e.endRemoval()

	if !book.RemoveCategory(categoryID) {
		return Noop, nil
	}
	if !e.confirm(ctx, prompt) {
		return Declined, nil
	}
	if err := e.store.SetBookCategories(ctx, book.BookID, book.Categories); err != nil {
		return Failed, err
	}
	e.log.Info("book removed from category", bookField(book.BookID), categoryField(categoryID))
	return e.commit(ctx)
}

// removeFromAll clears the book's category set, sending it to Unassigned.
// Status and rating are untouched.
func (e *Engine) removeFromAll(ctx context.Context, book *types.Book) (Outcome, error) {
	if !e.beginRemoval() {
		e.log.Debug("removal rejected: another in flight", bookField(book.BookID))
		return Rejected, nil
	}
	defer e.endRemoval()

	if !book.ClearCategories() {
		return Noop, nil
	}
	if !e.confirm(ctx, removeAllPrompt(book.BookID)) {
		return Declined, nil
	}
	if err := e.store.SetBookCategories(ctx, book.BookID, []string{}); err != nil {
		return Failed, err
	}
	e.log.Info("book removed from all categories", bookField(book.BookID))
	return e.commit(ctx)
}

// RemoveFromCategory is the non-drag removal path. An empty categoryID
// removes the book from every category.
func (e *Engine) RemoveFromCategory(ctx context.Context, bookID, categoryID string) (Outcome, error) {
	book, ok := e.Model().Book(bookID)
	if !ok {
		return Failed, fmt.Errorf("removing book %s: %w", bookID, types.ErrNotFound)
	}
	if categoryID == "" {
		return e.removeFromAll(ctx, book)
	}
	return e.removeFromCategory(ctx, book, categoryID, removeCategoryPrompt(bookID, categoryID))
}
