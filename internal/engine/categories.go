package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// CreateCategory adds a category named by the trimmed input, with its ID
// slugged from that name. Empty input is a silent no-op. When the slug is
// already taken the existing category is returned unchanged.
func (e *Engine) CreateCategory(ctx context.Context, name string) (*types.Category, Outcome, error) {
	cat, err := types.NewCategory(name)
	if errors.Is(err, types.ErrInvalidName) {
		return nil, Noop, nil
	}
	if err != nil {
		return nil, Failed, err
	}

	existing, err := e.store.GetCategory(ctx, cat.CategoryID)
	switch {
	case err == nil:
		return existing, Noop, nil
	case !errors.Is(err, types.ErrNotFound):
		return nil, Failed, err
	}

	if err := e.store.CreateCategory(ctx, cat); err != nil {
		return nil, Failed, err
	}
	e.log.Info("category created", categoryField(cat.CategoryID), zap.String("name", cat.Name))
	outcome, err := e.commit(ctx)
	return cat, outcome, err
}

// RenameCategory changes a category's display name. The ID, and so every
// book reference, stays the same. An empty or unchanged name is a no-op.
func (e *Engine) RenameCategory(ctx context.Context, id, name string) (Outcome, error) {
	next := types.Category{CategoryID: id}
	if err := next.Rename(name); err != nil {
		return Noop, nil
	}
	cat, err := e.store.GetCategory(ctx, id)
	if err != nil {
		return Failed, err
	}
	if cat.Name == next.Name {
		return Noop, nil
	}
	if err := e.store.RenameCategory(ctx, id, next.Name); err != nil {
		return Failed, err
	}
	e.log.Info("category renamed", categoryField(id), zap.String("from", cat.Name), zap.String("to", next.Name))
	return e.commit(ctx)
}

// DeleteCategory removes a category behind a prompt, then strips its ID from
// every book that references it. Books keep their status, rating and other
// categories. It holds the removal guard throughout.
func (e *Engine) DeleteCategory(ctx context.Context, id string) (Outcome, error) {
	if !e.beginRemoval() {
		e.log.Debug("category delete rejected: another removal in flight", categoryField(id))
		return Rejected, nil
	}
	defer e.endRemoval()

	if _, err := e.store.GetCategory(ctx, id); err != nil {
		return Failed, err
	}
	if !e.confirm(ctx, deleteCategoryPrompt(id)) {
		return Declined, nil
	}
	if err := e.store.DeleteCategory(ctx, id); err != nil {
		return Failed, err
	}
	if err := e.cascade(ctx, id); err != nil {
		// The category document is gone; the next refresh shows whatever
		// references survived.
		return Applied, fmt.Errorf("removing %s from books: %w", id, err)
	}
	e.log.Info("category deleted", categoryField(id))
	return e.commit(ctx)
}

// cascade removes categoryID from every book in the store that references
// it. All books are attempted; failures are joined.
func (e *Engine) cascade(ctx context.Context, categoryID string) error {
	books, err := e.store.BooksInCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	errs := make([]error, len(books))
	var g errgroup.Group
	g.SetLimit(e.cascadeWorkers)
	for i, b := range books {
		g.Go(func() error {
			b.RemoveCategory(categoryID)
			errs[i] = e.store.SetBookCategories(ctx, b.BookID, b.Categories)
			return nil
		})
	}
	_ = g.Wait()
	e.log.Debug("cascade finished", categoryField(categoryID), zap.Int("books", len(books)))
	return errors.Join(errs...)
}
