// Package store adapts the generic Cupboard tables into the typed,
// user-scoped operations the library works with.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// Adapter is the entity store for one signed-in user. Every call goes
// straight to the backend; the adapter keeps no cache.
type Adapter struct {
	cupboard types.Cupboard
	userID   string
	log      *zap.Logger
}

// New returns an adapter scoped to userID. A nil logger is replaced by a no-op.
func New(cupboard types.Cupboard, userID string, log *zap.Logger) (*Adapter, error) {
	if userID == "" {
		return nil, types.ErrInvalidUser
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		cupboard: cupboard,
		userID:   userID,
		log:      log.With(zap.String("user", userID)),
	}, nil
}

// UserID returns the user the adapter is scoped to.
func (a *Adapter) UserID() string { return a.userID }

func (a *Adapter) table(name string) (types.Table, error) {
	t, err := a.cupboard.GetTable(a.userID, name)
	if err != nil {
		return nil, fmt.Errorf("opening %s table: %w", name, err)
	}
	return t, nil
}

// ListBooks returns the user's books in the order they were added.
func (a *Adapter) ListBooks(ctx context.Context) ([]*types.Book, error) {
	return a.fetchBooks(ctx, nil)
}

// BooksInCategory returns the books whose categories contain categoryID.
func (a *Adapter) BooksInCategory(ctx context.Context, categoryID string) ([]*types.Book, error) {
	return a.fetchBooks(ctx, types.Filter{"category_id": categoryID})
}

// PublicBooks returns the books marked public.
func (a *Adapter) PublicBooks(ctx context.Context) ([]*types.Book, error) {
	return a.fetchBooks(ctx, types.Filter{"is_public": true})
}

func (a *Adapter) fetchBooks(ctx context.Context, filter types.Filter) ([]*types.Book, error) {
	t, err := a.table(types.TableBooks)
	if err != nil {
		return nil, err
	}
	rows, err := t.Fetch(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	return collect[*types.Book](rows)
}

// GetBook loads one book. Returns ErrNotFound when it is not in the library.
func (a *Adapter) GetBook(ctx context.Context, id string) (*types.Book, error) {
	t, err := a.table(types.TableBooks)
	if err != nil {
		return nil, err
	}
	row, err := t.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting book %s: %w", id, err)
	}
	return as[*types.Book](row)
}

// CreateBook adds a book to the library. The ID must not already be in use
// and every listed category must exist. Empty fields take their defaults:
// status to-read, added now.
func (a *Adapter) CreateBook(ctx context.Context, book *types.Book) error {
	t, err := a.table(types.TableBooks)
	if err != nil {
		return err
	}
	if book.BookID != "" {
		_, err := t.Get(ctx, book.BookID)
		switch {
		case err == nil:
			return fmt.Errorf("adding book %s: %w", book.BookID, types.ErrDuplicateBook)
		case !errors.Is(err, types.ErrNotFound):
			return fmt.Errorf("checking book %s: %w", book.BookID, err)
		}
	}
	book.Normalize()
	if err := a.checkCategories(ctx, book.Categories); err != nil {
		return err
	}
	if book.AddedAt.IsZero() {
		book.AddedAt = time.Now()
	}
	id, err := t.Set(ctx, book.BookID, book)
	if err != nil {
		return fmt.Errorf("adding book: %w", err)
	}
	a.log.Debug("book added", zap.String("book", id), zap.String("status", book.Status))
	return nil
}

// UpdateBook applies a partial edit. Categories in the edit must exist.
func (a *Adapter) UpdateBook(ctx context.Context, id string, u types.BookUpdate) error {
	if u.IsEmpty() {
		return nil
	}
	if err := u.Validate(); err != nil {
		return err
	}
	if u.Categories != nil {
		if err := a.checkCategories(ctx, *u.Categories); err != nil {
			return err
		}
	}
	t, err := a.table(types.TableBooks)
	if err != nil {
		return err
	}
	if err := t.Update(ctx, id, u.Fields()); err != nil {
		return fmt.Errorf("updating book %s: %w", id, err)
	}
	a.log.Debug("book updated", zap.String("book", id), zap.Any("fields", u.Fields()))
	return nil
}

// SetBookCategories replaces a book's category set without checking that the
// categories exist. The delete cascade uses it after the category is gone.
func (a *Adapter) SetBookCategories(ctx context.Context, id string, categories []string) error {
	t, err := a.table(types.TableBooks)
	if err != nil {
		return err
	}
	if err := t.Update(ctx, id, map[string]any{types.FieldCategories: categories}); err != nil {
		return fmt.Errorf("updating categories of %s: %w", id, err)
	}
	a.log.Debug("book categories set", zap.String("book", id), zap.Strings("categories", categories))
	return nil
}

// DeleteBook removes a book from the library.
func (a *Adapter) DeleteBook(ctx context.Context, id string) error {
	t, err := a.table(types.TableBooks)
	if err != nil {
		return err
	}
	if err := t.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting book %s: %w", id, err)
	}
	a.log.Debug("book deleted", zap.String("book", id))
	return nil
}

// checkCategories returns ErrInvalidCategory naming the first ID that does
// not match an existing category.
func (a *Adapter) checkCategories(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	t, err := a.table(types.TableCategories)
	if err != nil {
		return err
	}
	for _, id := range ids {
		_, err := t.Get(ctx, id)
		if errors.Is(err, types.ErrNotFound) {
			return fmt.Errorf("%w: %s", types.ErrInvalidCategory, id)
		}
		if err != nil {
			return fmt.Errorf("checking category %s: %w", id, err)
		}
	}
	return nil
}

// ListCategories returns the user's categories in creation order.
func (a *Adapter) ListCategories(ctx context.Context) ([]*types.Category, error) {
	t, err := a.table(types.TableCategories)
	if err != nil {
		return nil, err
	}
	rows, err := t.Fetch(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return collect[*types.Category](rows)
}

// GetCategory loads one category.
func (a *Adapter) GetCategory(ctx context.Context, id string) (*types.Category, error) {
	t, err := a.table(types.TableCategories)
	if err != nil {
		return nil, err
	}
	row, err := t.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting category %s: %w", id, err)
	}
	return as[*types.Category](row)
}

// CreateCategory stores a new category document.
func (a *Adapter) CreateCategory(ctx context.Context, cat *types.Category) error {
	t, err := a.table(types.TableCategories)
	if err != nil {
		return err
	}
	if _, err := t.Set(ctx, cat.CategoryID, cat); err != nil {
		return fmt.Errorf("creating category %s: %w", cat.CategoryID, err)
	}
	a.log.Debug("category created", zap.String("category", cat.CategoryID), zap.String("name", cat.Name))
	return nil
}

// RenameCategory changes a category's display name.
func (a *Adapter) RenameCategory(ctx context.Context, id, name string) error {
	t, err := a.table(types.TableCategories)
	if err != nil {
		return err
	}
	if err := t.Update(ctx, id, map[string]any{"name": name}); err != nil {
		return fmt.Errorf("renaming category %s: %w", id, err)
	}
	a.log.Debug("category renamed", zap.String("category", id), zap.String("name", name))
	return nil
}

// DeleteCategory removes the category document. Book references are left
// for the caller to cascade.
func (a *Adapter) DeleteCategory(ctx context.Context, id string) error {
	t, err := a.table(types.TableCategories)
	if err != nil {
		return err
	}
	if err := t.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting category %s: %w", id, err)
	}
	a.log.Debug("category deleted", zap.String("category", id))
	return nil
}

// ShelfStates returns the stored open flag of every shelf key.
func (a *Adapter) ShelfStates(ctx context.Context) (map[string]bool, error) {
	t, err := a.table(types.TableShelves)
	if err != nil {
		return nil, err
	}
	rows, err := t.Fetch(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing shelf states: %w", err)
	}
	states, err := collect[*types.ShelfState](rows)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(states))
	for _, s := range states {
		out[s.ShelfKey] = s.Open
	}
	return out, nil
}

// SaveShelfState stores the open flag for one shelf key.
func (a *Adapter) SaveShelfState(ctx context.Context, key string, open bool) error {
	t, err := a.table(types.TableShelves)
	if err != nil {
		return err
	}
	if _, err := t.Set(ctx, key, &types.ShelfState{ShelfKey: key, Open: open}); err != nil {
		return fmt.Errorf("saving shelf %s: %w", key, err)
	}
	return nil
}

// GetProfile loads the user's profile.
func (a *Adapter) GetProfile(ctx context.Context) (*types.Profile, error) {
	t, err := a.table(types.TableProfiles)
	if err != nil {
		return nil, err
	}
	row, err := t.Get(ctx, a.userID)
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return as[*types.Profile](row)
}

// SaveProfile creates or replaces the user's profile.
func (a *Adapter) SaveProfile(ctx context.Context, p *types.Profile) error {
	t, err := a.table(types.TableProfiles)
	if err != nil {
		return err
	}
	if _, err := t.Set(ctx, a.userID, p); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	a.log.Debug("profile saved")
	return nil
}

func as[T any](row any) (T, error) {
	v, ok := row.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: unexpected row type %T", types.ErrInvalidData, row)
	}
	return v, nil
}

func collect[T any](rows []any) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := as[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
