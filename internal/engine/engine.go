// Package engine implements the reassignment engine: the drag gesture state
// machine, category CRUD and explicit removals. Every mutation goes to the
// store first and is followed by a full refresh of the snapshot; the engine
// never patches its model optimistically.
package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/shelfmark/internal/membership"
	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// Store is the user-scoped entity store the engine writes through.
type Store interface {
	ListBooks(ctx context.Context) ([]*types.Book, error)
	ListCategories(ctx context.Context) ([]*types.Category, error)
	GetBook(ctx context.Context, id string) (*types.Book, error)
	CreateBook(ctx context.Context, book *types.Book) error
	UpdateBook(ctx context.Context, id string, u types.BookUpdate) error
	SetBookCategories(ctx context.Context, id string, categories []string) error
	DeleteBook(ctx context.Context, id string) error
	BooksInCategory(ctx context.Context, categoryID string) ([]*types.Book, error)
	GetCategory(ctx context.Context, id string) (*types.Category, error)
	CreateCategory(ctx context.Context, cat *types.Category) error
	RenameCategory(ctx context.Context, id, name string) error
	DeleteCategory(ctx context.Context, id string) error
}

// ShelfStateStore persists which shelves are expanded.
type ShelfStateStore interface {
	ShelfStates(ctx context.Context) (map[string]bool, error)
	SaveShelfState(ctx context.Context, key string, open bool) error
}

// Options configures an Engine. Store is required. A nil Shelves keeps open
// state in memory only; a nil Confirm declines every prompt.
type Options struct {
	Store   Store
	Shelves ShelfStateStore
	Confirm ConfirmFunc
	Logger  *zap.Logger
	// CascadeWorkers bounds concurrent book updates during a category
	// delete. Zero means 4.
	CascadeWorkers int
}

const defaultCascadeWorkers = 4

// Engine owns one user's snapshot and drag gesture. It is safe for
// concurrent use; its mutex is never held across a prompt or a store call.
type Engine struct {
	store          Store
	shelves        ShelfStateStore
	confirm        ConfirmFunc
	log            *zap.Logger
	cascadeWorkers int

	mu        sync.Mutex
	model     *membership.Model
	open      membership.OpenState
	loaded    bool // stored open state merged into open
	gesture   Gesture
	issued    uint64 // refresh tickets handed out
	installed uint64 // ticket of the snapshot in model

	removing atomic.Bool
}

// New builds an engine with an empty snapshot. Call Refresh to load it.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("engine: store is required")
	}
	e := &Engine{
		store:          opts.Store,
		shelves:        opts.Shelves,
		confirm:        opts.Confirm,
		log:            opts.Logger,
		cascadeWorkers: opts.CascadeWorkers,
		model:          membership.Empty(),
	}
	if e.confirm == nil {
		e.confirm = NeverConfirm
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.cascadeWorkers <= 0 {
		e.cascadeWorkers = defaultCascadeWorkers
	}
	return e, nil
}

// Refresh refetches books and categories and replaces the snapshot. Shelf
// keys seen for the first time are added closed and saved. On error the
// previous snapshot stays in place.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	e.issued++
	ticket := e.issued
	loadOpen := !e.loaded
	e.mu.Unlock()

	var books []*types.Book
	var cats []*types.Category
	var stored map[string]bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		books, err = e.store.ListBooks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cats, err = e.store.ListCategories(gctx)
		return err
	})
	if loadOpen && e.shelves != nil {
		g.Go(func() error {
			var err error
			stored, err = e.shelves.ShelfStates(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refreshing library: %w", err)
	}

	model := membership.NewModel(books, cats)

	e.mu.Lock()
	if loadOpen {
		e.installOpenLocked(stored)
	}
	if ticket < e.installed {
		// A newer refresh already landed.
		e.mu.Unlock()
		return nil
	}
	e.model = model
	e.installed = ticket
	added := e.open.Reconcile(membership.ShelfKeys(model))
	e.mu.Unlock()

	e.log.Debug("snapshot refreshed",
		zap.Int("books", len(books)), zap.Int("categories", len(cats)), zap.Strings("new_shelves", added))
	e.saveShelfStates(ctx, added, false)
	return nil
}

// loadOpenState reads the stored open flags once, before anything else may
// write them.
func (e *Engine) loadOpenState(ctx context.Context) error {
	e.mu.Lock()
	loaded := e.loaded
	e.mu.Unlock()
	if loaded {
		return nil
	}
	var stored map[string]bool
	if e.shelves != nil {
		var err error
		if stored, err = e.shelves.ShelfStates(ctx); err != nil {
			return fmt.Errorf("loading shelf states: %w", err)
		}
	}
	e.mu.Lock()
	e.installOpenLocked(stored)
	e.mu.Unlock()
	return nil
}

// installOpenLocked merges stored under the flags already set in memory.
// Only the first call has any effect. Caller holds e.mu.
func (e *Engine) installOpenLocked(stored map[string]bool) {
	if e.loaded {
		return
	}
	merged := membership.OpenState(stored).Clone()
	for k, v := range e.open {
		merged[k] = v
	}
	e.open = merged
	e.loaded = true
}

// saveShelfStates persists open flags. Failures are logged, not returned:
// open state is cosmetic and a lost write only means a shelf opens closed.
func (e *Engine) saveShelfStates(ctx context.Context, keys []string, open bool) {
	if e.shelves == nil {
		return
	}
	for _, k := range keys {
		if err := e.shelves.SaveShelfState(ctx, k, open); err != nil {
			e.log.Warn("saving shelf state", zap.String("shelf", k), zap.Error(err))
		}
	}
}

// Model returns the current snapshot.
func (e *Engine) Model() *membership.Model {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model
}

// Shelves partitions the current snapshot.
func (e *Engine) Shelves() []membership.Shelf {
	e.mu.Lock()
	defer e.mu.Unlock()
	return membership.Partition(e.model, e.open)
}

// PublicBooks returns the books marked public in the current snapshot.
func (e *Engine) PublicBooks() []*types.Book {
	return e.Model().PublicBooks()
}

// ToggleShelf flips a shelf between open and closed and persists the new
// state. Returns ErrNotFound for a key that names no current shelf.
func (e *Engine) ToggleShelf(ctx context.Context, key string) (bool, error) {
	if err := e.loadOpenState(ctx); err != nil {
		return false, err
	}
	e.mu.Lock()
	if !slices.Contains(membership.ShelfKeys(e.model), key) {
		e.mu.Unlock()
		return false, fmt.Errorf("toggling shelf %s: %w", key, types.ErrNotFound)
	}
	open := e.open.Toggle(key)
	e.mu.Unlock()

	if e.shelves == nil {
		return open, nil
	}
	if err := e.shelves.SaveShelfState(ctx, key, open); err != nil {
		e.mu.Lock()
		// Leave a newer toggle of the same shelf in place.
		if e.open[key] == open {
			e.open[key] = !open
		}
		current := e.open[key]
		e.mu.Unlock()
		return current, fmt.Errorf("saving shelf %s: %w", key, err)
	}
	return open, nil
}

// beginRemoval claims the removal guard. It returns false when another
// removal or deletion is in flight.
func (e *Engine) beginRemoval() bool {
	return e.removing.CompareAndSwap(false, true)
}

func (e *Engine) endRemoval() {
	e.removing.Store(false)
}

// commit refreshes after a successful write. The write stands even when the
// refresh fails, so the outcome is Applied either way.
func (e *Engine) commit(ctx context.Context) (Outcome, error) {
	if err := e.Refresh(ctx); err != nil {
		return Applied, err
	}
	return Applied, nil
}

func bookField(id string) zap.Field     { return zap.String("book", id) }
func categoryField(id string) zap.Field { return zap.String("category", id) }
func zapTarget(t Target) zap.Field      { return zap.Stringer("target", t) }
