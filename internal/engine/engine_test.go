package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/shelfmark/internal/membership"
	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

var errStore = errors.New("store unavailable")

// setup builds an engine over s, refreshed, answering prompts with answer.
func setup(t *testing.T, s *memStore, answer bool) (*Engine, *prompter) {
	t.Helper()
	p := &prompter{answer: answer}
	e, err := New(Options{Store: s, Shelves: s, Confirm: p.confirm, Logger: zap.NewNop()})
	require.NoError(t, err)
	require.NoError(t, e.Refresh(context.Background()))
	return e, p
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestScenario_DragOntoCategory(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune", Status: types.StatusToRead})
	s.seedCategory("scifi", "Sci-Fi")
	e, p := setup(t, s, true)
	ctx := context.Background()

	require.NoError(t, e.StartDrag("b1", ""))
	out, err := e.DropOnCategory(ctx, "scifi")
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	assert.Equal(t, 1, p.count())

	b := s.book("b1")
	assert.Equal(t, []string{"scifi"}, b.Categories)
	assert.Equal(t, types.StatusToRead, b.Status)
	assert.Equal(t, Idle, e.Gesture().Phase)

	got, ok := e.Model().Book("b1")
	require.True(t, ok)
	assert.Equal(t, []string{"scifi"}, got.Categories, "model refreshed after write")
}

func TestScenario_RemoveFromDraggedCategory(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune", Categories: []string{"scifi"}})
	s.seedCategory("scifi", "Sci-Fi")
	e, _ := setup(t, s, true)

	require.NoError(t, e.StartDrag("b1", "scifi"))
	out, err := e.DropRemoveFromOrigin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	assert.Empty(t, s.book("b1").Categories)
}

func TestScenario_CreateCozyFantasy(t *testing.T) {
	s := newMemStore()
	e, _ := setup(t, s, true)

	cat, out, err := e.CreateCategory(context.Background(), "  Cozy Fantasy  ")
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	assert.Equal(t, "cozy-fantasy", cat.CategoryID)
	assert.Equal(t, "Cozy Fantasy", cat.Name)
	assert.Equal(t, []string{"cozy-fantasy"}, s.categoryIDs())

	got, ok := e.Model().Category("cozy-fantasy")
	require.True(t, ok)
	assert.Empty(t, e.Model().BooksByCategory(got.CategoryID), "new category has no members")
}

func TestUnionAddIsIdempotent(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune"})
	s.seedCategory("scifi", "Sci-Fi")
	e, p := setup(t, s, true)
	ctx := context.Background()

	for i, want := range []Outcome{Applied, Noop} {
		require.NoError(t, e.StartDrag("b1", ""))
		out, err := e.DropOnCategory(ctx, "scifi")
		require.NoError(t, err)
		assert.Equal(t, want, out, "drop %d", i)
	}
	assert.Equal(t, []string{"scifi"}, s.book("b1").Categories)
	assert.Equal(t, 1, p.count(), "no prompt for a repeated add")

	for _, id := range []string{"scifi", ""} {
		out, err := e.AddToCategory(ctx, "b1", id)
		require.NoError(t, err)
		assert.Equal(t, Noop, out, "category %q", id)
	}
	assert.Equal(t, []string{"scifi"}, s.book("b1").Categories)
}

func TestStatusIsSingleValued(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune", Categories: []string{"scifi"}})
	s.seedCategory("scifi", "Sci-Fi")
	e, _ := setup(t, s, true)
	ctx := context.Background()

	for _, status := range []string{types.StatusCompleted, types.StatusInProgress, types.StatusToRead, types.StatusCompleted} {
		require.NoError(t, e.StartDrag("b1", ""))
		out, err := e.DropOnStatus(ctx, status)
		require.NoError(t, err)
		assert.Equal(t, Applied, out)

		b := s.book("b1")
		assert.Equal(t, status, b.Status)
		assert.Equal(t, []string{"scifi"}, b.Categories, "status changes leave categories alone")

		held := 0
		for _, st := range types.Statuses {
			held += len(e.Model().BooksByStatus(st))
		}
		assert.Equal(t, 1, held, "book sits on exactly one status shelf")
	}

	require.NoError(t, e.StartDrag("b1", ""))
	out, err := e.DropOnStatus(ctx, types.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, Noop, out)

	out, err = e.SetStatus(ctx, "b1", types.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	assert.Equal(t, types.StatusInProgress, s.book("b1").Status)

	writes := s.writeCount()
	_, err = e.SetStatus(ctx, "b1", "abandoned")
	assert.ErrorIs(t, err, types.ErrInvalidState)
	assert.Equal(t, writes, s.writeCount())
}

func TestRemoveFromOriginLeavesOtherCategories(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune", Categories: []string{"x", "y"}})
	s.seedCategory("x", "X")
	s.seedCategory("y", "Y")
	e, _ := setup(t, s, true)

	require.NoError(t, e.StartDrag("b1", "x"))
	out, err := e.DropRemoveFromOrigin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	assert.Equal(t, []string{"y"}, s.book("b1").Categories)
}

func TestRemoveFromAll(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune", Status: types.StatusCompleted, Rating: 4, Categories: []string{"x", "y"}})
	s.seedBook(&types.Book{BookID: "b2", Title: "Emma"})
	s.seedCategory("x", "X")
	s.seedCategory("y", "Y")
	e, p := setup(t, s, true)
	ctx := context.Background()

	require.NoError(t, e.StartDrag("b1", "x"))
	out, err := e.DropRemoveFromAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	b := s.book("b1")
	assert.Empty(t, b.Categories)
	assert.Equal(t, types.StatusCompleted, b.Status)
	assert.Equal(t, float64(4), b.Rating)

	out, err = e.RemoveFromCategory(ctx, "b2", "")
	require.NoError(t, err)
	assert.Equal(t, Noop, out, "nothing to clear")
	assert.Equal(t, 1, p.count())
}

func TestExplicitRemoval(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune", Categories: []string{"x", "y"}})
	s.seedCategory("x", "X")
	s.seedCategory("y", "Y")
	e, p := setup(t, s, true)
	ctx := context.Background()

	out, err := e.RemoveFromCategory(ctx, "b1", "y")
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	assert.Equal(t, []string{"x"}, s.book("b1").Categories)
	require.Equal(t, 1, p.count())
	assert.Equal(t, ActionRemoveFromCategory, p.prompts[0].Action)
	assert.Equal(t, "Remove from this category?", p.prompts[0].Title)

	out, err = e.RemoveFromCategory(ctx, "b1", "y")
	require.NoError(t, err)
	assert.Equal(t, Noop, out)

	_, err = e.RemoveFromCategory(ctx, "ghost", "x")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeclineLeavesStoreUntouched(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune", Categories: []string{"x"}})
	s.seedCategory("x", "X")
	s.seedCategory("y", "Y")
	e, p := setup(t, s, false)
	ctx := context.Background()

	drops := []func() (Outcome, error){
		func() (Outcome, error) { return e.DropOnCategory(ctx, "y") },
		func() (Outcome, error) { return e.DropOnStatus(ctx, types.StatusCompleted) },
		func() (Outcome, error) { return e.DropRemoveFromOrigin(ctx) },
		func() (Outcome, error) { return e.DropRemoveFromAll(ctx) },
	}
	for i, drop := range drops {
		require.NoError(t, e.StartDrag("b1", "x"))
		out, err := drop()
		require.NoError(t, err)
		assert.Equal(t, Declined, out, "drop %d", i)
		assert.Equal(t, Idle, e.Gesture().Phase)
	}

	out, err := e.DeleteCategory(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, Declined, out)
	out, err = e.DeleteBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, Declined, out)

	assert.Equal(t, 6, p.count())
	assert.Zero(t, s.writeCount())
	assert.Equal(t, []string{"x"}, s.book("b1").Categories)
}

func TestCancelDrag(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune"})
	e, p := setup(t, s, true)

	assert.False(t, e.CancelDrag())
	require.NoError(t, e.StartDrag("b1", ""))
	assert.Equal(t, Gesture{Phase: Dragging, BookID: "b1"}, e.Gesture())
	assert.True(t, e.CancelDrag())
	assert.Equal(t, Gesture{}, e.Gesture())
	assert.Zero(t, p.count())
	assert.Zero(t, s.writeCount())
}

func TestGestureTransitions(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune", Categories: []string{"x"}})
	s.seedBook(&types.Book{BookID: "b2", Title: "Emma"})
	s.seedCategory("x", "X")
	e, _ := setup(t, s, true)
	ctx := context.Background()

	_, err := e.DropOnStatus(ctx, types.StatusCompleted)
	assert.ErrorIs(t, err, types.ErrInvalidTransition, "drop while idle")

	assert.ErrorIs(t, e.StartDrag("ghost", ""), types.ErrNotFound)
	assert.ErrorIs(t, e.StartDrag("b2", "x"), types.ErrInvalidCategory, "b2 is not on shelf x")
	assert.ErrorIs(t, e.StartDrag("b1", "nope"), types.ErrInvalidCategory)

	require.NoError(t, e.StartDrag("b2", ""))
	assert.ErrorIs(t, e.StartDrag("b1", ""), types.ErrInvalidTransition)
	_, err = e.DropRemoveFromOrigin(ctx)
	assert.ErrorIs(t, err, types.ErrInvalidTransition, "remove-origin needs a category origin")
	assert.Equal(t, Idle, e.Gesture().Phase, "every drop ends the gesture")

	require.NoError(t, e.StartDrag("b2", ""))
	_, err = e.DropOnCategory(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrInvalidCategory)
	assert.Zero(t, s.writeCount())
}

func TestDropTargets(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune", Categories: []string{"x"}})
	s.seedCategory("x", "X")
	e, _ := setup(t, s, true)

	assert.Nil(t, e.DropTargets())

	require.NoError(t, e.StartDrag("b1", ""))
	plain := e.DropTargets()
	assert.NotContains(t, plain, Target{Kind: TargetRemoveOrigin})
	assert.Contains(t, plain, Target{Kind: TargetCategory, ID: "x"})
	assert.Contains(t, plain, Target{Kind: TargetStatus, ID: types.StatusInProgress})
	assert.Contains(t, plain, Target{Kind: TargetRemoveAll})
	e.CancelDrag()

	require.NoError(t, e.StartDrag("b1", "x"))
	assert.Contains(t, e.DropTargets(), Target{Kind: TargetRemoveOrigin})
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    Target
		wantErr error
	}{
		{"category:sci-fi", Target{Kind: TargetCategory, ID: "sci-fi"}, nil},
		{"status:completed", Target{Kind: TargetStatus, ID: "completed"}, nil},
		{"remove:origin", Target{Kind: TargetRemoveOrigin}, nil},
		{"remove:all", Target{Kind: TargetRemoveAll}, nil},
		{"status:done", Target{}, types.ErrInvalidState},
		{"remove:some", Target{}, types.ErrInvalidTransition},
		{"category:", Target{}, types.ErrInvalidTransition},
		{"shelf", Target{}, types.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTarget(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}
}

func TestDeleteCategoryCascade(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "A", Status: types.StatusCompleted, Rating: 5, Categories: []string{"x", "y"}})
	s.seedBook(&types.Book{BookID: "b2", Title: "B", Status: types.StatusInProgress, Categories: []string{"x"}})
	s.seedBook(&types.Book{BookID: "b3", Title: "C", Categories: []string{"y"}})
	s.seedCategory("x", "X")
	s.seedCategory("y", "Y")
	e, p := setup(t, s, true)

	out, err := e.DeleteCategory(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	require.Equal(t, 1, p.count())
	assert.Equal(t, "This will remove the category but not delete any books.", p.prompts[0].Text)

	assert.Equal(t, []string{"y"}, s.categoryIDs())
	b1, b2, b3 := s.book("b1"), s.book("b2"), s.book("b3")
	assert.Equal(t, []string{"y"}, b1.Categories)
	assert.Equal(t, types.StatusCompleted, b1.Status)
	assert.Equal(t, float64(5), b1.Rating)
	assert.Empty(t, b2.Categories)
	assert.Equal(t, types.StatusInProgress, b2.Status)
	assert.Equal(t, []string{"y"}, b3.Categories)

	_, ok := e.Model().Category("x")
	assert.False(t, ok)
	assert.Len(t, e.Model().Books(), 3, "no book is deleted")

	_, err = e.DeleteCategory(context.Background(), "x")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteCategoryCascadeFailure(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "A", Categories: []string{"x"}})
	s.seedBook(&types.Book{BookID: "b2", Title: "B", Categories: []string{"x"}})
	s.seedCategory("x", "X")
	e, _ := setup(t, s, true)
	s.failWrite, s.failBookID = errStore, "b2"

	out, err := e.DeleteCategory(context.Background(), "x")
	assert.ErrorIs(t, err, errStore)
	assert.Equal(t, Applied, out, "the category document is gone")
	assert.Empty(t, s.book("b1").Categories, "other books are still attempted")
	assert.Equal(t, []string{"x"}, s.book("b2").Categories)

	_, ok := e.Model().Category("x")
	assert.True(t, ok, "model keeps its last snapshot until refreshed")
}

func TestRemovalsAreMutuallyExclusive(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune", Categories: []string{"x", "y"}})
	s.seedCategory("x", "X")
	s.seedCategory("y", "Y")

	entered := make(chan struct{})
	release := make(chan struct{})
	prompts := 0
	e, err := New(Options{
		Store: s,
		Confirm: func(context.Context, Prompt) bool {
			prompts++
			close(entered)
			<-release
			return true
		},
	})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, e.Refresh(ctx))

	type result struct {
		out Outcome
		err error
	}
	first := make(chan result, 1)
	go func() {
		out, err := e.RemoveFromCategory(ctx, "b1", "x")
		first <- result{out, err}
	}()
	<-entered

	second := []func() (Outcome, error){
		func() (Outcome, error) { return e.RemoveFromCategory(ctx, "b1", "x") },
		func() (Outcome, error) { return e.RemoveFromCategory(ctx, "b1", "") },
		func() (Outcome, error) { return e.DeleteCategory(ctx, "y") },
		func() (Outcome, error) { return e.DeleteBook(ctx, "b1") },
		func() (Outcome, error) {
			require.NoError(t, e.StartDrag("b1", "x"))
			return e.DropRemoveFromOrigin(ctx)
		},
	}
	for i, op := range second {
		out, err := op()
		require.NoError(t, err, "op %d", i)
		assert.Equal(t, Rejected, out, "op %d", i)
	}

	close(release)
	select {
	case r := <-first:
		require.NoError(t, r.err)
		assert.Equal(t, Applied, r.out)
	case <-time.After(5 * time.Second):
		t.Fatal("first removal did not finish")
	}

	assert.Equal(t, 1, prompts)
	assert.Equal(t, []string{"y"}, s.book("b1").Categories)
	assert.Equal(t, []string{"x", "y"}, s.categoryIDs())
}

func TestStoreFailureKeepsSnapshot(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune"})
	s.seedCategory("x", "X")
	e, _ := setup(t, s, true)
	ctx := context.Background()
	before := e.Model()

	s.failWrite = errStore
	require.NoError(t, e.StartDrag("b1", ""))
	out, err := e.DropOnCategory(ctx, "x")
	assert.ErrorIs(t, err, errStore)
	assert.Equal(t, Failed, out)
	assert.Same(t, before, e.Model())
	assert.Equal(t, Idle, e.Gesture().Phase)

	_, out, err = e.CreateCategory(ctx, "Poetry")
	assert.ErrorIs(t, err, errStore)
	assert.Equal(t, Failed, out)
	assert.Same(t, before, e.Model())
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune"})
	e, _ := setup(t, s, true)
	before := e.Model()

	s.failList = errStore
	assert.ErrorIs(t, e.Refresh(context.Background()), errStore)
	assert.Same(t, before, e.Model())

	s.failList = nil
	out, err := e.SetStatus(context.Background(), "b1", types.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
}

func TestCreateCategoryNoops(t *testing.T) {
	s := newMemStore()
	s.seedCategory("sci-fi", "Sci-Fi")
	e, _ := setup(t, s, true)
	ctx := context.Background()

	for _, name := range []string{"", "   ", "\t\n"} {
		cat, out, err := e.CreateCategory(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, Noop, out)
		assert.Nil(t, cat)
	}

	cat, out, err := e.CreateCategory(ctx, "SCI-FI")
	require.NoError(t, err)
	assert.Equal(t, Noop, out)
	assert.Equal(t, "Sci-Fi", cat.Name, "existing category wins")
	assert.Zero(t, s.writeCount())
}

func TestRenameCategory(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune", Categories: []string{"sci-fi"}})
	s.seedCategory("sci-fi", "Sci-Fi")
	e, _ := setup(t, s, true)
	ctx := context.Background()

	out, err := e.RenameCategory(ctx, "sci-fi", "  Science Fiction ")
	require.NoError(t, err)
	assert.Equal(t, Applied, out)

	shelf, ok := membership.Find(e.Shelves(), "sci-fi")
	require.True(t, ok)
	assert.Equal(t, "Science Fiction", shelf.Title)
	assert.Equal(t, []string{"sci-fi"}, s.book("b1").Categories, "books keep the id")

	for _, name := range []string{"", "Science Fiction"} {
		out, err = e.RenameCategory(ctx, "sci-fi", name)
		require.NoError(t, err)
		assert.Equal(t, Noop, out)
	}
	_, err = e.RenameCategory(ctx, "fantasy", "Fantasy")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestShelvesAndOpenState(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune", Status: types.StatusCompleted})
	s.seedCategory("x", "X")
	s.shelf[types.StatusCompleted] = true
	e, _ := setup(t, s, true)
	ctx := context.Background()

	shelves := e.Shelves()
	require.Len(t, shelves, 5)
	for _, sh := range shelves {
		assert.Equal(t, sh.Key == types.StatusCompleted, sh.Open, sh.Key)
	}
	assert.Len(t, s.shelf, 5, "new keys are saved closed")
	assert.False(t, s.shelf["x"])

	open, err := e.ToggleShelf(ctx, "x")
	require.NoError(t, err)
	assert.True(t, open)
	assert.True(t, s.shelf["x"])

	_, err = e.ToggleShelf(ctx, "nope")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, _, err = e.CreateCategory(ctx, "Poetry")
	require.NoError(t, err)
	sh, ok := membership.Find(e.Shelves(), "poetry")
	require.True(t, ok)
	assert.False(t, sh.Open)
	assert.True(t, sh.Custom)
}

func TestToggleShelf_BeforeFirstRefresh(t *testing.T) {
	s := newMemStore()
	s.seedCategory("x", "X")
	s.shelf["x"] = true
	e, err := New(Options{Store: s, Shelves: s, Logger: zap.NewNop()})
	require.NoError(t, err)
	ctx := context.Background()

	open, err := e.ToggleShelf(ctx, types.StatusToRead)
	require.NoError(t, err)
	assert.True(t, open)
	require.NoError(t, e.Refresh(ctx))

	sh, ok := membership.Find(e.Shelves(), "x")
	require.True(t, ok)
	assert.True(t, sh.Open, "stored state survives an early toggle")
	assert.True(t, s.shelf["x"])
	assert.True(t, s.shelf[types.StatusToRead])
	assert.Contains(t, s.shelf, types.StatusInProgress, "unseen keys are saved")
}

func TestToggleShelf_SaveFailure(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		concurrent bool
		wantOpen   bool
		wantStored bool
	}{
		{name: "reverts", wantOpen: false, wantStored: false},
		{name: "keeps newer toggle", concurrent: true, wantOpen: false, wantStored: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMemStore()
			s.seedCategory("x", "X")
			e, _ := setup(t, s, true)

			s.failShelf = errors.New("disk full")
			if tt.concurrent {
				s.shelfHook = func() {
					s.mu.Lock()
					s.failShelf = nil
					s.mu.Unlock()
					open, err := e.ToggleShelf(ctx, "x")
					assert.NoError(t, err)
					assert.False(t, open)
				}
			}
			open, err := e.ToggleShelf(ctx, "x")
			require.Error(t, err)
			assert.Equal(t, tt.wantOpen, open)

			sh, ok := membership.Find(e.Shelves(), "x")
			require.True(t, ok)
			assert.Equal(t, tt.wantOpen, sh.Open)
			assert.Equal(t, tt.wantStored, s.shelf["x"])
		})
	}
}

func TestAddAndEditBook(t *testing.T) {
	s := newMemStore()
	s.seedCategory("x", "X")
	e, _ := setup(t, s, true)
	ctx := context.Background()

	book := &types.Book{BookID: "vol-1", Title: "Dune", Rating: 4, Categories: []string{"x"}}
	out, err := e.AddBook(ctx, book)
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	assert.Equal(t, types.StatusToRead, book.Status)
	assert.Zero(t, s.book("vol-1").Rating, "rating dropped for an unread book")

	_, err = e.AddBook(ctx, &types.Book{BookID: "vol-1", Title: "Dune"})
	assert.ErrorIs(t, err, types.ErrDuplicateBook)
	_, err = e.AddBook(ctx, &types.Book{BookID: "vol-2", Title: "Emma", Categories: []string{"nope"}})
	assert.ErrorIs(t, err, types.ErrInvalidCategory)
	_, err = e.AddBook(ctx, &types.Book{BookID: "vol-3"})
	assert.ErrorIs(t, err, types.ErrInvalidName)

	rating := 3.5
	_, err = e.EditBook(ctx, "vol-1", types.BookUpdate{Rating: &rating})
	assert.ErrorIs(t, err, types.ErrInvalidRating, "not completed yet")

	status := types.StatusCompleted
	out, err = e.EditBook(ctx, "vol-1", types.BookUpdate{Status: &status, Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	got, _ := e.Model().Book("vol-1")
	assert.Equal(t, 3.5, got.EffectiveRating())

	out, err = e.EditBook(ctx, "vol-1", types.BookUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, Noop, out)

	out, err = e.SetStatus(ctx, "vol-1", types.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	got, _ = e.Model().Book("vol-1")
	assert.Equal(t, 3.5, got.Rating, "stored rating survives")
	assert.Zero(t, got.EffectiveRating())

	out, err = e.EditBook(ctx, "vol-1", types.BookUpdate{})
	require.NoError(t, err)
	assert.Equal(t, Noop, out)
	_, err = e.EditBook(ctx, "ghost", types.BookUpdate{Status: &status})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteBook(t *testing.T) {
	s := newMemStore()
	s.seedBook(&types.Book{BookID: "b1", Title: "Dune", IsPublic: true})
	e, p := setup(t, s, true)
	ctx := context.Background()
	assert.Len(t, e.PublicBooks(), 1)

	out, err := e.DeleteBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	assert.Equal(t, "Delete Book?", p.prompts[0].Title)
	assert.Nil(t, s.book("b1"))
	assert.Empty(t, e.Model().Books())
	assert.Empty(t, e.PublicBooks())

	_, err = e.DeleteBook(ctx, "b1")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "applied", Applied.String())
	assert.Equal(t, "rejected", Rejected.String())
	assert.Equal(t, "unknown", Outcome(42).String())
	assert.Equal(t, "dragging", Dragging.String())
}
