package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/shelfmark/internal/engine"
	"github.com/mesh-intelligence/shelfmark/internal/membership"
	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// harness runs shelf commands against throwaway config and data dirs.
type harness struct {
	t         *testing.T
	configDir string
	dataDir   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("SHELF_USER", "")
	return &harness{t: t, configDir: t.TempDir(), dataDir: t.TempDir()}
}

// run executes one command with stdin as the terminal input and returns
// what it wrote to stdout.
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(append([]string{"--config-dir", h.configDir, "--data-dir", h.dataDir}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// must runs a command that is expected to succeed.
func (h *harness) must(args ...string) string {
	h.t.Helper()
	out, err := h.run("", args...)
	require.NoError(h.t, err, "shelf %s", strings.Join(args, " "))
	return out
}

func (h *harness) books() []types.Book {
	h.t.Helper()
	var books []types.Book
	require.NoError(h.t, json.Unmarshal([]byte(h.must("book", "list", "-o", "json")), &books))
	return books
}

func (h *harness) book(id string) types.Book {
	h.t.Helper()
	var b types.Book
	require.NoError(h.t, json.Unmarshal([]byte(h.must("book", "show", id, "-o", "json")), &b))
	return b
}

// addBook adds a hand-entered book and returns its generated ID.
func (h *harness) addBook(title string, extra ...string) string {
	h.t.Helper()
	var r result
	args := append([]string{"book", "add", "--title", title, "-o", "json"}, extra...)
	require.NoError(h.t, json.Unmarshal([]byte(h.must(args...)), &r))
	require.Equal(h.t, "applied", r.Outcome)
	for _, b := range h.books() {
		if b.Title == title {
			return b.BookID
		}
	}
	h.t.Fatalf("book %q not listed after add", title)
	return ""
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out := h.must("version")
	assert.Contains(t, out, "shelf v")
	assert.Contains(t, out, "github.com/mesh-intelligence/shelfmark")
}

func TestInit(t *testing.T) {
	h := newHarness(t)
	out := h.must("init")
	assert.Contains(t, out, "Library initialized at "+h.dataDir)

	data, err := os.ReadFile(filepath.Join(h.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")

	// Second run keeps the existing config.
	require.NoError(t, os.WriteFile(filepath.Join(h.configDir, "config.yaml"), []byte("backend: sqlite\nuser: reader\n"), 0o644))
	h.must("init")
	data, err = os.ReadFile(filepath.Join(h.configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "backend: sqlite\nuser: reader\n", string(data))
}

func TestInit_BadConfig(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.configDir, "config.yaml"), []byte("backend: postgres\n"), 0o644))
	_, err := h.run("", "init")
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestCategoryLifecycle(t *testing.T) {
	h := newHarness(t)

	out := h.must("category", "add", "  Cozy Fantasy  ")
	assert.Contains(t, out, `Created "Cozy Fantasy" (cozy-fantasy).`)

	out = h.must("category", "add", "cozy   fantasy")
	assert.Contains(t, out, "already exists")

	h.must("category", "rename", "cozy-fantasy", "Cozy", "Reads")

	var rows []categoryRow
	require.NoError(t, json.Unmarshal([]byte(h.must("category", "list", "-o", "json")), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "cozy-fantasy", rows[0].CategoryID)
	assert.Equal(t, "Cozy Reads", rows[0].Name)
	assert.Zero(t, rows[0].Books)

	out = h.must("category", "delete", "cozy-fantasy", "--yes")
	assert.Contains(t, out, "Deleted category cozy-fantasy.")
	assert.Contains(t, h.must("category", "list"), "No categories.")
}

func TestCategoryDelete_CascadeKeepsBooks(t *testing.T) {
	h := newHarness(t)
	h.must("category", "add", "Sci Fi")
	h.must("category", "add", "Classics")
	id := h.addBook("Dune", "--status", "completed", "--rating", "4.5", "--category", "sci-fi", "--category", "classics")

	h.must("category", "delete", "sci-fi", "--yes")

	b := h.book(id)
	assert.Equal(t, []string{"classics"}, b.Categories)
	assert.Equal(t, types.StatusCompleted, b.Status)
	assert.Equal(t, 4.5, b.Rating)
}

func TestBookAdd_Manual(t *testing.T) {
	h := newHarness(t)
	id := h.addBook("Piranesi", "--author", "Susanna Clarke", "--rating", "5")

	b := h.book(id)
	assert.NotEmpty(t, b.BookID)
	assert.Equal(t, "Susanna Clarke", b.Author)
	assert.Equal(t, types.StatusToRead, b.Status)
	assert.Zero(t, b.Rating, "rating is dropped for books not completed")

	out := h.must("book", "show", id)
	assert.Contains(t, out, "Title:      Piranesi")
	assert.Contains(t, out, "Status:     TO READ")
}

func TestBookAdd_Errors(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		args []string
		want error
		code int
	}{
		{"no title", []string{"book", "add"}, nil, exitUserError},
		{"unknown category", []string{"book", "add", "--title", "X", "--category", "nope"}, types.ErrInvalidCategory, exitUserError},
		{"bad status", []string{"book", "add", "--title", "X", "--status", "shelved"}, types.ErrInvalidState, exitUserError},
		{"bad rating", []string{"book", "add", "--title", "X", "--status", "completed", "--rating", "4.2"}, types.ErrInvalidRating, exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run("", tt.args...)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Equal(t, tt.code, exitCode(err))
		})
	}
}

func TestBookListFilters(t *testing.T) {
	h := newHarness(t)
	h.must("category", "add", "Horror")
	dune := h.addBook("Dune", "--status", "in-progress")
	it := h.addBook("It", "--category", "horror", "--public")

	ids := func(args ...string) []string {
		var books []types.Book
		out := h.must(append([]string{"book", "list", "-o", "json"}, args...)...)
		require.NoError(t, json.Unmarshal([]byte(out), &books))
		var got []string
		for _, b := range books {
			got = append(got, b.BookID)
		}
		return got
	}

	assert.Equal(t, []string{dune, it}, ids())
	assert.Equal(t, []string{dune}, ids("--status", "in-progress"))
	assert.Equal(t, []string{it}, ids("--category", "horror"))
	assert.Equal(t, []string{dune}, ids("--unassigned"))
	assert.Equal(t, []string{it}, ids("--public"))

	_, err := h.run("", "book", "list", "--public", "--unassigned")
	assert.Equal(t, exitUserError, exitCode(err))
	_, err = h.run("", "book", "list", "--category", "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestBookEdit(t *testing.T) {
	h := newHarness(t)
	h.must("category", "add", "Keepers")
	id := h.addBook("Emma")

	_, err := h.run("", "book", "edit", id, "--rating", "4")
	assert.ErrorIs(t, err, types.ErrInvalidRating)

	h.must("book", "edit", id, "--status", "completed", "--rating", "4", "--review", "Sharp.", "--category", "keepers")
	b := h.book(id)
	assert.Equal(t, types.StatusCompleted, b.Status)
	assert.Equal(t, 4.0, b.Rating)
	assert.Equal(t, "Sharp.", b.Review)
	assert.Equal(t, []string{"keepers"}, b.Categories)

	out := h.must("book", "edit", id, "--status", "completed")
	assert.Contains(t, out, "Nothing to change.")

	h.must("book", "edit", id, "--category", "")
	assert.Empty(t, h.book(id).Categories)

	_, err = h.run("", "book", "edit", id)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestBookDelete(t *testing.T) {
	h := newHarness(t)
	id := h.addBook("Emma")

	out, err := h.run("n\n", "book", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	assert.Len(t, h.books(), 1)

	out, err = h.run("y\n", "book", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+id)
	assert.Empty(t, h.books())

	_, err = h.run("", "book", "delete", id, "--yes")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDragAndRemove(t *testing.T) {
	h := newHarness(t)
	h.must("category", "add", "Sci Fi")
	h.must("category", "add", "Favorites")
	id := h.addBook("Dune", "--category", "favorites")

	h.must("drag", id, "--to", "category:sci-fi", "--yes")
	assert.ElementsMatch(t, []string{"favorites", "sci-fi"}, h.book(id).Categories)

	out := h.must("drag", id, "--to", "category:sci-fi", "--yes")
	assert.Contains(t, out, "Nothing to change.")

	h.must("drag", id, "--to", "status:completed", "--yes")
	assert.Equal(t, types.StatusCompleted, h.book(id).Status)

	h.must("drag", id, "--from", "sci-fi", "--to", "remove:origin", "--yes")
	assert.Equal(t, []string{"favorites"}, h.book(id).Categories)

	h.must("remove", id, "--category", "favorites", "--yes")
	assert.Empty(t, h.book(id).Categories)
	assert.Equal(t, types.StatusCompleted, h.book(id).Status)
}

func TestDrag_RemoveAllAndDecline(t *testing.T) {
	h := newHarness(t)
	h.must("category", "add", "A")
	h.must("category", "add", "B")
	id := h.addBook("Dune", "--category", "a", "--category", "b")

	out, err := h.run("no\n", "drag", id, "--to", "remove:all")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	assert.Len(t, h.book(id).Categories, 2)

	// End of input declines too.
	out, err = h.run("", "remove", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")

	_, err = h.run("yes\n", "remove", id)
	require.NoError(t, err)
	assert.Empty(t, h.book(id).Categories)
}

func TestDrag_Errors(t *testing.T) {
	h := newHarness(t)
	h.must("category", "add", "A")
	id := h.addBook("Dune")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown book", []string{"drag", "missing", "--to", "status:completed"}, types.ErrNotFound},
		{"bad target", []string{"drag", id, "--to", "shelf:a"}, types.ErrInvalidTransition},
		{"bad status", []string{"drag", id, "--to", "status:shelved"}, types.ErrInvalidState},
		{"origin not a member", []string{"drag", id, "--from", "a", "--to", "remove:origin"}, types.ErrInvalidCategory},
		{"remove origin without origin", []string{"drag", id, "--to", "remove:origin", "--yes"}, types.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run("", tt.args...)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, exitUserError, exitCode(err))
		})
	}

	_, err := h.run("", "drag", id)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestShelvesAndToggle(t *testing.T) {
	h := newHarness(t)
	h.must("category", "add", "Horror")
	h.addBook("It", "--category", "horror")

	var shelves []membership.Shelf
	require.NoError(t, json.Unmarshal([]byte(h.must("shelves", "-o", "json")), &shelves))
	var keys []string
	for _, s := range shelves {
		keys = append(keys, s.Key)
		assert.False(t, s.Open, "shelf %s starts closed", s.Key)
	}
	assert.Equal(t, []string{"to-read", "in-progress", "completed", "unassigned", "horror"}, keys)
	assert.True(t, shelves[4].Custom)

	out := h.must("toggle", "horror")
	assert.Contains(t, out, "Shelf horror is open.")

	out = h.must("shelves")
	assert.Contains(t, out, "- Horror [horror] (1)")
	assert.Contains(t, out, "It by")
	assert.Contains(t, out, "+ TO READ [to-read] (1)")

	_, err := h.run("", "toggle", "nope")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestShelves_YAML(t *testing.T) {
	h := newHarness(t)
	var shelves []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(h.must("shelves", "-o", "yaml")), &shelves))
	require.Len(t, shelves, 4)
	assert.Equal(t, membership.UnassignedTitle, shelves[3]["title"])
}

const catalogJSON = `{"totalItems": 1, "items": [{"id": "vol-42", "volumeInfo": {
  "title": "The Hitchhiker's Guide to the Galaxy",
  "authors": ["Douglas Adams"],
  "publishedDate": "1979-10-12"}}]}`

func TestBookSearchAndAddFromCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/volumes":
			_, _ = w.Write([]byte(catalogJSON))
		case "/volumes/vol-42":
			_, _ = w.Write([]byte(`{"id": "vol-42", "volumeInfo": {"title": "The Hitchhiker's Guide to the Galaxy", "authors": ["Douglas Adams"], "publishedDate": "1979-10-12"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	t.Setenv("SHELF_CATALOG_BASE_URL", srv.URL)

	h := newHarness(t)
	out := h.must("book", "search", "hitchhiker")
	assert.Contains(t, out, "vol-42  The Hitchhiker's Guide to the Galaxy (1979) by Douglas Adams")

	h.must("book", "add", "vol-42", "--status", "completed", "--rating", "5")
	b := h.book("vol-42")
	assert.Equal(t, "Douglas Adams", b.Author)
	assert.Equal(t, "1979", b.Year)
	assert.Equal(t, 5.0, b.Rating)

	_, err := h.run("", "book", "add", "vol-42")
	assert.ErrorIs(t, err, types.ErrDuplicateBook)

	_, err = h.run("", "book", "add", "vol-missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestProfile(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "profile", "show")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = h.run("", "profile", "set", "--bio", "No name yet")
	assert.ErrorIs(t, err, types.ErrInvalidName)

	out := h.must("profile", "set", "--name", "  Ada  ", "--email", "ada@example.com")
	assert.Contains(t, out, "Profile saved for Ada.")

	h.must("profile", "set", "--bio", "Reads everything.")

	var p types.Profile
	require.NoError(t, yaml.Unmarshal([]byte(h.must("profile", "show", "-o", "yaml")), &p))
	assert.Equal(t, "local", p.UserID)
	assert.Equal(t, "Ada", p.DisplayName)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, "Reads everything.", p.Bio)
}

func TestPublicLibrary(t *testing.T) {
	h := newHarness(t)
	shared := h.addBook("Middlemarch", "--public")
	h.addBook("Diary")

	var books []types.Book
	require.NoError(t, json.Unmarshal([]byte(h.must("public", "-o", "json")), &books))
	require.Len(t, books, 1)
	assert.Equal(t, shared, books[0].BookID)

	out := h.must("--user", "visitor", "public", "local")
	assert.Contains(t, out, "Public library of local")
	assert.Contains(t, out, "Middlemarch")
	assert.NotContains(t, out, "Diary")

	out = h.must("public", "nobody")
	assert.Contains(t, out, "No books.")
}

func TestUserScoping(t *testing.T) {
	h := newHarness(t)
	h.addBook("Mine")

	out := h.must("--user", "someone-else", "book", "list")
	assert.Contains(t, out, "No books.")
}

func TestUnknownOutputFormat(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "shelves", "-o", "xml")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"usage", usageError{errors.New("bad flag")}, exitUserError},
		{"not found", fmt.Errorf("getting book x: %w", types.ErrNotFound), exitUserError},
		{"rejected", errRejected, exitUserError},
		{"system", errors.New("disk on fire"), exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestPrompter(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"y", true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			var out bytes.Buffer
			p := newPrompter(strings.NewReader(tt.input), &out)
			pr := engine.Prompt{Title: "Delete Book?", Text: "This will permanently remove the book from your library."}
			assert.Equal(t, tt.want, p.confirm(context.Background(), pr))
			assert.Contains(t, out.String(), "Delete Book? This will permanently remove")
		})
	}
}

func TestPrompter_CanceledContext(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("y\n"), &out)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, p.confirm(ctx, engine.Prompt{Title: "Delete Book?"}))
	assert.Empty(t, out.String())
}
