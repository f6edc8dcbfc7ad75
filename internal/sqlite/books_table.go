// This file implements the books table accessor for the SQLite backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

var _ types.Table = (*booksTable)(nil)

const bookColumns = "book_id, title, author, cover, summary, year, status, rating, review, categories, is_public, added_at, updated_at"

// bookFields lists the columns Update may change.
var bookFields = map[string]fieldSpec{
	types.FieldStatus:     {column: "status", convert: asStatus},
	types.FieldRating:     {column: "rating", convert: asRating},
	types.FieldReview:     {column: "review", convert: asString},
	types.FieldIsPublic:   {column: "is_public", convert: asBool},
	types.FieldCategories: {column: "categories", convert: asIDSet},
	"title":               {column: "title", convert: asName},
	"author":              {column: "author", convert: asString},
	"cover":               {column: "cover", convert: asString},
	"summary":             {column: "summary", convert: asString},
	"year":                {column: "year", convert: asString},
}

type booksTable struct {
	backend *Backend
	userID  string
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Get retrieves a book by ID.
func (t *booksTable) Get(ctx context.Context, id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	row := t.backend.db.QueryRowContext(ctx,
		"SELECT "+bookColumns+" FROM books WHERE user_id = ? AND book_id = ?",
		t.userID, id,
	)
	book, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting book %s: %w", id, err)
	}
	return book, nil
}

// Set creates or replaces a book. The ID is taken from id, then from the
// book itself, and generated as a UUID v7 when both are empty. The stored
// added_at of an existing book is preserved.
func (t *booksTable) Set(ctx context.Context, id string, data any) (string, error) {
	in, ok := data.(*types.Book)
	if !ok || in == nil {
		return "", types.ErrInvalidData
	}
	if id == "" {
		id = in.BookID
	}
	if id == "" {
		id = newUUID()
	}

	book := in.Clone()
	book.BookID = id
	book.Normalize()
	if err := book.Validate(); err != nil {
		return "", err
	}
	now := time.Now()
	if book.AddedAt.IsZero() {
		book.AddedAt = now
	}
	book.UpdatedAt = now

	cats, err := encodeIDs(book.Categories)
	if err != nil {
		return "", fmt.Errorf("encoding categories: %w", err)
	}

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	_, err = t.backend.db.ExecContext(ctx, `INSERT INTO books (user_id, `+bookColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, book_id) DO UPDATE SET
    title = excluded.title,
    author = excluded.author,
    cover = excluded.cover,
    summary = excluded.summary,
    year = excluded.year,
    status = excluded.status,
    rating = excluded.rating,
    review = excluded.review,
    categories = excluded.categories,
    is_public = excluded.is_public,
    updated_at = excluded.updated_at`,
		t.userID, book.BookID, book.Title, book.Author, book.Cover, book.Summary, book.Year,
		book.Status, book.Rating, book.Review, cats, boolInt(book.IsPublic),
		formatTime(book.AddedAt), formatTime(book.UpdatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("persisting book: %w", err)
	}
	if err := t.backend.schedulePersist(types.TableBooks); err != nil {
		return "", fmt.Errorf("persisting %s: %w", booksFile, err)
	}

	in.BookID = book.BookID
	in.Status = book.Status
	in.Categories = book.Categories
	in.AddedAt = book.AddedAt
	in.UpdatedAt = book.UpdatedAt
	return id, nil
}

// Update changes the named fields of an existing book and bumps updated_at.
func (t *booksTable) Update(ctx context.Context, id string, fields map[string]any) error {
	if id == "" {
		return types.ErrInvalidID
	}
	sets, args, err := buildUpdate(bookFields, fields)
	if err != nil {
		return err
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(time.Now()), t.userID, id)

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	res, err := t.backend.db.ExecContext(ctx,
		"UPDATE books SET "+strings.Join(sets, ", ")+" WHERE user_id = ? AND book_id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("updating book %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("updating book %s: %w", id, err)
	} else if n == 0 {
		return types.ErrNotFound
	}
	if err := t.backend.schedulePersist(types.TableBooks); err != nil {
		return fmt.Errorf("persisting %s: %w", booksFile, err)
	}
	return nil
}

// Delete removes a book by ID.
func (t *booksTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	res, err := t.backend.db.ExecContext(ctx,
		"DELETE FROM books WHERE user_id = ? AND book_id = ?", t.userID, id)
	if err != nil {
		return fmt.Errorf("deleting book %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("deleting book %s: %w", id, err)
	} else if n == 0 {
		return types.ErrNotFound
	}
	if err := t.backend.schedulePersist(types.TableBooks); err != nil {
		return fmt.Errorf("persisting %s: %w", booksFile, err)
	}
	return nil
}

// Fetch returns books in the order they were added. Supported filter keys:
// status (string), category_id (string), unassigned (bool), is_public (bool),
// limit and offset (int).
func (t *booksTable) Fetch(ctx context.Context, filter types.Filter) ([]any, error) {
	conditions := []string{"user_id = ?"}
	args := []any{t.userID}

	if s, ok, err := filterString(filter, "status"); err != nil {
		return nil, err
	} else if ok {
		conditions = append(conditions, "status = ?")
		args = append(args, s)
	}
	if s, ok, err := filterString(filter, "category_id"); err != nil {
		return nil, err
	} else if ok {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM json_each(books.categories) WHERE json_each.value = ?)")
		args = append(args, s)
	}
	if b, ok, err := filterBool(filter, "unassigned"); err != nil {
		return nil, err
	} else if ok {
		if b {
			conditions = append(conditions, "json_array_length(categories) = 0")
		} else {
			conditions = append(conditions, "json_array_length(categories) > 0")
		}
	}
	if b, ok, err := filterBool(filter, "is_public"); err != nil {
		return nil, err
	} else if ok {
		conditions = append(conditions, "is_public = ?")
		args = append(args, boolInt(b))
	}

	query := "SELECT " + bookColumns + " FROM books WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY added_at ASC, book_id ASC"
	query, err := appendPaging(query, filter)
	if err != nil {
		return nil, err
	}

	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	rows, err := t.backend.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching books: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating book: %w", err)
		}
		results = append(results, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating books: %w", err)
	}
	return results, nil
}

// scanBook converts one row selected with bookColumns into a *types.Book.
func scanBook(row rowScanner) (*types.Book, error) {
	var b types.Book
	var cats, addedAt, updatedAt string
	var isPublic int64
	err := row.Scan(&b.BookID, &b.Title, &b.Author, &b.Cover, &b.Summary, &b.Year,
		&b.Status, &b.Rating, &b.Review, &cats, &isPublic, &addedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if b.Categories, err = decodeIDs(cats); err != nil {
		return nil, fmt.Errorf("parsing categories: %w", err)
	}
	b.IsPublic = isPublic != 0
	if b.AddedAt, err = parseTime(addedAt); err != nil {
		return nil, fmt.Errorf("parsing added_at: %w", err)
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &b, nil
}

// persistBooksJSONL rewrites books.jsonl from SQLite. The caller must hold b.mu.
func (b *Backend) persistBooksJSONL() error {
	rows, err := b.db.Query("SELECT user_id, " + bookColumns + " FROM books ORDER BY user_id, added_at, book_id")
	if err != nil {
		return fmt.Errorf("querying books for JSONL: %w", err)
	}
	defer rows.Close()

	var out []bookJSON
	for rows.Next() {
		var rec bookJSON
		var cats string
		var isPublic int64
		if err := rows.Scan(&rec.UserID, &rec.BookID, &rec.Title, &rec.Author, &rec.Cover,
			&rec.Summary, &rec.Year, &rec.Status, &rec.Rating, &rec.Review, &cats,
			&isPublic, &rec.AddedAt, &rec.UpdatedAt); err != nil {
			return fmt.Errorf("scanning book for JSONL: %w", err)
		}
		if rec.Categories, err = decodeIDs(cats); err != nil {
			return fmt.Errorf("parsing categories for JSONL: %w", err)
		}
		rec.IsPublic = isPublic != 0
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating books for JSONL: %w", err)
	}

	records, err := marshalRecords(out)
	if err != nil {
		return fmt.Errorf("marshaling books: %w", err)
	}
	return writeJSONL(filepath.Join(b.dataDir, booksFile), records)
}
