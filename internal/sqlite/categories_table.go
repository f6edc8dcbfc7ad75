// This file implements the categories table accessor for the SQLite backend.
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

var _ types.Table = (*categoriesTable)(nil)

const categoryColumns = "category_id, name, created_at"

var categoryFields = map[string]fieldSpec{
	"name": {column: "name", convert: asName},
}

type categoriesTable struct {
	backend *Backend
	userID  string
}

// Get retrieves a category by ID.
func (t *categoriesTable) Get(ctx context.Context, id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	row := t.backend.db.QueryRowContext(ctx,
		"SELECT "+categoryColumns+" FROM categories WHERE user_id = ? AND category_id = ?",
		t.userID, id,
	)
	cat, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting category %s: %w", id, err)
	}
	return cat, nil
}

// Set creates or replaces a category. When id is empty the category's own
// ID is used, and failing that the slug of its name. created_at of an
// existing category is preserved.
func (t *categoriesTable) Set(ctx context.Context, id string, data any) (string, error) {
	in, ok := data.(*types.Category)
	if !ok || in == nil {
		return "", types.ErrInvalidData
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", types.ErrInvalidName
	}
	if id == "" {
		id = in.CategoryID
	}
	if id == "" {
		id = types.Slug(name)
	}
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	_, err := t.backend.db.ExecContext(ctx, `INSERT INTO categories (user_id, `+categoryColumns+`)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, category_id) DO UPDATE SET name = excluded.name`,
		t.userID, id, name, formatTime(createdAt),
	)
	if err != nil {
		return "", fmt.Errorf("persisting category: %w", err)
	}
	if err := t.backend.schedulePersist(types.TableCategories); err != nil {
		return "", fmt.Errorf("persisting %s: %w", categoriesFile, err)
	}

	in.CategoryID = id
	in.Name = name
	in.CreatedAt = createdAt
	return id, nil
}

// Update changes the display name. The category ID never changes.
func (t *categoriesTable) Update(ctx context.Context, id string, fields map[string]any) error {
	if id == "" {
		return types.ErrInvalidID
	}
	sets, args, err := buildUpdate(categoryFields, fields)
	if err != nil {
		return err
	}
	args = append(args, t.userID, id)

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	res, err := t.backend.db.ExecContext(ctx,
		"UPDATE categories SET "+strings.Join(sets, ", ")+" WHERE user_id = ? AND category_id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("updating category %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("updating category %s: %w", id, err)
	} else if n == 0 {
		return types.ErrNotFound
	}
	if err := t.backend.schedulePersist(types.TableCategories); err != nil {
		return fmt.Errorf("persisting %s: %w", categoriesFile, err)
	}
	return nil
}

// Delete removes the category document only. Books that reference it are
// left alone; the caller owns the cascade.
func (t *categoriesTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	res, err := t.backend.db.ExecContext(ctx,
		"DELETE FROM categories WHERE user_id = ? AND category_id = ?", t.userID, id)
	if err != nil {
		return fmt.Errorf("deleting category %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("deleting category %s: %w", id, err)
	} else if n == 0 {
		return types.ErrNotFound
	}
	if err := t.backend.schedulePersist(types.TableCategories); err != nil {
		return fmt.Errorf("persisting %s: %w", categoriesFile, err)
	}
	return nil
}

// Fetch returns categories in creation order. Supported filter keys:
// name (string, exact), limit and offset (int).
func (t *categoriesTable) Fetch(ctx context.Context, filter types.Filter) ([]any, error) {
	conditions := []string{"user_id = ?"}
	args := []any{t.userID}

	if s, ok, err := filterString(filter, "name"); err != nil {
		return nil, err
	} else if ok {
		conditions = append(conditions, "name = ?")
		args = append(args, s)
	}

	query := "SELECT " + categoryColumns + " FROM categories WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY created_at ASC, category_id ASC"
	query, err := appendPaging(query, filter)
	if err != nil {
		return nil, err
	}

	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	rows, err := t.backend.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating category: %w", err)
		}
		results = append(results, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return results, nil
}

func scanCategory(row rowScanner) (*types.Category, error) {
	var c types.Category
	var createdAt string
	if err := row.Scan(&c.CategoryID, &c.Name, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	c.CreatedAt = t
	return &c, nil
}

// persistCategoriesJSONL rewrites categories.jsonl from SQLite. The caller must hold b.mu.
func (b *Backend) persistCategoriesJSONL() error {
	rows, err := b.db.Query("SELECT user_id, " + categoryColumns + " FROM categories ORDER BY user_id, created_at, category_id")
	if err != nil {
		return fmt.Errorf("querying categories for JSONL: %w", err)
	}
	defer rows.Close()

	var out []categoryJSON
	for rows.Next() {
		var rec categoryJSON
		if err := rows.Scan(&rec.UserID, &rec.CategoryID, &rec.Name, &rec.CreatedAt); err != nil {
			return fmt.Errorf("scanning category for JSONL: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating categories for JSONL: %w", err)
	}

	records, err := marshalRecords(out)
	if err != nil {
		return fmt.Errorf("marshaling categories: %w", err)
	}
	return writeJSONL(filepath.Join(b.dataDir, categoriesFile), records)
}
