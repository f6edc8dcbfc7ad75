// This file implements the shelves table accessor. It stores the open or
// closed flag of each shelf, keyed by shelf key.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

var _ types.Table = (*shelvesTable)(nil)

var shelfFields = map[string]fieldSpec{
	"open": {column: "open", convert: asBool},
}

type shelvesTable struct {
	backend *Backend
	userID  string
}

// Get retrieves the state of one shelf.
func (t *shelvesTable) Get(ctx context.Context, id string) (any, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	var open int64
	err := t.backend.db.QueryRowContext(ctx,
		"SELECT open FROM shelves WHERE user_id = ? AND shelf_key = ?", t.userID, id,
	).Scan(&open)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting shelf %s: %w", id, err)
	}
	return &types.ShelfState{ShelfKey: id, Open: open != 0}, nil
}

// Set creates or replaces a shelf state. An empty id takes the state's key.
func (t *shelvesTable) Set(ctx context.Context, id string, data any) (string, error) {
	in, ok := data.(*types.ShelfState)
	if !ok || in == nil {
		return "", types.ErrInvalidData
	}
	if id == "" {
		id = in.ShelfKey
	}
	if id == "" {
		return "", types.ErrInvalidID
	}

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	_, err := t.backend.db.ExecContext(ctx, `INSERT INTO shelves (user_id, shelf_key, open)
VALUES (?, ?, ?)
ON CONFLICT (user_id, shelf_key) DO UPDATE SET open = excluded.open`,
		t.userID, id, boolInt(in.Open),
	)
	if err != nil {
		return "", fmt.Errorf("persisting shelf: %w", err)
	}
	if err := t.backend.schedulePersist(types.TableShelves); err != nil {
		return "", fmt.Errorf("persisting %s: %w", shelvesFile, err)
	}
	in.ShelfKey = id
	return id, nil
}

// Update changes the open flag of an existing shelf.
func (t *shelvesTable) Update(ctx context.Context, id string, fields map[string]any) error {
	if id == "" {
		return types.ErrInvalidID
	}
	sets, args, err := buildUpdate(shelfFields, fields)
	if err != nil {
		return err
	}
	args = append(args, t.userID, id)

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	res, err := t.backend.db.ExecContext(ctx,
		"UPDATE shelves SET "+strings.Join(sets, ", ")+" WHERE user_id = ? AND shelf_key = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("updating shelf %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("updating shelf %s: %w", id, err)
	} else if n == 0 {
		return types.ErrNotFound
	}
	if err := t.backend.schedulePersist(types.TableShelves); err != nil {
		return fmt.Errorf("persisting %s: %w", shelvesFile, err)
	}
	return nil
}

// Delete forgets the state of one shelf.
func (t *shelvesTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	res, err := t.backend.db.ExecContext(ctx,
		"DELETE FROM shelves WHERE user_id = ? AND shelf_key = ?", t.userID, id)
	if err != nil {
		return fmt.Errorf("deleting shelf %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("deleting shelf %s: %w", id, err)
	} else if n == 0 {
		return types.ErrNotFound
	}
	if err := t.backend.schedulePersist(types.TableShelves); err != nil {
		return fmt.Errorf("persisting %s: %w", shelvesFile, err)
	}
	return nil
}

// Fetch returns every stored shelf state ordered by key. Only limit and
// offset are supported.
func (t *shelvesTable) Fetch(ctx context.Context, filter types.Filter) ([]any, error) {
	for k := range filter {
		if k != "limit" && k != "offset" {
			return nil, types.ErrInvalidFilter
		}
	}
	query, err := appendPaging("SELECT shelf_key, open FROM shelves WHERE user_id = ? ORDER BY shelf_key", filter)
	if err != nil {
		return nil, err
	}

	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	rows, err := t.backend.db.QueryContext(ctx, query, t.userID)
	if err != nil {
		return nil, fmt.Errorf("fetching shelves: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		var s types.ShelfState
		var open int64
		if err := rows.Scan(&s.ShelfKey, &open); err != nil {
			return nil, fmt.Errorf("hydrating shelf: %w", err)
		}
		s.Open = open != 0
		results = append(results, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shelves: %w", err)
	}
	return results, nil
}

// persistShelvesJSONL rewrites shelves.jsonl from SQLite. The caller must hold b.mu.
func (b *Backend) persistShelvesJSONL() error {
	rows, err := b.db.Query("SELECT user_id, shelf_key, open FROM shelves ORDER BY user_id, shelf_key")
	if err != nil {
		return fmt.Errorf("querying shelves for JSONL: %w", err)
	}
	defer rows.Close()

	var out []shelfJSON
	for rows.Next() {
		var rec shelfJSON
		var open int64
		if err := rows.Scan(&rec.UserID, &rec.ShelfKey, &open); err != nil {
			return fmt.Errorf("scanning shelf for JSONL: %w", err)
		}
		rec.Open = open != 0
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating shelves for JSONL: %w", err)
	}

	records, err := marshalRecords(out)
	if err != nil {
		return fmt.Errorf("marshaling shelves: %w", err)
	}
	return writeJSONL(filepath.Join(b.dataDir, shelvesFile), records)
}
