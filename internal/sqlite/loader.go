// This file implements JSONL loading at Attach.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// jsonlTableMapping maps JSONL filenames to their SQLite tables and column lists.
var jsonlTableMapping = []struct {
	file    string
	table   string
	columns []string
}{
	{booksFile, "books", []string{
		"user_id", "book_id", "title", "author", "cover", "summary", "year", "status",
		"rating", "review", "categories", "is_public", "added_at", "updated_at",
	}},
	{categoriesFile, "categories", []string{"user_id", "category_id", "name", "created_at"}},
	{shelvesFile, "shelves", []string{"user_id", "shelf_key", "open"}},
	{profilesFile, "profiles", []string{"user_id", "display_name", "email", "avatar_url", "bio", "updated_at"}},
}

// columnDefaults fills optional fields missing from hand-edited records so
// they do not trip NOT NULL constraints. Required columns have no entry.
var columnDefaults = map[string]any{
	"author":     "",
	"cover":      "",
	"summary":    "",
	"year":       "",
	"rating":     float64(0),
	"review":     "",
	"categories": "[]",
	"is_public":  int64(0),
	"open":       int64(0),
	"email":      "",
	"avatar_url": "",
	"bio":        "",
}

// loadAllJSONL reads each JSONL file from dataDir and inserts its records into
// the matching SQLite table. Loading is transactional: all files load or the
// database stays empty. Malformed lines and records that violate constraints
// are skipped; unknown fields are ignored.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for _, mapping := range jsonlTableMapping {
		records, err := readJSONL(filepath.Join(dataDir, mapping.file))
		if err != nil {
			return fmt.Errorf("reading %s: %w", mapping.file, err)
		}
		if len(records) == 0 {
			continue
		}
		if err := insertRecords(tx, mapping.table, mapping.columns, records); err != nil {
			return fmt.Errorf("loading %s into %s: %w", mapping.file, mapping.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// insertRecords inserts parsed JSONL records into a SQLite table. Only the
// listed columns are extracted, so fields written by newer versions load
// without error.
func insertRecords(tx *sql.Tx, table string, columns []string, records []json.RawMessage) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders,
	))
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			continue
		}
		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = columnValue(obj[col])
			if args[i] == nil {
				args[i] = columnDefaults[col]
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			continue
		}
	}
	return nil
}

// columnValue converts a decoded JSON value into a SQLite argument. Arrays and
// objects are stored as JSON text; booleans as 0/1.
func columnValue(v any) any {
	switch val := v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		return string(b)
	case bool:
		if val {
			return int64(1)
		}
		return int64(0)
	default:
		return val
	}
}
