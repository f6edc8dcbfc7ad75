// This file implements the profiles table accessor. A user's table holds at
// most one row, keyed by the user ID itself.
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

var _ types.Table = (*profilesTable)(nil)

const profileColumns = "user_id, display_name, email, avatar_url, bio, updated_at"

var profileFields = map[string]fieldSpec{
	"display_name": {column: "display_name", convert: asName},
	"email":        {column: "email", convert: asString},
	"avatar_url":   {column: "avatar_url", convert: asString},
	"bio":          {column: "bio", convert: asString},
}

type profilesTable struct {
	backend *Backend
	userID  string
}

// checkID rejects IDs that do not name the table's own user.
func (t *profilesTable) checkID(id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	if id != t.userID {
		return types.ErrInvalidUser
	}
	return nil
}

// Get retrieves the user's profile. id must equal the user ID.
func (t *profilesTable) Get(ctx context.Context, id string) (any, error) {
	if err := t.checkID(id); err != nil {
		return nil, err
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	row := t.backend.db.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE user_id = ?", id)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting profile %s: %w", id, err)
	}
	return p, nil
}

// Set creates or replaces the user's profile.
func (t *profilesTable) Set(ctx context.Context, id string, data any) (string, error) {
	in, ok := data.(*types.Profile)
	if !ok || in == nil {
		return "", types.ErrInvalidData
	}
	if id == "" {
		id = t.userID
	}
	if err := t.checkID(id); err != nil {
		return "", err
	}
	p := *in
	p.UserID = id
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	if err := p.Validate(); err != nil {
		return "", err
	}
	p.UpdatedAt = time.Now()

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	_, err := t.backend.db.ExecContext(ctx, `INSERT OR REPLACE INTO profiles (`+profileColumns+`)
VALUES (?, ?, ?, ?, ?, ?)`,
		p.UserID, p.DisplayName, p.Email, p.AvatarURL, p.Bio, formatTime(p.UpdatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("persisting profile: %w", err)
	}
	if err := t.backend.schedulePersist(types.TableProfiles); err != nil {
		return "", fmt.Errorf("persisting %s: %w", profilesFile, err)
	}
	*in = p
	return id, nil
}

// Update changes individual profile fields.
func (t *profilesTable) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := t.checkID(id); err != nil {
		return err
	}
	sets, args, err := buildUpdate(profileFields, fields)
	if err != nil {
		return err
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(time.Now()), id)

	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	res, err := t.backend.db.ExecContext(ctx,
		"UPDATE profiles SET "+strings.Join(sets, ", ")+" WHERE user_id = ?", args...)
	if err != nil {
		return fmt.Errorf("updating profile %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("updating profile %s: %w", id, err)
	} else if n == 0 {
		return types.ErrNotFound
	}
	if err := t.backend.schedulePersist(types.TableProfiles); err != nil {
		return fmt.Errorf("persisting %s: %w", profilesFile, err)
	}
	return nil
}

// Delete removes the user's profile.
func (t *profilesTable) Delete(ctx context.Context, id string) error {
	if err := t.checkID(id); err != nil {
		return err
	}
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()

	res, err := t.backend.db.ExecContext(ctx, "DELETE FROM profiles WHERE user_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting profile %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("deleting profile %s: %w", id, err)
	} else if n == 0 {
		return types.ErrNotFound
	}
	if err := t.backend.schedulePersist(types.TableProfiles); err != nil {
		return fmt.Errorf("persisting %s: %w", profilesFile, err)
	}
	return nil
}

// Fetch returns the user's profile as a zero- or one-element slice.
func (t *profilesTable) Fetch(ctx context.Context, filter types.Filter) ([]any, error) {
	if len(filter) > 0 {
		return nil, types.ErrInvalidFilter
	}
	p, err := t.Get(ctx, t.userID)
	if errors.Is(err, types.ErrNotFound) {
		return []any{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []any{p}, nil
}

func scanProfile(row rowScanner) (*types.Profile, error) {
	var p types.Profile
	var updatedAt string
	if err := row.Scan(&p.UserID, &p.DisplayName, &p.Email, &p.AvatarURL, &p.Bio, &updatedAt); err != nil {
		return nil, err
	}
	t, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	p.UpdatedAt = t
	return &p, nil
}

// persistProfilesJSONL rewrites profiles.jsonl from SQLite. The caller must hold b.mu.
func (b *Backend) persistProfilesJSONL() error {
	rows, err := b.db.Query("SELECT " + profileColumns + " FROM profiles ORDER BY user_id")
	if err != nil {
		return fmt.Errorf("querying profiles for JSONL: %w", err)
	}
	defer rows.Close()

	var out []profileJSON
	for rows.Next() {
		var rec profileJSON
		if err := rows.Scan(&rec.UserID, &rec.DisplayName, &rec.Email, &rec.AvatarURL, &rec.Bio, &rec.UpdatedAt); err != nil {
			return fmt.Errorf("scanning profile for JSONL: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating profiles for JSONL: %w", err)
	}

	records, err := marshalRecords(out)
	if err != nil {
		return fmt.Errorf("marshaling profiles: %w", err)
	}
	return writeJSONL(filepath.Join(b.dataDir, profilesFile), records)
}
