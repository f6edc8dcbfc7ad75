// JSON record structures for SQLite backend persistence.
// These structures define the JSONL record format for the data files; the
// JSONL files are the source of truth and SQLite is rebuilt from them on Attach.
package sqlite

// bookJSON represents a book in books.jsonl.
type bookJSON struct {
	UserID     string   `json:"user_id"`
	BookID     string   `json:"book_id"`
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	Cover      string   `json:"cover"`
	Summary    string   `json:"summary"`
	Year       string   `json:"year"`
	Status     string   `json:"status"`
	Rating     float64  `json:"rating"`
	Review     string   `json:"review"`
	Categories []string `json:"categories"`
	IsPublic   bool     `json:"is_public"`
	AddedAt    string   `json:"added_at"`
	UpdatedAt  string   `json:"updated_at"`
}

// categoryJSON represents a category in categories.jsonl.
type categoryJSON struct {
	UserID     string `json:"user_id"`
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
	CreatedAt  string `json:"created_at"`
}

// shelfJSON represents a shelf open/closed flag in shelves.jsonl.
type shelfJSON struct {
	UserID   string `json:"user_id"`
	ShelfKey string `json:"shelf_key"`
	Open     bool   `json:"open"`
}

// profileJSON represents a profile in profiles.jsonl.
type profileJSON struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
	Bio         string `json:"bio"`
	UpdatedAt   string `json:"updated_at"`
}
