// Package sqlite implements the SQLite storage backend for the library.
// This file holds the schema DDL. Every table is keyed by user so one
// database serves all users' namespaces.
package sqlite

// Schema DDL for all tables.
const (
	createBooks = `CREATE TABLE books (
    user_id TEXT NOT NULL,
    book_id TEXT NOT NULL,
    title TEXT NOT NULL,
    author TEXT NOT NULL DEFAULT '',
    cover TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    year TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    rating REAL NOT NULL DEFAULT 0,
    review TEXT NOT NULL DEFAULT '',
    categories TEXT NOT NULL DEFAULT '[]',
    is_public INTEGER NOT NULL DEFAULT 0,
    added_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (user_id, book_id)
);`

	createCategories = `CREATE TABLE categories (
    user_id TEXT NOT NULL,
    category_id TEXT NOT NULL,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (user_id, category_id)
);`

	createShelves = `CREATE TABLE shelves (
    user_id TEXT NOT NULL,
    shelf_key TEXT NOT NULL,
    open INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (user_id, shelf_key)
);`

	createProfiles = `CREATE TABLE profiles (
    user_id TEXT PRIMARY KEY,
    display_name TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    avatar_url TEXT NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxBooksStatus    = `CREATE INDEX idx_books_status ON books(user_id, status);`
	idxBooksAdded     = `CREATE INDEX idx_books_added ON books(user_id, added_at);`
	idxCategoriesName = `CREATE INDEX idx_categories_name ON categories(user_id, name);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createBooks,
	createCategories,
	createShelves,
	createProfiles,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxBooksStatus,
	idxBooksAdded,
	idxCategoriesName,
}
