// Package types defines the Cupboard and Table interfaces, the library entity
// types (Book, Category, ShelfState, Profile), and the standard errors shared by
// the storage backends, the membership engine, and the CLI.
package types
