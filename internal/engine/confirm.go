package engine

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

// Action names the kind of mutation a prompt asks about.
type Action string

const (
	ActionAddToCategory      Action = "add-to-category"
	ActionSetStatus          Action = "set-status"
	ActionRemoveFromCategory Action = "remove-from-category"
	ActionRemoveFromAll      Action = "remove-from-all"
	ActionDeleteCategory     Action = "delete-category"
	ActionDeleteBook         Action = "delete-book"
)

// Prompt describes a mutation awaiting the user's yes or no.
type Prompt struct {
	Action     Action
	Title      string
	Text       string
	BookID     string
	CategoryID string
	Status     string
}

// ConfirmFunc asks the user to approve a mutation. Returning false cancels it.
// The engine calls it without holding any lock, so it may block.
type ConfirmFunc func(ctx context.Context, p Prompt) bool

// AlwaysConfirm approves every prompt.
func AlwaysConfirm(context.Context, Prompt) bool { return true }

// NeverConfirm declines every prompt.
func NeverConfirm(context.Context, Prompt) bool { return false }

func addPrompt(book *types.Book, cat *types.Category) Prompt {
	return Prompt{
		Action:     ActionAddToCategory,
		Title:      "Add to category?",
		Text:       fmt.Sprintf("This will add %q to %s.", book.Title, cat.Name),
		BookID:     book.BookID,
		CategoryID: cat.CategoryID,
	}
}

func statusPrompt(book *types.Book, status string) Prompt {
	return Prompt{
		Action: ActionSetStatus,
		Title:  "Change status?",
		Text:   fmt.Sprintf("This will mark %q as %s.", book.Title, status),
		BookID: book.BookID,
		Status: status,
	}
}

func removeOriginPrompt(bookID, categoryID string) Prompt {
	return Prompt{
		Action:     ActionRemoveFromCategory,
		Title:      "Remove from this category?",
		Text:       "This will remove the book only from the category it was dragged from.",
		BookID:     bookID,
		CategoryID: categoryID,
	}
}

func removeCategoryPrompt(bookID, categoryID string) Prompt {
	return Prompt{
		Action:     ActionRemoveFromCategory,
		Title:      "Remove from this category?",
		Text:       "This will remove the book from this category.",
		BookID:     bookID,
		CategoryID: categoryID,
	}
}

func removeAllPrompt(bookID string) Prompt {
	return Prompt{
		Action: ActionRemoveFromAll,
		Title:  "Remove from all categories?",
		Text:   "This will move the book to Unassigned.",
		BookID: bookID,
	}
}

func deleteCategoryPrompt(categoryID string) Prompt {
	return Prompt{
		Action:     ActionDeleteCategory,
		Title:      "Delete category?",
		Text:       "This will remove the category but not delete any books.",
		CategoryID: categoryID,
	}
}

func deleteBookPrompt(bookID string) Prompt {
	return Prompt{
		Action: ActionDeleteBook,
		Title:  "Delete Book?",
		Text:   "This will permanently remove the book from your library.",
		BookID: bookID,
	}
}
