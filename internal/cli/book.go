package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shelfmark/internal/catalog"
	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

func newBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Add, find and edit books",
	}
	cmd.AddCommand(
		newBookAddCmd(a),
		newBookSearchCmd(a),
		newBookListCmd(a),
		newBookShowCmd(a),
		newBookEditCmd(a),
		newBookDeleteCmd(a),
	)
	return cmd
}

func newBookAddCmd(a *app) *cobra.Command {
	var (
		book       types.Book
		categories []string
	)
	cmd := &cobra.Command{
		Use:   "add [volume-id]",
		Short: "Add a book from the catalog or by hand",
		Long: "With a volume ID, the book's details come from Google Books. Without one,\n" +
			"--title is required and the book gets a generated ID.",
		Args: posArgs(cobra.MaximumNArgs(1)),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b := book
			if len(args) == 1 {
				vol, err := a.catalogClient().Volume(ctx, args[0])
				if err != nil {
					return err
				}
				b = mergeVolume(vol.Book(), &book)
			} else if strings.TrimSpace(b.Title) == "" {
				return usageError{fmt.Errorf("--title is required without a volume ID")}
			}
			b.Categories = categories

			e, err := a.openLibrary(ctx)
			if err != nil {
				return err
			}
			outcome, err := e.AddBook(ctx, &b)
			return a.report(cmd.OutOrStdout(), outcome, err, fmt.Sprintf("Added %q (%s).", b.Title, b.BookID))
		}),
	}
	f := cmd.Flags()
	f.StringVar(&book.Title, "title", "", "book title")
	f.StringVar(&book.Author, "author", "", "author")
	f.StringVar(&book.Cover, "cover", "", "cover image URL")
	f.StringVar(&book.Summary, "summary", "", "summary")
	f.StringVar(&book.Year, "year", "", "publication year")
	f.StringVar(&book.Status, "status", types.StatusToRead, "reading status: to-read, in-progress or completed")
	f.Float64Var(&book.Rating, "rating", 0, "rating 0-5 in half steps (completed books only)")
	f.StringVar(&book.Review, "review", "", "your review")
	f.BoolVar(&book.IsPublic, "public", false, "show the book in your public library")
	f.StringSliceVar(&categories, "category", nil, "category ID (repeatable)")
	return cmd
}

// mergeVolume overlays the fields a user may set by hand onto a catalog book.
func mergeVolume(b *types.Book, flags *types.Book) types.Book {
	out := *b
	if flags.Title != "" {
		out.Title = flags.Title
	}
	if flags.Author != "" {
		out.Author = flags.Author
	}
	out.Status = flags.Status
	out.Rating = flags.Rating
	out.Review = flags.Review
	out.IsPublic = flags.IsPublic
	return out
}

func newBookSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search Google Books",
		Args:  posArgs(cobra.MinimumNArgs(1)),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			vols, err := a.catalogClient().Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if vols == nil {
				vols = []catalog.Volume{}
			}
			return a.render(cmd.OutOrStdout(), vols, func(w io.Writer) error {
				if len(vols) == 0 {
					_, err := fmt.Fprintln(w, "No results.")
					return err
				}
				for _, v := range vols {
					year := ""
					if v.Year != "" {
						year = " (" + v.Year + ")"
					}
					fmt.Fprintf(w, "%s  %s%s by %s\n", v.ID, v.Title, year, v.Author)
				}
				return nil
			})
		}),
	}
}

func newBookListCmd(a *app) *cobra.Command {
	var (
		status     string
		category   string
		unassigned bool
		public     bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books in the library",
		Args:  posArgs(cobra.NoArgs),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if countSet(category != "", unassigned, public) > 1 {
				return usageError{fmt.Errorf("--category, --unassigned and --public are mutually exclusive")}
			}
			if status != "" && !types.IsValidStatus(status) {
				return fmt.Errorf("%w: %q", types.ErrInvalidState, status)
			}
			e, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			m := e.Model()
			books := m.Books()
			switch {
			case public:
				books = m.PublicBooks()
			case unassigned:
				books = m.UnassignedBooks()
			case category != "":
				if _, ok := m.Category(category); !ok {
					return fmt.Errorf("category %s: %w", category, types.ErrNotFound)
				}
				books = m.BooksByCategory(category)
			}
			if status != "" {
				books = filterStatus(books, status)
			}
			return a.render(cmd.OutOrStdout(), books, func(w io.Writer) error {
				return printBooks(w, books)
			})
		}),
	}
	f := cmd.Flags()
	f.StringVar(&status, "status", "", "only books with this status")
	f.StringVar(&category, "category", "", "only books in this category")
	f.BoolVar(&unassigned, "unassigned", false, "only books without a category")
	f.BoolVar(&public, "public", false, "only books in the public library")
	return cmd
}

func countSet(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func filterStatus(books []*types.Book, status string) []*types.Book {
	out := make([]*types.Book, 0, len(books))
	for _, b := range books {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out
}

func newBookShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Display a book with full details",
		Args:  posArgs(cobra.ExactArgs(1)),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			e, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			b, ok := e.Model().Book(args[0])
			if !ok {
				return fmt.Errorf("book %q: %w", args[0], types.ErrNotFound)
			}
			return a.render(cmd.OutOrStdout(), b, func(w io.Writer) error {
				return printBook(w, b)
			})
		}),
	}
}

func newBookEditCmd(a *app) *cobra.Command {
	var (
		status     string
		rating     float64
		review     string
		public     bool
		categories []string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a book's status, rating, review, visibility or categories",
		Long:  "Only the flags given are changed. --category replaces the whole set; pass --category '' to clear it.",
		Args:  posArgs(cobra.ExactArgs(1)),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var u types.BookUpdate
			f := cmd.Flags()
			if f.Changed("status") {
				u.Status = &status
			}
			if f.Changed("rating") {
				u.Rating = &rating
			}
			if f.Changed("review") {
				u.Review = &review
			}
			if f.Changed("public") {
				u.IsPublic = &public
			}
			if f.Changed("category") {
				u.Categories = &categories
			}
			if u.IsEmpty() {
				return usageError{fmt.Errorf("nothing to edit: pass at least one flag")}
			}
			e, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			outcome, err := e.EditBook(cmd.Context(), args[0], u)
			return a.report(cmd.OutOrStdout(), outcome, err, fmt.Sprintf("Updated %s.", args[0]))
		}),
	}
	f := cmd.Flags()
	f.StringVar(&status, "status", "", "reading status")
	f.Float64Var(&rating, "rating", 0, "rating 0-5 in half steps")
	f.StringVar(&review, "review", "", "review text")
	f.BoolVar(&public, "public", false, "show in the public library")
	f.StringSliceVar(&categories, "category", nil, "category IDs (replaces the set)")
	return cmd
}

func newBookDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a book from the library",
		Args:  posArgs(cobra.ExactArgs(1)),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			e, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			outcome, err := e.DeleteBook(cmd.Context(), args[0])
			return a.report(cmd.OutOrStdout(), outcome, err, fmt.Sprintf("Deleted %s.", args[0]))
		}),
	}
}
