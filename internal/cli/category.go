package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shelfmark/internal/engine"
	"github.com/mesh-intelligence/shelfmark/pkg/types"
)

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage your own shelves",
	}
	cmd.AddCommand(
		newCategoryAddCmd(a),
		newCategoryRenameCmd(a),
		newCategoryDeleteCmd(a),
		newCategoryListCmd(a),
	)
	return cmd
}

func newCategoryAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category; its ID is the slug of the name",
		Args:  posArgs(cobra.MinimumNArgs(1)),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			e, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			cat, outcome, err := e.CreateCategory(cmd.Context(), strings.Join(args, " "))
			if outcome == engine.Noop && cat != nil {
				return a.render(cmd.OutOrStdout(), result{Outcome: outcome.String(), Message: "Category " + cat.CategoryID + " already exists."}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Category %s already exists.\n", cat.CategoryID)
					return err
				})
			}
			msg := ""
			if cat != nil {
				msg = fmt.Sprintf("Created %q (%s).", cat.Name, cat.CategoryID)
			}
			return a.report(cmd.OutOrStdout(), outcome, err, msg)
		}),
	}
}

func newCategoryRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Change a category's display name; the ID stays the same",
		Args:  posArgs(cobra.MinimumNArgs(2)),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			e, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			name := strings.Join(args[1:], " ")
			outcome, err := e.RenameCategory(cmd.Context(), args[0], name)
			return a.report(cmd.OutOrStdout(), outcome, err, fmt.Sprintf("Renamed %s to %q.", args[0], strings.TrimSpace(name)))
		}),
	}
}

func newCategoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category and remove it from every book",
		Long:  "Books in the category are kept; only their membership in it goes.",
		Args:  posArgs(cobra.ExactArgs(1)),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			e, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			outcome, err := e.DeleteCategory(cmd.Context(), args[0])
			return a.report(cmd.OutOrStdout(), outcome, err, fmt.Sprintf("Deleted category %s.", args[0]))
		}),
	}
}

// categoryRow is a category with its book count, for list output.
type categoryRow struct {
	types.Category `yaml:",inline"`
	Books          int `json:"books" yaml:"books"`
}

func newCategoryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  posArgs(cobra.NoArgs),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			e, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			m := e.Model()
			rows := make([]categoryRow, 0, len(m.Categories()))
			for _, c := range m.Categories() {
				rows = append(rows, categoryRow{Category: *c, Books: len(m.BooksByCategory(c.CategoryID))})
			}
			return a.render(cmd.OutOrStdout(), rows, func(w io.Writer) error {
				if len(rows) == 0 {
					_, err := fmt.Fprintln(w, "No categories.")
					return err
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tBOOKS")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%s\t%d\n", r.CategoryID, r.Name, r.Books)
				}
				return tw.Flush()
			})
		}),
	}
}
