package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newShelvesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shelves",
		Short: "Show the library partitioned into shelves",
		Long: "Status shelves come first, then Unassigned Books, then one shelf per\n" +
			"category. Closed shelves show only their size; open them with toggle.",
		Args: posArgs(cobra.NoArgs),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			e, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			shelves := e.Shelves()
			return a.render(cmd.OutOrStdout(), shelves, func(w io.Writer) error {
				return printShelves(w, shelves)
			})
		}),
	}
}

func newToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <shelf-key>",
		Short: "Open or close a shelf",
		Args:  posArgs(cobra.ExactArgs(1)),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			e, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			open, err := e.ToggleShelf(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			state := "closed"
			if open {
				state = "open"
			}
			return a.render(cmd.OutOrStdout(), map[string]any{"key": args[0], "open": open}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Shelf %s is %s.\n", args[0], state)
				return err
			})
		}),
	}
}
