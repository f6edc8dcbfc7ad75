package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shelfmark/internal/store"
)

func newPublicCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "public [user]",
		Short: "Show a public library",
		Long:  "Lists the books a reader has marked public. Without a user, shows your own.",
		Args:  posArgs(cobra.MaximumNArgs(1)),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if _, err := a.openLibrary(cmd.Context()); err != nil {
				return err
			}
			owner := a.store
			if len(args) == 1 && args[0] != a.user {
				var err error
				owner, err = store.New(a.cupboard, args[0], a.log)
				if err != nil {
					return err
				}
			}
			books, err := owner.PublicBooks(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), books, func(w io.Writer) error {
				fmt.Fprintf(w, "Public library of %s\n", owner.UserID())
				return printBooks(w, books)
			})
		}),
	}
}
