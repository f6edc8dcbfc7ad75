package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/shelfmark/internal/engine"
)

func newDragCmd(a *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "drag <book-id> --to <target>",
		Short: "Drag a book onto a shelf",
		Long: "Targets:\n" +
			"  status:<to-read|in-progress|completed>  set the reading status\n" +
			"  category:<id>                           add to a category\n" +
			"  remove:origin                           remove from the --from category\n" +
			"  remove:all                              remove from every category",
		Args: posArgs(cobra.ExactArgs(1)),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if to == "" {
				return usageError{fmt.Errorf("--to is required")}
			}
			target, err := engine.ParseTarget(to)
			if err != nil {
				return err
			}
			e, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			if err := e.StartDrag(args[0], from); err != nil {
				return err
			}
			a.log.Debug("drop targets", zap.Stringers("targets", e.DropTargets()))
			outcome, err := e.Drop(cmd.Context(), target)
			return a.report(cmd.OutOrStdout(), outcome, err, fmt.Sprintf("Moved %s to %s.", args[0], target))
		}),
	}
	cmd.Flags().StringVar(&from, "from", "", "category shelf the book is dragged from")
	cmd.Flags().StringVar(&to, "to", "", "drop target")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "remove <book-id>",
		Short: "Remove a book from a category, or from all of them",
		Args:  posArgs(cobra.ExactArgs(1)),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			e, err := a.openLibrary(cmd.Context())
			if err != nil {
				return err
			}
			outcome, err := e.RemoveFromCategory(cmd.Context(), args[0], category)
			msg := fmt.Sprintf("Removed %s from every category.", args[0])
			if category != "" {
				msg = fmt.Sprintf("Removed %s from %s.", args[0], category)
			}
			return a.report(cmd.OutOrStdout(), outcome, err, msg)
		}),
	}
	cmd.Flags().StringVar(&category, "category", "", "category to leave (default: all)")
	return cmd
}
