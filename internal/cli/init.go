package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/shelfmark/pkg/sqlite"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize shelf storage",
		Long:  "Create the configuration and data directories, then initialize the storage backend.",
		Args:  posArgs(cobra.NoArgs),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			cfg, err := a.backendConfig()
			if err != nil {
				return err
			}
			cupboard, err := sqlite.Open(cfg)
			if err != nil {
				return fmt.Errorf("initialize storage: %w", err)
			}
			a.cupboard = cupboard
			a.log.Debug("storage initialized", zap.String("data_dir", cfg.DataDir))
			fmt.Fprintf(cmd.OutOrStdout(), "Library initialized at %s\n", cfg.DataDir)
			return nil
		}),
	}
}
