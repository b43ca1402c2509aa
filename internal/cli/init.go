package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/coffer/pkg/types"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize coffer storage",
		Long:  "Create the configuration and data directories, then create or upgrade the database schema.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.dataDir != "" {
				if err := pinDataDir(a.settings.ConfigDir, a.settings.DataDir); err != nil {
					return sysErr("write config: %w", err)
				}
			}

			// Opening runs the schema manager.
			if err := a.withStore(cmd.Context(), func(types.Store) error { return nil }); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "coffer initialized in %s\n", a.settings.DataDir)
			return nil
		},
	}
}
