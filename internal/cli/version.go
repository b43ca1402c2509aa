package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/coffer/pkg/coffer"
)

const modulePath = "github.com/mesh-intelligence/coffer"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the coffer version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "coffer v%s\nmodule: %s\n", coffer.Version, modulePath)
			return nil
		},
	}
}
