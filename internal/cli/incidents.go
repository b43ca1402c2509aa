// Reporting commands: stats and next-ref.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/coffer/pkg/types"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <category>",
		Short: "Summarize a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := types.ParseCategory(args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(st types.Store) error {
				s, err := st.Stats(cmd.Context(), c)
				if err != nil {
					return err
				}
				if a.flags.jsonMode {
					return printJSON(cmd.OutOrStdout(), s)
				}
				printStats(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
}

func newNextRefCmd(a *app) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "next-ref",
		Short: "Preview the next incident reference",
		Long: `next-ref prints the reference the next incident would receive, for example
SRM-MS/DPH/AI-0125-003. The preview does not reserve the number.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now()
			if month != "" {
				t, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("invalid --month %q (want YYYY-MM)", month)
				}
				at = t
			}
			return a.withStore(cmd.Context(), func(st types.Store) error {
				ref, err := st.NextIncidentReference(cmd.Context(), at)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ref)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month to number under, YYYY-MM (default: current)")
	return cmd
}
