// Backup commands: export and import.
package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/coffer/internal/backup"
	"github.com/mesh-intelligence/coffer/pkg/types"
)

func newExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON snapshot of every category",
		Long: `Export writes documents, checks, and avis to one JSON snapshot. Without
--out the snapshot goes to stdout. A file is replaced atomically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(st types.Store) error {
				snap, err := st.Export(cmd.Context())
				if err != nil {
					return err
				}
				if out == "" {
					data, err := backup.Encode(snap)
					if err != nil {
						return err
					}
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				n, err := backup.WriteFile(out, snap)
				if err != nil {
					return sysErr("export: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d records to %s (%s)\n", snap.Len(), out, humanize.Bytes(uint64(n)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "snapshot file (default: stdout)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Restore a JSON snapshot",
		Long: `Import writes every record of a snapshot, replacing records with the same
id and leaving others untouched. Either every record is written or none is.
The legacy checks_rejetes field is merged into checks.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(st types.Store) error {
				n, err := st.Import(cmd.Context(), data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d records\n", n)
				return nil
			})
		},
	}
}
