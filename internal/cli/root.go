// Package cli implements the coffer command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/coffer/internal/paths"
	"github.com/mesh-intelligence/coffer/pkg/coffer"
	"github.com/mesh-intelligence/coffer/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// app carries the state one invocation shares across its subcommands.
type app struct {
	flags    rootFlags
	settings settings
	logger   *slog.Logger
	stderr   io.Writer
}

// NewRootCmd creates the top-level "coffer" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{stderr: os.Stderr, logger: slog.Default()}

	root := &cobra.Command{
		Use:     "coffer",
		Short:   "A local record store for correspondence, rejected checks, and incidents",
		Long:    "Coffer keeps courriers, rejected checks, and incident reports (avis) in a\nlocal database, with JSON export and atomic import.",
		Version: coffer.Version,
		// Errors are printed once by Execute.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newSaveCmd(a))
	root.AddCommand(newGetCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newDeleteCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newStatsCmd(a))
	root.AddCommand(newNextRefCmd(a))
	root.AddCommand(newScanCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "coffer: %s\n", err)
		os.Exit(exitCode(err))
	}
	os.Exit(exitSuccess)
}

// exitCode maps an error to the process exit status. Storage and restore
// failures are system errors; everything else is the caller's input.
func exitCode(err error) int {
	switch types.KindOf(err) {
	case types.ErrStorageUnavailable, types.ErrPersistence, types.ErrRestoreFailed:
		return exitSysError
	}
	var se *systemError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}

// systemError marks a failure outside the store (file system, config) as a
// system error.
type systemError struct {
	err error
}

func (e *systemError) Error() string { return e.err.Error() }
func (e *systemError) Unwrap() error { return e.err }

func sysErr(format string, args ...any) error {
	return &systemError{err: fmt.Errorf(format, args...)}
}

// load resolves directories, reads config.yaml, and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysErr("resolve config dir: %w", err)
	}
	s, err := loadSettings(configDir)
	if err != nil {
		return sysErr("load config: %w", err)
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, s.DataDir)
	if err != nil {
		return sysErr("resolve data dir: %w", err)
	}
	s.ConfigDir = configDir
	s.DataDir = dataDir
	a.settings = s

	a.stderr = cmd.ErrOrStderr()
	a.logger = newLogger(a.stderr, s.LogLevel)
	return nil
}

// withStore opens the store, runs fn, and closes the store.
func (a *app) withStore(ctx context.Context, fn func(types.Store) error) error {
	st := coffer.New(types.Config{Backend: types.BackendSQLite, DataDir: a.settings.DataDir}, a.logger)
	if err := st.Open(ctx); err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}
