// Package coffer provides the public entry point for the record store.
// It wires the SQLite backend behind the Store facade while keeping the
// implementation internal.
//
// Example:
//
//	st := coffer.New(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: dataDir,
//	}, nil)
//	if err := st.Open(ctx); err != nil {
//	    return err
//	}
//	defer st.Close()
package coffer

import (
	"log/slog"

	"github.com/mesh-intelligence/coffer/internal/sqlite"
	"github.com/mesh-intelligence/coffer/internal/store"
	"github.com/mesh-intelligence/coffer/pkg/types"
)

// Version is the release version reported by the CLI.
const Version = "0.1.0"

// New returns a store for cfg. Nothing is opened until Open or the first
// operation. A nil logger uses slog.Default().
func New(cfg types.Config, logger *slog.Logger) types.Store {
	backend := sqlite.NewBackend(cfg, logger)
	return store.New(backend, backend, logger)
}
