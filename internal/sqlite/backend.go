// Package sqlite implements the SQLite storage backend for coffer.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/coffer/pkg/types"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "coffer.db"

// dsnParams configure every connection: writers wait on a locked database,
// WAL keeps readers unblocked, and transactions take the write lock up front
// so a count-then-insert inside one transaction cannot interleave.
const dsnParams = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Backend owns the SQLite handle and the three collection accessors. The
// handle is opened lazily by the first operation (or by Open) and reused
// until Close; after Close the next operation reopens it.
type Backend struct {
	mu          sync.Mutex
	config      types.Config
	logger      *slog.Logger
	db          *sql.DB
	collections map[types.Category]*collection
}

// NewBackend creates a backend for config. Nothing touches the disk until
// Open or the first operation. A nil logger uses slog.Default().
func NewBackend(config types.Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Backend{
		config:      config,
		logger:      logger.With(slog.String("component", "sqlite")),
		collections: make(map[types.Category]*collection, len(types.Categories)),
	}
	for _, c := range types.Categories {
		b.collections[c] = &collection{backend: b, category: c, table: c.Table()}
	}
	return b
}

// Open opens the database and brings the schema up to date. Idempotent: an
// already open backend is reused. Failures are ErrStorageUnavailable.
func (b *Backend) Open(ctx context.Context) error {
	_, err := b.handle(ctx)
	return err
}

// Close releases the database handle. Idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	if err != nil {
		return types.NewError(types.ErrPersistence, "close", "", err)
	}
	b.logger.Debug("database closed")
	return nil
}

// Path returns the database file path for the configured data directory.
func (b *Backend) Path() string {
	dataDir := b.config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	return filepath.Join(dataDir, DBFileName)
}

// Collection returns the accessor for category c.
func (b *Backend) Collection(c types.Category) (types.Collection, error) {
	coll, ok := b.collections[c]
	if !ok {
		return nil, types.NewError(types.ErrUnknownCategory, "collection", c, nil)
	}
	return coll, nil
}

// handle returns the open database, opening it first if needed.
func (b *Backend) handle(ctx context.Context) (*sql.DB, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db != nil {
		return b.db, nil
	}
	db, err := b.openLocked(ctx)
	if err != nil {
		return nil, types.NewError(types.ErrStorageUnavailable, "open", "", err)
	}
	b.db = db
	return db, nil
}

// openLocked creates the data directory, opens the database, and runs the
// schema manager. The caller must hold b.mu.
func (b *Backend) openLocked(ctx context.Context) (*sql.DB, error) {
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	dataDir := b.config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	path := b.Path()
	db, err := openDB("sqlite", path+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// SQLite allows one writer; a single connection also keeps the pragmas
	// applied for the lifetime of the handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", path, err)
	}

	version, err := migrate(ctx, db, b.logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	b.logger.Debug("database opened", slog.String("path", path), slog.Int("schema_version", version))
	return db, nil
}

// withCollection runs fn inside a single-collection transaction. The
// transaction commits only if fn returns nil.
func (b *Backend) withCollection(ctx context.Context, c *collection, fn func(unitOfWork) error) error {
	db, err := b.handle(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(unitOfWork{tx: tx, category: c.category, table: c.table}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// withAllCollections runs fn inside one transaction spanning every
// collection. Only the Restore Coordinator opens one.
func (b *Backend) withAllCollections(ctx context.Context, fn func(compoundUnitOfWork) error) error {
	db, err := b.handle(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	units := make(map[types.Category]unitOfWork, len(b.collections))
	for c, coll := range b.collections {
		units[c] = unitOfWork{tx: tx, category: c, table: coll.table}
	}
	if err := fn(compoundUnitOfWork{units: units}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// persistenceError wraps err as ErrPersistence unless it already carries a
// kind (for example ErrStorageUnavailable from handle).
func persistenceError(op string, c types.Category, err error) error {
	var typed *types.Error
	if errors.As(err, &typed) {
		return err
	}
	return types.NewError(types.ErrPersistence, op, c, err)
}
