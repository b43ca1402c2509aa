// Tests for the backend lifecycle and the schema manager.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/coffer/pkg/types"
)

func setupBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}, nil)
	require.NoError(t, b.Open(context.Background()))
	t.Cleanup(func() { b.Close() })
	return b
}

func rawDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	require.NoError(t, err)
	return n == 1
}

func TestBackend_OpenCreatesSchema(t *testing.T) {
	b := setupBackend(t)

	assert.FileExists(t, b.Path())
	assert.Equal(t, DBFileName, filepath.Base(b.Path()))

	db, err := b.handle(context.Background())
	require.NoError(t, err)
	version, err := schemaVersion(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)

	for _, c := range types.Categories {
		assert.True(t, tableExists(t, db, c.Table()), c.Table())
	}
}

func TestBackend_OpenIsIdempotent(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	first, err := b.handle(ctx)
	require.NoError(t, err)
	require.NoError(t, b.Open(ctx))
	second, err := b.handle(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestBackend_CloseIsIdempotentAndReopens(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	coll, err := b.Collection(types.CategoryCorrespondence)
	require.NoError(t, err)
	require.NoError(t, coll.Put(ctx, types.NewRecord("D1", 1)))

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	// The next operation reopens lazily.
	got, err := coll.Get(ctx, "D1")
	require.NoError(t, err)
	assert.Equal(t, "D1", got.ID)
}

func TestBackend_LazyOpen(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend(types.Config{Backend: types.BackendSQLite, DataDir: dir}, nil)
	t.Cleanup(func() { b.Close() })

	coll, err := b.Collection(types.CategoryCheck)
	require.NoError(t, err)
	records, err := coll.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.FileExists(t, filepath.Join(dir, DBFileName))
}

func TestBackend_StorageUnavailable(t *testing.T) {
	t.Run("data dir is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		b := NewBackend(types.Config{Backend: types.BackendSQLite, DataDir: file}, nil)
		err := b.Open(context.Background())
		assert.ErrorIs(t, err, types.ErrStorageUnavailable)

		coll, err := b.Collection(types.CategoryIncident)
		require.NoError(t, err)
		_, err = coll.GetAll(context.Background())
		assert.ErrorIs(t, err, types.ErrStorageUnavailable)
	})

	t.Run("invalid config", func(t *testing.T) {
		b := NewBackend(types.Config{DataDir: t.TempDir()}, nil)
		err := b.Open(context.Background())
		assert.ErrorIs(t, err, types.ErrStorageUnavailable)
		assert.ErrorIs(t, err, types.ErrBackendEmpty)
	})

	t.Run("driver open fails", func(t *testing.T) {
		saved := openDB
		t.Cleanup(func() { openDB = saved })
		boom := errors.New("driver refused")
		openDB = func(string, string) (*sql.DB, error) { return nil, boom }

		b := NewBackend(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}, nil)
		err := b.Open(context.Background())
		assert.ErrorIs(t, err, types.ErrStorageUnavailable)
		assert.ErrorIs(t, err, boom)
	})
}

func TestBackend_UnknownCategory(t *testing.T) {
	b := setupBackend(t)
	_, err := b.Collection(types.Category("checks_rejetes"))
	assert.ErrorIs(t, err, types.ErrUnknownCategory)
}

func TestSchema_UpgradeFromV1KeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DBFileName)

	// A version 1 database holds only the documents collection.
	db := rawDB(t, path)
	for _, stmt := range collectionDDL(types.CategoryCorrespondence.Table()) {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	_, err := db.Exec(`INSERT INTO documents (id, created_at, body) VALUES ('D1', 5, '{"id":"D1","created_at":5,"objet":"ancien"}')`)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 1")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	b := NewBackend(types.Config{Backend: types.BackendSQLite, DataDir: dir}, nil)
	require.NoError(t, b.Open(context.Background()))
	t.Cleanup(func() { b.Close() })

	coll, err := b.Collection(types.CategoryCorrespondence)
	require.NoError(t, err)
	got, err := coll.Get(context.Background(), "D1")
	require.NoError(t, err)
	assert.Equal(t, "ancien", got.String("objet"))

	handle, err := b.handle(context.Background())
	require.NoError(t, err)
	version, err := schemaVersion(context.Background(), handle)
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
	assert.True(t, tableExists(t, handle, "rejected_checks"))
	assert.True(t, tableExists(t, handle, "avis_incidents"))
}

func TestSchema_NewerVersionAccepted(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend(types.Config{Backend: types.BackendSQLite, DataDir: dir}, nil)
	require.NoError(t, b.Open(context.Background()))
	require.NoError(t, b.Close())

	db := rawDB(t, filepath.Join(dir, DBFileName))
	_, err := db.Exec("PRAGMA user_version = 7")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	require.NoError(t, b.Open(context.Background()))
	t.Cleanup(func() { b.Close() })

	handle, err := b.handle(context.Background())
	require.NoError(t, err)
	version, err := schemaVersion(context.Background(), handle)
	require.NoError(t, err)
	assert.Equal(t, 7, version)
}

func TestSchema_MigrateTwiceIsNoop(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	handle, err := b.handle(ctx)
	require.NoError(t, err)

	version, err := migrate(ctx, handle, b.logger)
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}
