// This file is the schema manager: it owns PRAGMA user_version and creates
// missing collections when the stored version is behind. Upgrades never drop
// or rewrite existing tables.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/coffer/pkg/types"
)

// Schema version tracking:
// 1 - documents
// 2 - rejected_checks
// 3 - avis_incidents
const currentSchemaVersion = 3

// migration creates the collection introduced at a schema version.
type migration struct {
	version  int
	category types.Category
}

var migrations = []migration{
	{version: 1, category: types.CategoryCorrespondence},
	{version: 2, category: types.CategoryCheck},
	{version: 3, category: types.CategoryIncident},
}

// collectionDDL returns the statements that create a collection table and
// its created_at index. Both are IF NOT EXISTS so a collection that already
// exists is left untouched.
func collectionDDL(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL,
    body TEXT NOT NULL
);`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s(created_at);`, table, table),
	}
}

// schemaVersion reads PRAGMA user_version.
func schemaVersion(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}) (int, error) {
	var version int
	if err := q.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// migrate brings the database to currentSchemaVersion. When the stored
// version is lower, every collection is ensured (a database that skipped a
// version still ends up with all three) and the version is bumped, all in one
// transaction. A newer stored version is left as is. Returns the version in
// effect afterwards.
func migrate(ctx context.Context, db *sql.DB, logger *slog.Logger) (int, error) {
	version, err := schemaVersion(ctx, db)
	if err != nil {
		return 0, err
	}
	if version >= currentSchemaVersion {
		if version > currentSchemaVersion {
			logger.Warn("database schema is newer than this build",
				slog.Int("stored", version), slog.Int("supported", currentSchemaVersion))
		}
		return version, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	for _, m := range migrations {
		for _, stmt := range collectionDDL(m.category.Table()) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return 0, fmt.Errorf("migrate to v%d (%s): %w", m.version, m.category.Table(), err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return 0, fmt.Errorf("set user_version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit migration: %w", err)
	}

	logger.Info("database schema upgraded",
		slog.Int("from", version), slog.Int("to", currentSchemaVersion))
	return currentSchemaVersion, nil
}
