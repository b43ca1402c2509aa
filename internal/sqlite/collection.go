// This file implements the per-category record collections. Each record is
// stored as its full JSON body keyed by id, with created_at copied into its
// own indexed column for ordering.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/mesh-intelligence/coffer/pkg/types"
)

// Compile-time interface check.
var _ types.Collection = (*collection)(nil)

// collection implements types.Collection for one category.
type collection struct {
	backend  *Backend
	category types.Category
	table    string
}

// unitOfWork is a transaction scoped to one collection's table.
type unitOfWork struct {
	tx       *sql.Tx
	category types.Category
	table    string
}

// compoundUnitOfWork is a single transaction scoped to every collection.
type compoundUnitOfWork struct {
	units map[types.Category]unitOfWork
}

// unit returns the view of the compound transaction for one category.
func (cu compoundUnitOfWork) unit(c types.Category) unitOfWork {
	return cu.units[c]
}

// put upserts r. The whole row is replaced; no fields are merged.
func (u unitOfWork) put(ctx context.Context, r types.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", r.ID, err)
	}
	_, err = u.tx.ExecContext(ctx,
		"INSERT INTO "+u.table+" (id, created_at, body) VALUES (?, ?, ?) "+
			"ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at, body = excluded.body",
		r.ID, r.CreatedAt, string(body),
	)
	if err != nil {
		return fmt.Errorf("writing record %s: %w", r.ID, err)
	}
	return nil
}

// insert adds r and fails if its id is taken.
func (u unitOfWork) insert(ctx context.Context, r types.Record) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", r.ID, err)
	}
	_, err = u.tx.ExecContext(ctx,
		"INSERT INTO "+u.table+" (id, created_at, body) VALUES (?, ?, ?)",
		r.ID, r.CreatedAt, string(body),
	)
	if err != nil {
		return fmt.Errorf("inserting record %s: %w", r.ID, err)
	}
	return nil
}

// exists reports whether id is stored.
func (u unitOfWork) exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := u.tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+u.table+" WHERE id = ?", id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("looking up %s: %w", id, err)
	}
	return n > 0, nil
}

// countPrefix counts records whose id starts with prefix.
func (u unitOfWork) countPrefix(ctx context.Context, prefix string) (int, error) {
	var n int
	err := u.tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+u.table+" WHERE substr(id, 1, ?) = ?",
		utf8.RuneCountInString(prefix), prefix,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %q: %w", prefix, err)
	}
	return n, nil
}

func (c *collection) Category() types.Category {
	return c.category
}

// Put inserts or fully replaces r in its own transaction.
func (c *collection) Put(ctx context.Context, r types.Record) error {
	if err := r.Validate(); err != nil {
		return types.NewError(types.ErrInvalidRecord, "put", c.category, err)
	}
	err := c.backend.withCollection(ctx, c, func(u unitOfWork) error {
		return u.put(ctx, r)
	})
	if err != nil {
		return persistenceError("put", c.category, err)
	}
	return nil
}

// PutNext counts existing ids under prefix and builds the record for the
// next sequence number. While the built id is already stored (an earlier
// record under the prefix was deleted) the sequence keeps advancing. The
// count, the lookups and the insert share one transaction, so an existing
// record is never replaced.
func (c *collection) PutNext(ctx context.Context, prefix string, build func(seq int) types.Record) (types.Record, error) {
	var stored types.Record
	err := c.backend.withCollection(ctx, c, func(u unitOfWork) error {
		n, err := u.countPrefix(ctx, prefix)
		if err != nil {
			return err
		}
		for seq := n + 1; ; seq++ {
			stored = build(seq)
			if err := stored.Validate(); err != nil {
				return types.NewError(types.ErrInvalidRecord, "put", c.category, err)
			}
			taken, err := u.exists(ctx, stored.ID)
			if err != nil {
				return err
			}
			if !taken {
				return u.insert(ctx, stored)
			}
		}
	})
	if err != nil {
		return types.Record{}, persistenceError("put", c.category, err)
	}
	return stored, nil
}

// GetAll returns every record, newest first.
func (c *collection) GetAll(ctx context.Context) ([]types.Record, error) {
	records, err := c.query(ctx, "SELECT body FROM "+c.table+" ORDER BY created_at DESC")
	if err != nil {
		return nil, persistenceError("get all", c.category, err)
	}
	return records, nil
}

// Get returns the record with the given id.
func (c *collection) Get(ctx context.Context, id string) (types.Record, error) {
	records, err := c.query(ctx, "SELECT body FROM "+c.table+" WHERE id = ?", id)
	if err != nil {
		return types.Record{}, persistenceError("get", c.category, err)
	}
	if len(records) == 0 {
		return types.Record{}, types.NewError(types.ErrNotFound, "get", c.category, fmt.Errorf("id %q", id))
	}
	return records[0], nil
}

// FindByPrefix returns records whose id starts with prefix, newest first.
func (c *collection) FindByPrefix(ctx context.Context, prefix string) ([]types.Record, error) {
	records, err := c.query(ctx,
		"SELECT body FROM "+c.table+" WHERE substr(id, 1, ?) = ? ORDER BY created_at DESC",
		utf8.RuneCountInString(prefix), prefix,
	)
	if err != nil {
		return nil, persistenceError("find", c.category, err)
	}
	return records, nil
}

// Count returns the number of records.
func (c *collection) Count(ctx context.Context) (int, error) {
	db, err := c.backend.handle(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(&n); err != nil {
		return 0, persistenceError("count", c.category, err)
	}
	return n, nil
}

// Delete removes id if present. Deleting an absent id is not an error.
func (c *collection) Delete(ctx context.Context, id string) error {
	err := c.backend.withCollection(ctx, c, func(u unitOfWork) error {
		if _, err := u.tx.ExecContext(ctx, "DELETE FROM "+u.table+" WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting record %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return persistenceError("delete", c.category, err)
	}
	return nil
}

// query runs a SELECT over the body column and decodes every row.
func (c *collection) query(ctx context.Context, query string, args ...any) ([]types.Record, error) {
	db, err := c.backend.handle(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", c.table, err)
	}
	defer rows.Close()

	records := []types.Record{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", c.table, err)
		}
		r, err := types.DecodeRecord([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("decoding %s row: %w", c.table, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", c.table, err)
	}
	return records, nil
}
