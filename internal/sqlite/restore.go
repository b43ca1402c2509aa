// This file implements the Restore Coordinator: applying a parsed backup to
// all three collections in one transaction.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/coffer/pkg/types"
)

// Restore writes every item of every batch with overwrite-by-id semantics and
// returns the number of records written. Records absent from the batches are
// never touched. If any item fails to decode or write, the transaction rolls
// back, nothing from this call is committed, and the error is
// ErrRestoreFailed wrapping the cause.
func (b *Backend) Restore(ctx context.Context, batches types.Batches) (int, error) {
	count := 0
	err := b.withAllCollections(ctx, func(cu compoundUnitOfWork) error {
		for _, c := range types.Categories {
			u := cu.unit(c)
			for i, raw := range batches.For(c) {
				r, err := types.DecodeRecord(raw)
				if err != nil {
					return fmt.Errorf("%s[%d]: %w", c, i, err)
				}
				if err := u.put(ctx, r); err != nil {
					return fmt.Errorf("%s[%d]: %w", c, i, err)
				}
				count++
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, types.ErrStorageUnavailable) {
			return 0, err
		}
		b.logger.Warn("restore aborted", slog.Int("attempted", batches.Len()), slog.String("error", err.Error()))
		return 0, types.NewError(types.ErrRestoreFailed, "restore", "", err)
	}

	b.logger.Info("restore committed",
		slog.Int("documents", len(batches.Documents)),
		slog.Int("checks", len(batches.Checks)),
		slog.Int("avis", len(batches.Avis)))
	return count, nil
}
