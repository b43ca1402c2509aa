package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/coffer/pkg/types"
)

func mustCollection(t *testing.T, b *Backend, c types.Category) types.Collection {
	t.Helper()
	coll, err := b.Collection(c)
	require.NoError(t, err)
	return coll
}

func TestCollection_PutGetRoundTrip(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	coll := mustCollection(t, b, types.CategoryCheck)

	r := types.NewRecord("C1", 1000)
	r.Set("montant", json.Number("500"))
	r.Set("banque", "BNA")
	r.Set("meta", map[string]any{"pages": json.Number("2")})
	require.NoError(t, coll.Put(ctx, r))

	got, err := coll.Get(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, r, got)
	assert.Equal(t, types.CategoryCheck, coll.Category())
}

func TestCollection_PutGetPlainGoValues(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	coll := mustCollection(t, b, types.CategoryCheck)

	r := types.NewRecord("C2", 2000)
	r.Set("montant", 500)
	r.Set("taux", 1.5)
	r.Set("tags", []string{"a"})
	require.NoError(t, coll.Put(ctx, r))

	got, err := coll.Get(ctx, "C2")
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestCollection_PutOverwrites(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	coll := mustCollection(t, b, types.CategoryCorrespondence)

	first := types.NewRecord("D1", 1)
	first.Set("objet", "v1")
	first.Set("obsolete", true)
	require.NoError(t, coll.Put(ctx, first))

	second := types.NewRecord("D1", 2)
	second.Set("objet", "v2")
	require.NoError(t, coll.Put(ctx, second))

	all, err := coll.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, second, all[0])
	assert.NotContains(t, all[0].Fields, "obsolete")
}

func TestCollection_PutInvalid(t *testing.T) {
	b := setupBackend(t)
	coll := mustCollection(t, b, types.CategoryCorrespondence)

	err := coll.Put(context.Background(), types.NewRecord("", 1))
	assert.ErrorIs(t, err, types.ErrInvalidRecord)
}

func TestCollection_GetAllNewestFirst(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	coll := mustCollection(t, b, types.CategoryIncident)

	for i, ts := range []int64{300, 100, 200} {
		require.NoError(t, coll.Put(ctx, types.NewRecord(fmt.Sprintf("A%d", i), ts)))
	}

	all, err := coll.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{300, 200, 100}, []int64{all[0].CreatedAt, all[1].CreatedAt, all[2].CreatedAt})
}

func TestCollection_EmptyGetAll(t *testing.T) {
	b := setupBackend(t)
	for _, c := range types.Categories {
		all, err := mustCollection(t, b, c).GetAll(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	}
}

func TestCollection_Delete(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	coll := mustCollection(t, b, types.CategoryCheck)

	require.NoError(t, coll.Put(ctx, types.NewRecord("C1", 1)))
	require.NoError(t, coll.Delete(ctx, "C1"))

	_, err := coll.Get(ctx, "C1")
	assert.ErrorIs(t, err, types.ErrNotFound)

	// Absent ids are a no-op.
	require.NoError(t, coll.Delete(ctx, "C1"))
	require.NoError(t, coll.Delete(ctx, "never-existed"))
}

func TestCollection_CategoriesAreIndependent(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()

	require.NoError(t, mustCollection(t, b, types.CategoryCheck).Put(ctx, types.NewRecord("X", 1)))
	require.NoError(t, mustCollection(t, b, types.CategoryIncident).Put(ctx, types.NewRecord("X", 2)))
	require.NoError(t, mustCollection(t, b, types.CategoryCheck).Delete(ctx, "X"))

	got, err := mustCollection(t, b, types.CategoryIncident).Get(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.CreatedAt)

	n, err := mustCollection(t, b, types.CategoryCorrespondence).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCollection_FindByPrefix(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	coll := mustCollection(t, b, types.CategoryIncident)

	ids := []string{"SRM-MS/DPH/AI-0125-001", "SRM-MS/DPH/AI-0125-002", "SRM-MS/DPH/AI-0225-001", "srm-ms/dph/ai-0125-009", "X%_"}
	for i, id := range ids {
		require.NoError(t, coll.Put(ctx, types.NewRecord(id, int64(i))))
	}

	got, err := coll.FindByPrefix(ctx, "SRM-MS/DPH/AI-0125")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SRM-MS/DPH/AI-0125-002", got[0].ID)

	// LIKE wildcards in the prefix are literal.
	got, err = coll.FindByPrefix(ctx, "X%")
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = coll.FindByPrefix(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(ids), n)
}

func TestCollection_PutNext(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	coll := mustCollection(t, b, types.CategoryIncident)

	prefix := "SRM-MS/DPH/AI-0125"
	build := func(seq int) types.Record {
		return types.NewRecord(types.IncidentReference(prefix, seq), int64(seq))
	}

	first, err := coll.PutNext(ctx, prefix, build)
	require.NoError(t, err)
	assert.Equal(t, "SRM-MS/DPH/AI-0125-001", first.ID)

	second, err := coll.PutNext(ctx, prefix, build)
	require.NoError(t, err)
	assert.Equal(t, "SRM-MS/DPH/AI-0125-002", second.ID)

	_, err = coll.PutNext(ctx, prefix, func(int) types.Record { return types.NewRecord("", 1) })
	assert.ErrorIs(t, err, types.ErrInvalidRecord)
}

func TestCollection_PutNextSkipsTakenIDs(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	coll := mustCollection(t, b, types.CategoryIncident)

	prefix := "SRM-MS/DPH/AI-0125"
	build := func(seq int) types.Record {
		return types.NewRecord(types.IncidentReference(prefix, seq), int64(seq))
	}
	for range 3 {
		_, err := coll.PutNext(ctx, prefix, build)
		require.NoError(t, err)
	}
	require.NoError(t, coll.Delete(ctx, "SRM-MS/DPH/AI-0125-001"))

	// Two remain, so 003 is tried first and is still live.
	next, err := coll.PutNext(ctx, prefix, build)
	require.NoError(t, err)
	assert.Equal(t, "SRM-MS/DPH/AI-0125-004", next.ID)

	got, err := coll.Get(ctx, "SRM-MS/DPH/AI-0125-003")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.CreatedAt)

	n, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCollection_PutNextConcurrent(t *testing.T) {
	b := setupBackend(t)
	ctx := context.Background()
	coll := mustCollection(t, b, types.CategoryIncident)
	prefix := "SRM-MS/DPH/AI-0325"

	const workers = 8
	var wg sync.WaitGroup
	ids := make([]string, workers)
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := coll.PutNext(ctx, prefix, func(seq int) types.Record {
				return types.NewRecord(types.IncidentReference(prefix, seq), int64(seq))
			})
			ids[i], errs[i] = r.ID, err
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := range workers {
		require.NoError(t, errs[i])
		assert.False(t, seen[ids[i]], "duplicate reference %s", ids[i])
		seen[ids[i]] = true
	}
	n, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers, n)
}
