// Package store is the category-routed facade over the three record
// collections. Day-to-day operations each touch one collection in its own
// transaction; only Import reaches the Restore Coordinator, which is the one
// place a transaction spans every collection.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/coffer/internal/backup"
	"github.com/mesh-intelligence/coffer/internal/search"
	"github.com/mesh-intelligence/coffer/internal/stats"
	"github.com/mesh-intelligence/coffer/pkg/types"
)

// Backend provides the storage lifecycle and the single-collection
// accessors.
type Backend interface {
	Open(ctx context.Context) error
	Close() error
	Collection(c types.Category) (types.Collection, error)
}

// Restorer applies parsed backup batches atomically across collections.
type Restorer interface {
	Restore(ctx context.Context, batches types.Batches) (int, error)
}

// Compile-time interface check.
var _ types.Store = (*Store)(nil)

// Store implements types.Store.
type Store struct {
	backend  Backend
	restorer Restorer
	logger   *slog.Logger
}

// New returns a facade over backend. restorer is used only by Import. A nil
// logger uses slog.Default().
func New(backend Backend, restorer Restorer, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend:  backend,
		restorer: restorer,
		logger:   logger.With(slog.String("component", "store")),
	}
}

func (s *Store) Open(ctx context.Context) error {
	return s.backend.Open(ctx)
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// Save inserts r or fully replaces the record with the same id.
func (s *Store) Save(ctx context.Context, c types.Category, r types.Record) error {
	coll, err := s.backend.Collection(c)
	if err != nil {
		return err
	}
	return coll.Put(ctx, r)
}

// List returns every record of c, newest first.
func (s *Store) List(ctx context.Context, c types.Category) ([]types.Record, error) {
	coll, err := s.backend.Collection(c)
	if err != nil {
		return nil, err
	}
	return coll.GetAll(ctx)
}

// Get looks up one record by id.
func (s *Store) Get(ctx context.Context, c types.Category, id string) (types.Record, error) {
	coll, err := s.backend.Collection(c)
	if err != nil {
		return types.Record{}, err
	}
	return coll.Get(ctx, id)
}

// FindByPrefix returns records of c whose id starts with prefix.
func (s *Store) FindByPrefix(ctx context.Context, c types.Category, prefix string) ([]types.Record, error) {
	coll, err := s.backend.Collection(c)
	if err != nil {
		return nil, err
	}
	return coll.FindByPrefix(ctx, prefix)
}

// Delete erases id from c. Absent ids are a no-op.
func (s *Store) Delete(ctx context.Context, c types.Category, id string) error {
	coll, err := s.backend.Collection(c)
	if err != nil {
		return err
	}
	return coll.Delete(ctx, id)
}

func (s *Store) SaveCorrespondence(ctx context.Context, r types.Record) error {
	return s.Save(ctx, types.CategoryCorrespondence, r)
}

func (s *Store) ListCorrespondence(ctx context.Context) ([]types.Record, error) {
	return s.List(ctx, types.CategoryCorrespondence)
}

func (s *Store) DeleteCorrespondence(ctx context.Context, id string) error {
	return s.Delete(ctx, types.CategoryCorrespondence, id)
}

func (s *Store) SaveCheck(ctx context.Context, r types.Record) error {
	return s.Save(ctx, types.CategoryCheck, r)
}

func (s *Store) ListChecks(ctx context.Context) ([]types.Record, error) {
	return s.List(ctx, types.CategoryCheck)
}

func (s *Store) DeleteCheck(ctx context.Context, id string) error {
	return s.Delete(ctx, types.CategoryCheck, id)
}

func (s *Store) SaveIncident(ctx context.Context, r types.Record) error {
	return s.Save(ctx, types.CategoryIncident, r)
}

func (s *Store) ListIncidents(ctx context.Context) ([]types.Record, error) {
	return s.List(ctx, types.CategoryIncident)
}

func (s *Store) DeleteIncident(ctx context.Context, id string) error {
	return s.Delete(ctx, types.CategoryIncident, id)
}

// NextIncidentReference counts the incidents already filed under now's month
// prefix and returns the reference after them. Two callers previewing at the
// same time get the same answer; CreateIncident is the race-free path.
func (s *Store) NextIncidentReference(ctx context.Context, now time.Time) (string, error) {
	prefix := types.IncidentReferencePrefix(now)
	existing, err := s.FindByPrefix(ctx, types.CategoryIncident, prefix)
	if err != nil {
		return "", err
	}
	return types.IncidentReference(prefix, len(existing)+1), nil
}

// CreateIncident stores r under the next incident reference for now's month.
// The count and the insert share one transaction. created_at defaults to now
// when r has none.
func (s *Store) CreateIncident(ctx context.Context, r types.Record, now time.Time) (types.Record, error) {
	coll, err := s.backend.Collection(types.CategoryIncident)
	if err != nil {
		return types.Record{}, err
	}
	prefix := types.IncidentReferencePrefix(now)
	stored, err := coll.PutNext(ctx, prefix, func(seq int) types.Record {
		rec := r.Clone()
		rec.ID = types.IncidentReference(prefix, seq)
		if rec.CreatedAt == 0 {
			rec.CreatedAt = now.UnixMilli()
		}
		return rec
	})
	if err != nil {
		return types.Record{}, err
	}
	s.logger.Info("incident created", slog.String("id", stored.ID))
	return stored, nil
}

// Search returns the records of c matching query, newest first.
func (s *Store) Search(ctx context.Context, c types.Category, query string) ([]types.Record, error) {
	records, err := s.List(ctx, c)
	if err != nil {
		return nil, err
	}
	return search.Filter(c, records, query), nil
}

// Stats summarizes category c.
func (s *Store) Stats(ctx context.Context, c types.Category) (types.Stats, error) {
	records, err := s.List(ctx, c)
	if err != nil {
		return types.Stats{}, err
	}
	return stats.Summarize(c, records), nil
}

// Export snapshots all three collections.
func (s *Store) Export(ctx context.Context) (types.Snapshot, error) {
	snap, err := backup.Export(ctx, s.backend)
	if err != nil {
		return types.Snapshot{}, err
	}
	s.logger.Info("snapshot exported",
		slog.Int("documents", len(snap.Documents)),
		slog.Int("checks", len(snap.Checks)),
		slog.Int("avis", len(snap.Avis)))
	return snap, nil
}

// Import parses data and restores it atomically. A payload that fails
// parsing is rejected before any transaction starts.
func (s *Store) Import(ctx context.Context, data []byte) (int, error) {
	batches, err := backup.Parse(data)
	if err != nil {
		s.logger.Warn("backup rejected", slog.String("error", err.Error()))
		return 0, err
	}
	return s.restorer.Restore(ctx, batches)
}
