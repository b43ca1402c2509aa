package types

import (
	"context"
	"time"
)

// Collection is durable keyed storage for one category. Every method runs in
// its own single-collection transaction.
type Collection interface {
	// Category returns the category this collection stores.
	Category() Category

	// Put inserts the record or fully replaces the record with the same ID.
	Put(ctx context.Context, r Record) error

	// GetAll returns every record, newest created_at first. An empty
	// collection yields an empty slice.
	GetAll(ctx context.Context) ([]Record, error)

	// Get returns the record with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)

	// FindByPrefix returns records whose ID starts with prefix, newest first.
	FindByPrefix(ctx context.Context, prefix string) ([]Record, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// PutNext counts the IDs starting with prefix and calls build with that
	// count plus one, advancing while the built ID is already stored. The
	// result is inserted in the same transaction and never replaces a record.
	PutNext(ctx context.Context, prefix string, build func(seq int) Record) (Record, error)

	// Delete removes the record with the given ID. Absent IDs are a no-op.
	Delete(ctx context.Context, id string) error
}

// Store is the category-routed facade over the three collections. Callers
// hold transient copies of records and re-read to observe changes.
type Store interface {
	// Open prepares storage. It is idempotent; operations also open lazily.
	Open(ctx context.Context) error

	// Close releases the storage handle. Idempotent.
	Close() error

	Save(ctx context.Context, c Category, r Record) error
	List(ctx context.Context, c Category) ([]Record, error)
	Get(ctx context.Context, c Category, id string) (Record, error)
	FindByPrefix(ctx context.Context, c Category, prefix string) ([]Record, error)
	Delete(ctx context.Context, c Category, id string) error

	SaveCorrespondence(ctx context.Context, r Record) error
	ListCorrespondence(ctx context.Context) ([]Record, error)
	DeleteCorrespondence(ctx context.Context, id string) error

	SaveCheck(ctx context.Context, r Record) error
	ListChecks(ctx context.Context) ([]Record, error)
	DeleteCheck(ctx context.Context, id string) error

	SaveIncident(ctx context.Context, r Record) error
	ListIncidents(ctx context.Context) ([]Record, error)
	DeleteIncident(ctx context.Context, id string) error

	// NextIncidentReference previews the reference the next incident created
	// at now would receive.
	NextIncidentReference(ctx context.Context, now time.Time) (string, error)

	// CreateIncident assigns the next reference to r and inserts it in one
	// transaction. Returns the stored record.
	CreateIncident(ctx context.Context, r Record, now time.Time) (Record, error)

	// Search filters a category listing by a case- and accent-insensitive
	// substring.
	Search(ctx context.Context, c Category, query string) ([]Record, error)

	// Stats summarizes one category.
	Stats(ctx context.Context, c Category) (Stats, error)

	// Export snapshots all three collections.
	Export(ctx context.Context) (Snapshot, error)

	// Import parses a raw snapshot and restores it atomically. Returns the
	// number of records written.
	Import(ctx context.Context, data []byte) (int, error)
}

// Stats is a per-category summary. Breakdown keys depend on the category:
// incidents group by nature, checks by bank, correspondence by type.
type Stats struct {
	Category    Category       `json:"category"`
	Total       int            `json:"total"`
	Closed      int            `json:"closed,omitempty"`
	TotalAmount float64        `json:"total_amount,omitempty"`
	Breakdown   map[string]int `json:"breakdown"`
}
