package types

import "encoding/json"

// Snapshot keys. LegacyChecksKey is the name older exports used for checks;
// it is read on import and never written.
const (
	SnapshotDocumentsKey = "documents"
	SnapshotChecksKey    = "checks"
	SnapshotAvisKey      = "avis"
	LegacyChecksKey      = "checks_rejetes"
)

// Snapshot is the portable backup of all three collections. It carries no
// version field; compatibility is inferred from its shape on import.
type Snapshot struct {
	Documents []Record `json:"documents"`
	Checks    []Record `json:"checks"`
	Avis      []Record `json:"avis"`
}

// For returns the records of one category.
func (s Snapshot) For(c Category) []Record {
	switch c {
	case CategoryCorrespondence:
		return s.Documents
	case CategoryCheck:
		return s.Checks
	case CategoryIncident:
		return s.Avis
	}
	return nil
}

// Len returns the number of records across all categories.
func (s Snapshot) Len() int {
	return len(s.Documents) + len(s.Checks) + len(s.Avis)
}

// Batches holds the parsed, structurally valid record objects of an import,
// one batch per category. Items are raw JSON objects; their id and
// created_at are checked when the Restore Coordinator writes them.
type Batches struct {
	Documents []json.RawMessage
	Checks    []json.RawMessage
	Avis      []json.RawMessage
}

// For returns the batch of one category.
func (b Batches) For(c Category) []json.RawMessage {
	switch c {
	case CategoryCorrespondence:
		return b.Documents
	case CategoryCheck:
		return b.Checks
	case CategoryIncident:
		return b.Avis
	}
	return nil
}

// Len returns the number of items across all batches.
func (b Batches) Len() int {
	return len(b.Documents) + len(b.Checks) + len(b.Avis)
}
