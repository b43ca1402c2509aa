// Package backup converts between the three record collections and the
// portable snapshot format used for export and import.
//
// A snapshot is a single JSON object:
//
//	{
//	  "documents": [ ... ],
//	  "checks":    [ ... ],
//	  "avis":      [ ... ],
//	  "checks_rejetes": [ ... ]
//	}
//
// Every field is optional. checks_rejetes is the name older exports used for
// checks; on import it is merged into checks and it is never written.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/coffer/pkg/types"
)

// Source provides the collections to export.
type Source interface {
	Collection(c types.Category) (types.Collection, error)
}

// legacyFields maps retired top-level field names to the field they now feed.
// Their items are appended after the current field's items.
var legacyFields = map[string]string{
	types.LegacyChecksKey: types.SnapshotChecksKey,
}

// legacyOrder fixes the merge order of legacy fields so parsing is
// deterministic.
var legacyOrder = []string{types.LegacyChecksKey}

// categoryFields maps each category to its snapshot field.
var categoryFields = map[types.Category]string{
	types.CategoryCorrespondence: types.SnapshotDocumentsKey,
	types.CategoryCheck:          types.SnapshotChecksKey,
	types.CategoryIncident:       types.SnapshotAvisKey,
}

// Export reads every collection and returns the snapshot. Records are copied
// as stored, newest first within each category.
func Export(ctx context.Context, src Source) (types.Snapshot, error) {
	var snap types.Snapshot
	for _, c := range types.Categories {
		coll, err := src.Collection(c)
		if err != nil {
			return types.Snapshot{}, err
		}
		records, err := coll.GetAll(ctx)
		if err != nil {
			return types.Snapshot{}, err
		}
		switch c {
		case types.CategoryCorrespondence:
			snap.Documents = records
		case types.CategoryCheck:
			snap.Checks = records
		case types.CategoryIncident:
			snap.Avis = records
		}
	}
	return normalizeSnapshot(snap), nil
}

// Encode renders a snapshot as indented JSON. Empty categories are written
// as empty arrays, never null.
func Encode(snap types.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(normalizeSnapshot(snap), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Parse validates raw snapshot bytes and splits them into per-category
// batches. Any structural problem yields ErrInvalidBackupFormat; Parse never
// writes anything.
func Parse(data []byte) (types.Batches, error) {
	top, err := decodeObject(data)
	if err != nil {
		return types.Batches{}, invalid("", err)
	}

	fields := normalize(top)

	var batches types.Batches
	for _, c := range types.Categories {
		name := categoryFields[c]
		var items []json.RawMessage
		for _, raw := range fields[name] {
			part, err := decodeItems(raw.value)
			if err != nil {
				return types.Batches{}, invalid(c, fmt.Errorf("field %q: %w", raw.field, err))
			}
			items = append(items, part...)
		}
		switch c {
		case types.CategoryCorrespondence:
			batches.Documents = items
		case types.CategoryCheck:
			batches.Checks = items
		case types.CategoryIncident:
			batches.Avis = items
		}
	}
	return batches, nil
}

// sourceField is one top-level value feeding a snapshot field, remembering
// which field name it was read from.
type sourceField struct {
	field string
	value json.RawMessage
}

// normalize applies the legacy field rule: each retired field's value is
// queued after the value of the field that replaced it. Unrecognized fields
// are dropped.
func normalize(top map[string]json.RawMessage) map[string][]sourceField {
	out := make(map[string][]sourceField, len(categoryFields))
	for _, name := range categoryFields {
		if v, ok := top[name]; ok {
			out[name] = append(out[name], sourceField{field: name, value: v})
		}
	}
	for _, legacy := range legacyOrder {
		if v, ok := top[legacy]; ok {
			target := legacyFields[legacy]
			out[target] = append(out[target], sourceField{field: legacy, value: v})
		}
	}
	return out
}

// decodeObject requires data to be a single JSON object.
func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("payload is %s, want object", jsonKind(trimmed))
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return nil, err
	}
	return top, nil
}

// decodeItems requires raw to be null or an array of objects. null counts as
// an empty array.
func decodeItems(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("is %s, want array", jsonKind(trimmed))
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return nil, fmt.Errorf("item %d is %s, want object", i, jsonKind(item))
		}
		items[i] = item
	}
	return items, nil
}

// jsonKind names the type of a valid JSON value from its first byte.
func jsonKind(v []byte) string {
	if len(v) == 0 {
		return "empty"
	}
	switch v[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

func invalid(c types.Category, err error) error {
	return types.NewError(types.ErrInvalidBackupFormat, "parse", c, err)
}

// normalizeSnapshot replaces nil slices so empty categories encode as [].
func normalizeSnapshot(s types.Snapshot) types.Snapshot {
	if s.Documents == nil {
		s.Documents = []types.Record{}
	}
	if s.Checks == nil {
		s.Checks = []types.Record{}
	}
	if s.Avis == nil {
		s.Avis = []types.Record{}
	}
	return s
}
