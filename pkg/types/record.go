package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Reserved field names every stored record carries.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
)

// Record is one persisted document of a single category. ID and CreatedAt are
// the only fields the store understands; everything else lives in Fields and
// is stored and returned verbatim.
//
// Payload values take their decoded JSON form: string, bool, json.Number,
// []any, map[string]any or nil. Set converts other Go values to that form so
// a stored record reads back equal to itself.
type Record struct {
	ID        string
	CreatedAt int64 // Unix milliseconds, set once by the caller.
	Fields    map[string]any
}

// NewRecord returns a record with an empty payload.
func NewRecord(id string, createdAt int64) Record {
	return Record{ID: id, CreatedAt: createdAt, Fields: make(map[string]any)}
}

// Set stores a payload field. Setting id or created_at updates the typed
// fields instead.
func (r *Record) Set(key string, value any) {
	switch key {
	case FieldID:
		if s, ok := value.(string); ok {
			r.ID = s
		}
		return
	case FieldCreatedAt:
		if n, ok := toInt64(value); ok {
			r.CreatedAt = n
		}
		return
	}
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[key] = normalize(value)
}

// normalize returns value in the shape a JSON decode with UseNumber yields.
// Values that cannot be encoded are kept as is.
func normalize(value any) any {
	switch value.(type) {
	case nil, string, bool, json.Number:
		return value
	}
	data, err := json.Marshal(value)
	if err != nil {
		return value
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return value
	}
	return out
}

// Field returns a payload field, or nil when absent.
func (r Record) Field(key string) any {
	return r.Fields[key]
}

// String returns a payload field as a string. Non-string values are
// formatted; absent fields yield "".
func (r Record) String(key string) string {
	switch v := r.Fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Float returns a numeric payload field. ok is false when the field is
// missing or not a number.
func (r Record) Float(key string) (float64, bool) {
	switch v := r.Fields[key].(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Clone returns a copy whose top-level payload map can be mutated freely.
func (r Record) Clone() Record {
	out := Record{ID: r.ID, CreatedAt: r.CreatedAt, Fields: make(map[string]any, len(r.Fields))}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	return out
}

// Validate checks the structural requirements the store places on a record.
func (r Record) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: missing %s", ErrInvalidRecord, FieldID)
	}
	return nil
}

// MarshalJSON flattens the record into a single JSON object.
func (r Record) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		obj[k] = v
	}
	obj[FieldID] = r.ID
	obj[FieldCreatedAt] = r.CreatedAt
	return json.Marshal(obj)
}

// UnmarshalJSON decodes a flat JSON object. The object must carry a non-empty
// string id and an integer created_at; numbers in the payload are kept as
// json.Number so they round-trip without loss.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if obj == nil {
		return fmt.Errorf("%w: not an object", ErrInvalidRecord)
	}

	id, ok := obj[FieldID].(string)
	if !ok || id == "" {
		return fmt.Errorf("%w: %s must be a non-empty string", ErrInvalidRecord, FieldID)
	}
	createdAt, ok := toInt64(obj[FieldCreatedAt])
	if !ok {
		return fmt.Errorf("%w: %s must be an integer", ErrInvalidRecord, FieldCreatedAt)
	}
	delete(obj, FieldID)
	delete(obj, FieldCreatedAt)

	r.ID = id
	r.CreatedAt = createdAt
	r.Fields = obj
	return nil
}

// DecodeRecord parses one JSON object into a Record.
func DecodeRecord(data []byte) (Record, error) {
	var r Record
	if err := r.UnmarshalJSON(data); err != nil {
		return Record{}, err
	}
	return r, nil
}

// toInt64 accepts the numeric shapes a created_at can arrive in. Floats must
// be integral.
func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return toInt64(f)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, false
		}
		// float64(math.MaxInt64) rounds up to 2^63, which is out of range.
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}
