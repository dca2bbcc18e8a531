package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is a free-form JSON object stored in a jsonb (Postgres) or text (SQLite) column.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("metadata: marshal: %w", err)
	}
	return string(raw), nil
}

func (m *Metadata) Scan(value any) error {
	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("metadata: unsupported scan type %T", value)
	}
	out := Metadata{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("metadata: unmarshal: %w", err)
		}
	}
	*m = out
	return nil
}

// StringList is a JSON array of strings, used for job channels.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("string list: marshal: %w", err)
	}
	return string(raw), nil
}

func (l *StringList) Scan(value any) error {
	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("string list: unsupported scan type %T", value)
	}
	out := StringList{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("string list: unmarshal: %w", err)
		}
	}
	*l = out
	return nil
}

// RawJSON stores an arbitrary JSON document, preserving the bytes as given.
type RawJSON json.RawMessage

func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	if !json.Valid(r) {
		return nil, fmt.Errorf("raw json: invalid document")
	}
	return string(r), nil
}

func (r *RawJSON) Scan(value any) error {
	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("raw json: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*r = nil
		return nil
	}
	*r = append((*r)[:0], raw...)
	return nil
}

func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *RawJSON) UnmarshalJSON(data []byte) error {
	if r == nil {
		return fmt.Errorf("raw json: UnmarshalJSON on nil pointer")
	}
	*r = append((*r)[:0], data...)
	return nil
}

func toBytes(value any) ([]byte, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
