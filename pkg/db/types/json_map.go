package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap is a schema-less key/value bag persisted as JSONB. The
// notification pipeline carries it opaquely; nothing reads back into it
// after creation except to echo it to API consumers.
type JSONMap map[string]any

func (m *JSONMap) Scan(src any) error {
	if src == nil {
		*m = JSONMap{}
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return m.parseFromBytes(v)
	case string:
		return m.parseFromBytes([]byte(v))
	default:
		return fmt.Errorf("JSONMap: unsupported Scan type %T", src)
	}
}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("JSONMap: marshal: %w", err)
	}
	return string(raw), nil
}

func (m *JSONMap) parseFromBytes(raw []byte) error {
	if len(raw) == 0 {
		*m = JSONMap{}
		return nil
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("JSONMap: parse: %w", err)
	}
	*m = JSONMap(out)
	return nil
}
