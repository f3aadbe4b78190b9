package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Metadata holds caller-supplied key/value pairs attached to a transaction.
// Values are restricted to JSON primitives and are never interpreted by the ledger.
type Metadata map[string]any

// Validate rejects nested objects and arrays.
func (m Metadata) Validate() error {
	for key, val := range m {
		if key == "" {
			return errors.New("metadata keys must not be empty")
		}
		switch val.(type) {
		case nil, string, bool, float64, float32, int, int32, int64, json.Number:
		default:
			return fmt.Errorf("metadata value for %q must be a string, number, boolean or null", key)
		}
	}
	return nil
}

// Value implements driver.Valuer for Metadata
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for Metadata
func (m *Metadata) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(b, m)
}
