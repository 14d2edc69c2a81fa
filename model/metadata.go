package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/siherrmann/lexrag/helper"
)

// Metadata represents JSONB metadata stored in PostgreSQL
type Metadata map[string]interface{}

// Value implements driver.Valuer for JSONB columns
func (m Metadata) Value() (driver.Value, error) {
	return m.Marshal()
}

// Scan implements sql.Scanner for JSONB columns
func (m *Metadata) Scan(value interface{}) error {
	return m.Unmarshal(value)
}

func (m Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal accepts JSON bytes, an existing Metadata value or nil.
// Nil scans into an empty map so callers never see a nil metadata.
func (m *Metadata) Unmarshal(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	if existing, ok := value.(Metadata); ok {
		*m = existing
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, m)
}
