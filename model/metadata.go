package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/cbrandt/rescore/helper"
)

// Metadata represents free-form JSONB metadata carried by a candidate
type Metadata map[string]interface{}

// Value implements the driver.Valuer interface for database storage
func (m Metadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, m)
}

// ChunkMeta is the per-hash persisted configuration of a chunk: its trigger
// keywords, activation conditions, links and injection placement
type ChunkMeta struct {
	Hash            string       `json:"hash"`
	Keywords        []Keyword    `json:"keywords,omitempty"`
	Conditions      ConditionSet `json:"conditions"`
	Links           []ChunkLink  `json:"chunk_links,omitempty"`
	TemporallyBlind bool         `json:"temporally_blind,omitempty"`
	Context         string       `json:"context,omitempty"`
	Position        *Position    `json:"position,omitempty"`
	Depth           *int         `json:"depth,omitempty"`
}

// Value implements the driver.Valuer interface for database storage
func (m ChunkMeta) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for database retrieval
func (m *ChunkMeta) Scan(value interface{}) error {
	if value == nil {
		*m = ChunkMeta{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, m)
}
