package models

import (
	"encoding/json"
	"time"
)

// SavedView is a user-saved datatable state (filters, sort, page size) for
// one named table. Params is stored as raw JSON; the datatable layer owns
// the schema and the handler only checks it is syntactically valid JSON.
type SavedView struct {
	ID         int             `json:"id"`
	UserID     int             `json:"userId"`
	Table      string          `json:"table"`
	Name       string          `json:"name"`
	Params     json.RawMessage `json:"params"`
	IsDeleted  bool            `json:"-"`
	CreatedAt  time.Time       `json:"createdAt"`
	ModifiedAt time.Time       `json:"modifiedAt"`
}
