package dto

import (
	"encoding/json"
	"time"
)

// HistoryEntryResponse cambio auditado; Before/After son el snapshot tipado serializado.
type HistoryEntryResponse struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	EntityID  string          `json:"entity_id"`
	Action    string          `json:"action"`
	Before    json.RawMessage `json:"before,omitempty"`
	After     json.RawMessage `json:"after,omitempty"`
	ChangedBy string          `json:"changed_by"`
	CreatedAt time.Time       `json:"created_at"`
}
