package models

import (
	"encoding/json"
	"time"
)

// Version is a snapshot record for a versioned entity. Version numbers
// increase monotonically per (entity_type, entity_id).
type Version struct {
	ID            int64           `json:"id" db:"id"`
	EntityType    string          `json:"entityType" db:"entity_type"`
	EntityID      int64           `json:"entityId" db:"entity_id"`
	VersionNumber int             `json:"versionNumber" db:"version_number"`
	Data          json.RawMessage `json:"data" db:"data"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}
