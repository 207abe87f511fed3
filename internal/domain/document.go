package domain

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	PropertyID  *uuid.UUID `json:"property_id,omitempty"`
	LeaseID     *uuid.UUID `json:"lease_id,omitempty"`
	FileName    string     `json:"file_name"`
	ContentType string     `json:"content_type"`
	SizeBytes   int64      `json:"size_bytes"`
	StorageKey  string     `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
}
