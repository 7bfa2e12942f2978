package model

import (
	"time"

	"github.com/google/uuid"
)

// Entity represents a named entity (person, organization, location, etc.)
// extracted during cognify. Identity derives from (name, type), not from the
// document the entity was first seen in, so entities are shared across documents
// and deleting a document never deletes entities.
type Entity struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"entity_type"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
