package model

import (
	"time"

	"github.com/google/uuid"
)

// EdgeType represents the type of relationship between graph nodes
type EdgeType string

const (
	EdgeTypeIsPartOf      EdgeType = "is_part_of"
	EdgeTypeEntityMention EdgeType = "entity_mention"
	EdgeTypeCoOccurs      EdgeType = "co_occurs_with"
	EdgeTypeReference     EdgeType = "reference"
	EdgeTypeHasSummary    EdgeType = "has_summary"
)

// Edge represents a typed, directed relationship between graph nodes.
// Exactly one source and one target endpoint is set; endpoints may be chunks,
// entities or summaries. Edges are deleted when either endpoint is deleted.
type Edge struct {
	ID              uuid.UUID  `json:"id"`
	SourceChunkRID  *uuid.UUID `json:"source_chunk_rid,omitempty"`
	TargetChunkRID  *uuid.UUID `json:"target_chunk_rid,omitempty"`
	SourceEntityID  *uuid.UUID `json:"source_entity_id,omitempty"`
	TargetEntityID  *uuid.UUID `json:"target_entity_id,omitempty"`
	TargetSummaryID *uuid.UUID `json:"target_summary_id,omitempty"`
	EdgeType        EdgeType   `json:"edge_type"`
	Weight          float64    `json:"weight"`
	Bidirectional   bool       `json:"bidirectional"`
	Metadata        Metadata   `json:"metadata,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
