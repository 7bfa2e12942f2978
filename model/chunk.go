package model

import (
	"time"

	"github.com/google/uuid"
)

// Chunk represents a contiguous slice of a document's text (a node in the graph).
// A chunk belongs to exactly one document; ChunkIndex orders chunks within it.
type Chunk struct {
	ID          int64     `json:"id"`
	RID         uuid.UUID `json:"rid"`
	DocumentID  int64     `json:"document_id"`
	DocumentRID uuid.UUID `json:"document_rid"`
	Content     string    `json:"content"`
	Path        string    `json:"path"` // ltree path
	Embedding   []float32 `json:"embedding,omitempty"`
	ChunkIndex  int       `json:"chunk_index"`
	Metadata    Metadata  `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	// Result field, only populated by similarity queries
	Similarity float64 `json:"similarity,omitempty"`
}
