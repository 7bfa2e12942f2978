package model

import (
	"time"

	"github.com/google/uuid"
)

// Summary is derived text attached to a chunk or document via a has_summary edge.
// Summaries without an incoming has_summary edge are garbage and eligible for sweep.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// String returns the summary text, making Summary usable as an opaque answer object
func (s *Summary) String() string {
	return s.Content
}
