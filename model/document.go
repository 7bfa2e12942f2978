package model

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document represents a source document. Content holds the raw ingested text and
// stays in the store until the document has been cognified; ProcessedAt marks when
// the document was incorporated into the graph.
type Document struct {
	ID          int64      `json:"id"`
	RID         uuid.UUID  `json:"rid"`
	Title       string     `json:"title"`
	Source      string     `json:"source,omitempty"`
	Content     string     `json:"content,omitempty"`
	Metadata    Metadata   `json:"metadata,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Processed reports whether the document has been incorporated into the graph
func (d *Document) Processed() bool {
	return d.ProcessedAt != nil
}

// NewDocumentFromText creates a Document from raw text. The title is derived
// from the first non-empty line of the text, truncated to 60 characters.
func NewDocumentFromText(text string, metadata Metadata) *Document {
	return &Document{
		Title:    DeriveTitle(text),
		Source:   "text",
		Content:  text,
		Metadata: metadata,
	}
}

// DeriveTitle derives a document title from the first non-empty line of text
func DeriveTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if runes := []rune(line); len(runes) > 60 {
			return string(runes[:60])
		}
		return line
	}
	return "untitled"
}

// NewDocumentFromFile reads a file and creates a Document with the file content
// The title defaults to the filename, and source to the file path
func NewDocumentFromFile(filePath string, metadata Metadata) (*Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	// Get filename without extension for default title
	filename := filepath.Base(filePath)
	title := filename[:len(filename)-len(filepath.Ext(filename))]
	if title == "" {
		title = filename
	}

	return &Document{
		Title:    title,
		Source:   filePath,
		Content:  string(content),
		Metadata: metadata,
	}, nil
}
