package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	previewMaxLength = 150
	labelMaxLength   = 40
	labelIDLength    = 30
)

// DocumentSummary is the listing shape for a stored document
type DocumentSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Preview   string    `json:"preview"`
	CreatedAt time.Time `json:"created_at"`
}

// GraphNode is a node in a visualization snapshot
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

// GraphEdge is an edge in a visualization snapshot
type GraphEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
	Title string `json:"title"`
}

// GraphSnapshot is a bounded dump of the graph for visualization.
// It is never a complete export, callers must not assume completeness
// beyond the node and edge caps.
type GraphSnapshot struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// MakePreview collapses newlines to spaces, trims, and truncates the text to
// 150 characters with an ellipsis marker if longer. Truncation counts
// characters, not bytes, so multibyte text is never cut mid-rune.
func MakePreview(text string) string {
	preview := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	return truncateRunes(preview, previewMaxLength)
}

// DeriveNodeLabel derives a display label for a graph node: the name property if
// set, else the text property, else the first 30 characters of the id. Labels
// longer than 40 characters are truncated with an ellipsis marker.
func DeriveNodeLabel(name string, text string, id string) string {
	label := name
	if label == "" {
		label = text
	}
	if label == "" {
		label = id
		if runes := []rune(label); len(runes) > labelIDLength {
			label = string(runes[:labelIDLength])
		}
	}
	return truncateRunes(label, labelMaxLength)
}

// truncateRunes caps text at maxRunes characters, appending an ellipsis
// marker when it was longer
func truncateRunes(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) > maxRunes {
		return string(runes[:maxRunes]) + "..."
	}
	return text
}

// NewGraphNode builds a visualization node with derived label and tooltip.
// An empty label falls back to the node type.
func NewGraphNode(id string, name string, text string, nodeType string) GraphNode {
	label := DeriveNodeLabel(name, text, id)
	if label == "" {
		label = nodeType
	}
	return GraphNode{
		ID:    id,
		Label: label,
		Type:  nodeType,
		Title: fmt.Sprintf("Type: %s\n%s", nodeType, label),
	}
}
