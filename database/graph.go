package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/siherrmann/cognify/helper"
	"github.com/siherrmann/cognify/model"
	loadSql "github.com/siherrmann/cognify/sql"
)

// Visualization caps keep graph dumps of large knowledge bases renderable.
const (
	maxGraphNodes = 500
	maxGraphEdges = 1000
)

// GraphDBHandlerFunctions defines the interface for graph presentation operations.
type GraphDBHandlerFunctions interface {
	ListDocuments() ([]*model.DocumentSummary, error)
	DeleteDocument(rid uuid.UUID) error
	DumpGraph() (*model.GraphSnapshot, error)
	PruneAll() error
}

// GraphDBHandler handles graph presentation queries spanning all node tables:
// document listing with previews, cascading deletion and bounded graph dumps.
type GraphDBHandler struct {
	db *helper.Database
}

// NewGraphDBHandler creates a new graph database handler.
// It loads the graph presentation SQL functions, which depend on the
// documents, chunks, entities, summaries and edges tables already existing.
// If force is true, it will reload the SQL functions even if they already exist.
func NewGraphDBHandler(db *helper.Database, force bool) (*GraphDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	graphDbHandler := &GraphDBHandler{
		db: db,
	}

	err := loadSql.LoadGraphSql(graphDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load graph sql", err)
	}

	db.Logger.Info("Initialized GraphDBHandler")

	return graphDbHandler, nil
}

// ListDocuments returns all documents newest first, each with a preview built
// from its first chunk. Documents not yet incorporated into the graph have no
// chunks and are not listed.
func (h *GraphDBHandler) ListDocuments() ([]*model.DocumentSummary, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM list_document_summaries()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var documents []*model.DocumentSummary
	for rows.Next() {
		doc := &model.DocumentSummary{}
		var rawPreview string
		err := rows.Scan(
			&doc.ID,
			&doc.Name,
			&doc.CreatedAt,
			&rawPreview,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		doc.Preview = model.MakePreview(rawPreview)
		documents = append(documents, doc)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// DeleteDocument removes a document with its chunks and their edges, then
// sweeps summaries left without an incoming has_summary edge. Entities stay
// even when no chunk mentions them anymore. Unknown ids are a no-op.
func (h *GraphDBHandler) DeleteDocument(rid uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_document_cascade($1)`,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// DumpGraph returns a render-ready snapshot of the knowledge graph, capped at
// 500 nodes and 1000 edges. Edges include the is_part_of links synthesized
// from the chunk-to-document foreign key.
func (h *GraphDBHandler) DumpGraph() (*model.GraphSnapshot, error) {
	nodes, err := h.dumpNodes()
	if err != nil {
		return nil, err
	}

	edges, err := h.dumpEdges()
	if err != nil {
		return nil, err
	}

	return &model.GraphSnapshot{
		Nodes: nodes,
		Edges: edges,
	}, nil
}

func (h *GraphDBHandler) dumpNodes() ([]model.GraphNode, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM dump_graph_nodes($1)`,
		maxGraphNodes,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var nodes []model.GraphNode
	for rows.Next() {
		var id, name, text, nodeType string
		err := rows.Scan(&id, &name, &text, &nodeType)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		nodes = append(nodes, model.NewGraphNode(id, name, text, nodeType))
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return nodes, nil
}

func (h *GraphDBHandler) dumpEdges() ([]model.GraphEdge, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM dump_graph_edges($1)`,
		maxGraphEdges,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var edges []model.GraphEdge
	for rows.Next() {
		var from, to, relType string
		err := rows.Scan(&from, &to, &relType)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		edges = append(edges, model.GraphEdge{
			From:  from,
			To:    to,
			Label: relType,
			Title: relType,
		})
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return edges, nil
}

// PruneAll deletes all stored knowledge. Safe on an already-empty store.
func (h *GraphDBHandler) PruneAll() error {
	_, err := h.db.Instance.Exec(`SELECT prune_all()`)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
