package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/cognify/helper"
	"github.com/siherrmann/cognify/model"
	loadSql "github.com/siherrmann/cognify/sql"
)

// EdgesDBHandlerFunctions defines the interface for Edges database operations.
type EdgesDBHandlerFunctions interface {
	InsertEdge(edge *model.Edge) error
	InsertEdgeTx(tx *sql.Tx, edge *model.Edge) error
	SelectEdge(id uuid.UUID) (*model.Edge, error)
	SelectEdgesFromChunk(chunkRID uuid.UUID, edgeType *model.EdgeType) ([]*model.Edge, error)
	SelectEdgesToEntity(entityID uuid.UUID, edgeType *model.EdgeType) ([]*model.Edge, error)
	DeleteEdge(id uuid.UUID) error
}

// EdgesDBHandler handles edge-related database operations
type EdgesDBHandler struct {
	db *helper.Database
}

// NewEdgesDBHandler creates a new edges database handler.
// It initializes the database connection and loads edge-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEdgesDBHandler(db *helper.Database, force bool) (*EdgesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	edgesDbHandler := &EdgesDBHandler{
		db: db,
	}

	err := loadSql.LoadEdgesSql(edgesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load edges sql", err)
	}

	err = edgesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EdgesDBHandler")

	return edgesDbHandler, nil
}

// CreateTable creates the 'edges' table and the edge_type enum in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *EdgesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_edges();`)
	if err != nil {
		log.Panicf("error initializing edges table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table edges")

	return nil
}

// InsertEdge inserts a new edge. Exactly one source endpoint and exactly one
// target endpoint must be set, enforced by table constraints.
func (h *EdgesDBHandler) InsertEdge(edge *model.Edge) error {
	return h.insertEdge(h.db.Instance, edge)
}

// InsertEdgeTx is InsertEdge inside a caller-managed transaction.
func (h *EdgesDBHandler) InsertEdgeTx(tx *sql.Tx, edge *model.Edge) error {
	return h.insertEdge(tx, edge)
}

func (h *EdgesDBHandler) insertEdge(q querier, edge *model.Edge) error {
	row := q.QueryRow(
		`SELECT * FROM insert_edge($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		edge.SourceChunkRID,
		edge.TargetChunkRID,
		edge.SourceEntityID,
		edge.TargetEntityID,
		edge.TargetSummaryID,
		string(edge.EdgeType),
		edge.Weight,
		edge.Bidirectional,
		edge.Metadata,
	)
	return scanEdge(row, edge)
}

// SelectEdge retrieves an edge by ID
func (h *EdgesDBHandler) SelectEdge(id uuid.UUID) (*model.Edge, error) {
	edge := &model.Edge{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_edge($1)`,
		id,
	)
	err := scanEdge(row, edge)
	if err != nil {
		return nil, err
	}
	return edge, nil
}

// SelectEdgesFromChunk retrieves all edges originating at a chunk,
// optionally filtered by edge type.
func (h *EdgesDBHandler) SelectEdgesFromChunk(chunkRID uuid.UUID, edgeType *model.EdgeType) ([]*model.Edge, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_edges_from_chunk($1, $2)`,
		chunkRID,
		edgeTypeParam(edgeType),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// SelectEdgesToEntity retrieves all edges pointing at an entity,
// optionally filtered by edge type.
func (h *EdgesDBHandler) SelectEdgesToEntity(entityID uuid.UUID, edgeType *model.EdgeType) ([]*model.Edge, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_edges_to_entity($1, $2)`,
		entityID,
		edgeTypeParam(edgeType),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanEdges(rows)
}

// DeleteEdge deletes an edge by ID
func (h *EdgesDBHandler) DeleteEdge(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_edge($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func edgeTypeParam(edgeType *model.EdgeType) interface{} {
	if edgeType == nil {
		return nil
	}
	return string(*edgeType)
}

func scanEdge(row *sql.Row, edge *model.Edge) error {
	err := row.Scan(
		&edge.ID,
		&edge.SourceChunkRID,
		&edge.TargetChunkRID,
		&edge.SourceEntityID,
		&edge.TargetEntityID,
		&edge.TargetSummaryID,
		&edge.EdgeType,
		&edge.Weight,
		&edge.Bidirectional,
		&edge.Metadata,
		&edge.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}
	return nil
}

func scanEdges(rows *sql.Rows) ([]*model.Edge, error) {
	var edges []*model.Edge
	for rows.Next() {
		edge := &model.Edge{}
		err := rows.Scan(
			&edge.ID,
			&edge.SourceChunkRID,
			&edge.TargetChunkRID,
			&edge.SourceEntityID,
			&edge.TargetEntityID,
			&edge.TargetSummaryID,
			&edge.EdgeType,
			&edge.Weight,
			&edge.Bidirectional,
			&edge.Metadata,
			&edge.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		edges = append(edges, edge)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return edges, nil
}
