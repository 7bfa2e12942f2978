package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed documents.sql
var documentsSQL string

//go:embed chunks.sql
var chunksSQL string

//go:embed entities.sql
var entitiesSQL string

//go:embed summaries.sql
var summariesSQL string

//go:embed edges.sql
var edgesSQL string

//go:embed graph.sql
var graphSQL string

// Function lists for verification
var DocumentsFunctions = []string{
	"init_documents",
	"insert_document",
	"select_document",
	"select_all_documents",
	"select_unprocessed_documents",
	"mark_document_processed",
	"delete_document",
}

var ChunksFunctions = []string{
	"init_chunks",
	"insert_chunk",
	"select_chunk",
	"select_chunks_by_document",
	"select_chunks_by_similarity",
	"delete_chunk",
	"delete_chunks_by_document",
}

var EntitiesFunctions = []string{
	"init_entities",
	"insert_entity",
	"select_entity",
	"select_entity_by_name",
	"select_entities_by_type",
	"select_entities_mentioned_by_chunk",
	"delete_entity",
}

var SummariesFunctions = []string{
	"init_summaries",
	"insert_summary",
	"select_summary_for_chunk",
	"sweep_orphan_summaries",
	"delete_summary",
}

var EdgesFunctions = []string{
	"init_edges",
	"insert_edge",
	"select_edge",
	"select_edges_from_chunk",
	"select_edges_to_entity",
	"delete_edge",
}

var GraphFunctions = []string{
	"list_document_summaries",
	"delete_document_cascade",
	"dump_graph_nodes",
	"dump_graph_edges",
	"prune_all",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadDocumentsSql loads document-related SQL functions
func LoadDocumentsSql(db *sql.DB, force bool) error {
	return loadFunctions(db, documentsSQL, DocumentsFunctions, "documents", force)
}

// LoadChunksSql loads chunk-related SQL functions
func LoadChunksSql(db *sql.DB, force bool) error {
	return loadFunctions(db, chunksSQL, ChunksFunctions, "chunks", force)
}

// LoadEntitiesSql loads entity-related SQL functions
func LoadEntitiesSql(db *sql.DB, force bool) error {
	return loadFunctions(db, entitiesSQL, EntitiesFunctions, "entities", force)
}

// LoadSummariesSql loads summary-related SQL functions
func LoadSummariesSql(db *sql.DB, force bool) error {
	return loadFunctions(db, summariesSQL, SummariesFunctions, "summaries", force)
}

// LoadEdgesSql loads edge-related SQL functions
func LoadEdgesSql(db *sql.DB, force bool) error {
	return loadFunctions(db, edgesSQL, EdgesFunctions, "edges", force)
}

// LoadGraphSql loads graph presentation SQL functions
func LoadGraphSql(db *sql.DB, force bool) error {
	return loadFunctions(db, graphSQL, GraphFunctions, "graph", force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadDocumentsSql(db, force); err != nil {
		return err
	}

	if err := LoadChunksSql(db, force); err != nil {
		return err
	}

	if err := LoadEntitiesSql(db, force); err != nil {
		return err
	}

	if err := LoadSummariesSql(db, force); err != nil {
		return err
	}

	if err := LoadEdgesSql(db, force); err != nil {
		return err
	}

	if err := LoadGraphSql(db, force); err != nil {
		return err
	}

	return nil
}

// loadFunctions executes the given SQL unless all listed functions already exist
func loadFunctions(db *sql.DB, sqlText string, sqlFunctions []string, name string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, sqlFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(sqlText)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, sqlFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
