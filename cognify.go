package cognify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/siherrmann/cognify/core/pipeline"
	"github.com/siherrmann/cognify/core/retrieval"
	"github.com/siherrmann/cognify/database"
	"github.com/siherrmann/cognify/helper"
	"github.com/siherrmann/cognify/model"
	loadSql "github.com/siherrmann/cognify/sql"
)

var (
	// ErrEmptyText is returned when an ingested text is empty or whitespace-only
	ErrEmptyText = errors.New("text is empty")
	// ErrNoPipeline is returned when an operation needs a pipeline and none is set
	ErrNoPipeline = errors.New("pipeline not set, use SetPipeline or UseDefaultPipeline first")
)

// Error classes wrapped around every failure a Memory operation returns,
// checked with errors.Is. The cause stays in the chain, so errors.Is also
// matches sentinels like ErrEmptyText.
var (
	ErrIngest = errors.New("ingest error")
	ErrBuild  = errors.New("build error")
	ErrQuery  = errors.New("query error")
	ErrStore  = errors.New("store error")
)

// Memory provides a unified interface to the knowledge base: staging raw
// documents, incorporating them into the graph, querying and resetting.
type Memory struct {
	DB        *helper.Database
	Documents *database.DocumentsDBHandler
	Chunks    *database.ChunksDBHandler
	Entities  *database.EntitiesDBHandler
	Summaries *database.SummariesDBHandler
	Edges     *database.EdgesDBHandler
	Graph     *database.GraphDBHandler
	Pipeline  *pipeline.Pipeline // Optional processing pipeline
	Engine    *retrieval.Engine  // Retrieval engine for search
	// Logging
	log *slog.Logger
	// Serializes Cognify within this process. Concurrent builders in separate
	// processes are not protected.
	buildMu sync.Mutex
}

// NewMemory creates a new Memory instance with all handlers initialized
func NewMemory(config *helper.DatabaseConfiguration, embeddingDim int) (*Memory, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("cognify", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in dependency order (documents first, edges last
	// since they reference chunks, entities and summaries)
	// force=false to not reload if functions already exist
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	entities, err := database.NewEntitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	summaries, err := database.NewSummariesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create summaries handler", err)
	}

	edges, err := database.NewEdgesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create edges handler", err)
	}

	graph, err := database.NewGraphDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create graph handler", err)
	}

	engine := retrieval.NewEngine(chunks, edges, entities, summaries)

	return &Memory{
		DB:        db,
		Documents: documents,
		Chunks:    chunks,
		Entities:  entities,
		Summaries: summaries,
		Edges:     edges,
		Graph:     graph,
		Engine:    engine,
		log:       logger,
	}, nil
}

// Logger returns the logger the memory writes to, so callers can share it
func (m *Memory) Logger() *slog.Logger {
	return m.log
}

// Close closes the database connection
func (m *Memory) Close() error {
	if m.DB != nil && m.DB.Instance != nil {
		return m.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the processing pipeline used by Cognify and Search
func (m *Memory) SetPipeline(pipeline *pipeline.Pipeline) {
	m.Pipeline = pipeline
}

// UseDefaultPipeline sets up the default processing pipeline:
// semantic chunking (500 char max chunks, 0.7 similarity threshold),
// all-MiniLM-L6-v2 embeddings (384 dimensions), distilbert-NER entity
// extraction, co-occurrence relation extraction and a lead summarizer.
func (m *Memory) UseDefaultPipeline() error {
	chunker := pipeline.DefaultChunker(500, 0.7)
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	p := pipeline.NewPipeline(chunker, embedder)

	extractor, err := pipeline.DefaultEntityExtractor()
	if err != nil {
		return helper.NewError("create default entity extractor", err)
	}
	p.SetEntityExtractor(extractor)
	p.SetRelationExtractor(pipeline.DefaultRelationExtractor())
	p.SetSummarizer(pipeline.DefaultSummarizer())

	m.Pipeline = p
	return nil
}

// Add stages raw text as a document. The text is stored as-is and becomes
// part of the graph only after Cognify.
func (m *Memory) Add(text string, metadata model.Metadata) (*model.Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %w", ErrIngest, ErrEmptyText)
	}

	doc := model.NewDocumentFromText(text, metadata)
	if err := m.Documents.InsertDocument(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIngest, helper.NewError("insert document", err))
	}

	m.log.Info("Staged document", slog.String("document_id", doc.RID.String()), slog.String("title", doc.Title))

	return doc, nil
}

// AddDocument stages a prepared document, for callers that want control over
// title, source and metadata.
func (m *Memory) AddDocument(doc *model.Document) error {
	if strings.TrimSpace(doc.Content) == "" {
		return fmt.Errorf("%w: %w", ErrIngest, ErrEmptyText)
	}

	if err := m.Documents.InsertDocument(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrIngest, helper.NewError("insert document", err))
	}

	m.log.Info("Staged document", slog.String("document_id", doc.RID.String()), slog.String("title", doc.Title))

	return nil
}

// Cognify incorporates all staged documents into the knowledge graph. Each
// document is processed in its own transaction: it is either fully
// incorporated (chunks, entities, relations, summary) and marked processed,
// or left staged. Returns the number of documents incorporated.
//
// Cognify is serialized within the process; running concurrent builds from
// separate processes against the same store is not supported.
func (m *Memory) Cognify(ctx context.Context) (int, error) {
	if m.Pipeline == nil {
		return 0, fmt.Errorf("%w: %w", ErrBuild, ErrNoPipeline)
	}

	m.buildMu.Lock()
	defer m.buildMu.Unlock()

	docs, err := m.Documents.SelectUnprocessedDocuments()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuild, helper.NewError("select unprocessed documents", err))
	}

	processed := 0
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		if err := m.cognifyDocument(doc); err != nil {
			return processed, fmt.Errorf("%w: %w", ErrBuild, helper.NewError(fmt.Sprintf("cognify document %s", doc.RID), err))
		}
		processed++
	}

	m.log.Info("Cognified documents", slog.Int("processed", processed))

	return processed, nil
}

// cognifyDocument incorporates one document into the graph inside a single
// transaction.
func (m *Memory) cognifyDocument(doc *model.Document) error {
	result, err := m.Pipeline.Process(doc.Content, documentBasePath(doc.RID))
	if err != nil {
		return helper.NewError("process document", err)
	}
	if len(result.Chunks) == 0 {
		return helper.NewError("process document", fmt.Errorf("pipeline produced no chunks"))
	}

	tx, err := m.DB.Instance.Begin()
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	var firstChunk *model.Chunk
	for _, extraction := range result.Chunks {
		chunk := extraction.Chunk
		chunk.DocumentID = doc.ID
		if chunk.Metadata == nil {
			chunk.Metadata = model.Metadata{}
		}

		if err := m.Chunks.InsertChunkTx(tx, chunk); err != nil {
			return helper.NewError(fmt.Sprintf("insert chunk %d", chunk.ChunkIndex), err)
		}
		if firstChunk == nil {
			firstChunk = chunk
		}

		// Upsert entities and remember provisional -> canonical IDs so the
		// extracted relations can be rewritten to the stored entities.
		canonical := make(map[uuid.UUID]uuid.UUID, len(extraction.Entities))
		for _, entity := range extraction.Entities {
			provisional := entity.ID
			if entity.Metadata == nil {
				entity.Metadata = model.Metadata{}
			}

			if err := m.Entities.InsertEntityTx(tx, entity); err != nil {
				return helper.NewError(fmt.Sprintf("insert entity %s", entity.Name), err)
			}
			canonical[provisional] = entity.ID

			mention := &model.Edge{
				SourceChunkRID: &chunk.RID,
				TargetEntityID: &entity.ID,
				EdgeType:       model.EdgeTypeEntityMention,
				Weight:         1.0,
				Metadata:       model.Metadata{},
			}
			if err := m.Edges.InsertEdgeTx(tx, mention); err != nil {
				return helper.NewError("insert entity mention edge", err)
			}
		}

		for _, relation := range extraction.Relations {
			remapEntityEndpoints(relation, canonical)
			if relation.SourceChunkRID == nil && relation.SourceEntityID == nil {
				relation.SourceChunkRID = &chunk.RID
			}
			if relation.Metadata == nil {
				relation.Metadata = model.Metadata{}
			}

			if err := m.Edges.InsertEdgeTx(tx, relation); err != nil {
				return helper.NewError("insert relation edge", err)
			}
		}
	}

	if result.Summary != "" {
		summary := &model.Summary{Content: result.Summary}
		if err := m.Summaries.InsertSummaryTx(tx, summary); err != nil {
			return helper.NewError("insert summary", err)
		}

		hasSummary := &model.Edge{
			SourceChunkRID:  &firstChunk.RID,
			TargetSummaryID: &summary.ID,
			EdgeType:        model.EdgeTypeHasSummary,
			Weight:          1.0,
			Metadata:        model.Metadata{},
		}
		if err := m.Edges.InsertEdgeTx(tx, hasSummary); err != nil {
			return helper.NewError("insert summary edge", err)
		}
	}

	if err := m.Documents.MarkDocumentProcessed(tx, doc); err != nil {
		return helper.NewError("mark document processed", err)
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit transaction", err)
	}

	m.log.Info("Incorporated document",
		slog.String("document_id", doc.RID.String()),
		slog.Int("num_chunks", len(result.Chunks)),
	)

	return nil
}

// Search embeds the query, retrieves the most similar chunks and shapes them
// into answers: a chunk with connected entities becomes a record answer, a
// chunk with an attached summary becomes an object answer, anything else a
// plain text answer.
func (m *Memory) Search(ctx context.Context, query string, config *model.QueryConfig) ([]model.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: %w", ErrQuery, ErrEmptyText)
	}
	if m.Pipeline == nil || m.Pipeline.Embedder == nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, ErrNoPipeline)
	}

	embedding, err := m.Pipeline.Embedder(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, helper.NewError("generate embedding", err))
	}

	if config == nil {
		defaultConfig := model.DefaultQueryConfig()
		config = &defaultConfig
	}

	results, err := m.Engine.VectorRetrieve(ctx, embedding, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, helper.NewError("vector search", err))
	}

	answers := make([]model.Answer, 0, len(results))
	for _, result := range results {
		answer, err := m.shapeAnswer(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrQuery, helper.NewError("shape answer", err))
		}
		answers = append(answers, answer)
	}

	return answers, nil
}

// SearchResults performs the same retrieval as Search but returns the raw
// retrieval results, for callers that need scores and chunk details.
func (m *Memory) SearchResults(ctx context.Context, query string, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: %w", ErrQuery, ErrEmptyText)
	}
	if m.Pipeline == nil || m.Pipeline.Embedder == nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, ErrNoPipeline)
	}

	embedding, err := m.Pipeline.Embedder(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, helper.NewError("generate embedding", err))
	}

	if config == nil {
		defaultConfig := model.DefaultQueryConfig()
		config = &defaultConfig
	}

	results, err := m.Engine.VectorRetrieve(ctx, embedding, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, helper.NewError("vector search", err))
	}

	return results, nil
}

func (m *Memory) shapeAnswer(ctx context.Context, result *model.RetrievalResult) (model.Answer, error) {
	// A summary attached to the hit is the most condensed answer shape.
	// SummaryFor returns nil, nil when the chunk has none; a store failure
	// is surfaced, not downgraded to a plain text answer.
	summary, err := m.Engine.SummaryFor(ctx, result.Chunk.RID)
	if err != nil {
		return model.Answer{}, err
	}
	if summary != nil {
		return model.ObjectAnswer(summary), nil
	}

	if len(result.ConnectedEntities) > 0 {
		searchResult := []string{result.Chunk.Content, "Mentions: " + entityNames(result.ConnectedEntities)}
		return model.RecordAnswer(searchResult), nil
	}

	return model.TextAnswer(result.Chunk.Content), nil
}

// Reset deletes all stored knowledge: documents, chunks, entities, edges and
// summaries. Safe on an already-empty store.
func (m *Memory) Reset() error {
	if err := m.Graph.PruneAll(); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, helper.NewError("reset", err))
	}

	m.log.Info("Reset knowledge base")

	return nil
}

// documentBasePath derives the ltree base path for a document's chunks
func documentBasePath(rid uuid.UUID) string {
	return "doc_" + strings.ReplaceAll(rid.String(), "-", "_")
}

func remapEntityEndpoints(edge *model.Edge, canonical map[uuid.UUID]uuid.UUID) {
	if edge.SourceEntityID != nil {
		if id, ok := canonical[*edge.SourceEntityID]; ok {
			edge.SourceEntityID = &id
		}
	}
	if edge.TargetEntityID != nil {
		if id, ok := canonical[*edge.TargetEntityID]; ok {
			edge.TargetEntityID = &id
		}
	}
}

func entityNames(entities []*model.Entity) string {
	names := make([]string, 0, len(entities))
	for _, entity := range entities {
		names = append(names, entity.Name)
	}
	return strings.Join(names, ", ")
}
