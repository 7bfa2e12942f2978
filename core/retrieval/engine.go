package retrieval

import (
	"context"

	"github.com/google/uuid"
	"github.com/siherrmann/cognify/database"
	"github.com/siherrmann/cognify/model"
)

// Engine provides retrieval over the knowledge graph: vector similarity
// search enriched with the entities and summaries connected to each hit.
type Engine struct {
	chunks    *database.ChunksDBHandler
	edges     *database.EdgesDBHandler
	entities  *database.EntitiesDBHandler
	summaries *database.SummariesDBHandler
}

// NewEngine creates a new retrieval engine
func NewEngine(
	chunks *database.ChunksDBHandler,
	edges *database.EdgesDBHandler,
	entities *database.EntitiesDBHandler,
	summaries *database.SummariesDBHandler,
) *Engine {
	return &Engine{
		chunks:    chunks,
		edges:     edges,
		entities:  entities,
		summaries: summaries,
	}
}

// VectorRetrieve performs vector similarity search and attaches the entities
// mentioned by each retrieved chunk.
func (e *Engine) VectorRetrieve(ctx context.Context, embedding []float32, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chunks, err := e.chunks.SelectChunksBySimilarity(embedding, config.TopK, config.SimilarityThreshold, config.DocumentRIDs)
	if err != nil {
		return nil, err
	}

	results := make([]*model.RetrievalResult, len(chunks))
	for i, chunk := range chunks {
		result := &model.RetrievalResult{
			Chunk:           chunk,
			Score:           chunk.Similarity,
			SimilarityScore: chunk.Similarity,
			RetrievalMethod: "vector",
		}

		// Connected entities are enrichment, a failed lookup keeps the hit
		entities, err := e.entities.SelectEntitiesMentionedByChunk(chunk.RID)
		if err == nil {
			result.ConnectedEntities = entities
		}

		results[i] = result
	}

	return results, nil
}

// SummaryFor returns the summary attached to a chunk via a has_summary edge,
// or nil when the chunk has none.
func (e *Engine) SummaryFor(ctx context.Context, chunkRID uuid.UUID) (*model.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	edgeType := model.EdgeTypeHasSummary
	edges, err := e.edges.SelectEdgesFromChunk(chunkRID, &edgeType)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return nil, nil
	}

	return e.summaries.SelectSummaryForChunk(chunkRID)
}
