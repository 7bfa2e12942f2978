package database

import (
	"testing"

	"github.com/siherrmann/cognify/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummariesNewSummariesDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewSummariesDBHandler", func(t *testing.T) {
		summariesDbHandler, err := NewSummariesDBHandler(database, true)
		assert.NoError(t, err, "Expected NewSummariesDBHandler to not return an error")
		require.NotNil(t, summariesDbHandler, "Expected NewSummariesDBHandler to return a non-nil instance")
	})

	t.Run("Invalid call NewSummariesDBHandler with nil database", func(t *testing.T) {
		_, err := NewSummariesDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating SummariesDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestSummariesInsertAndGet(t *testing.T) {
	database := initDB(t)
	handlers := initHandlers(t, database)

	doc := insertTestDocument(t, handlers, "Summary Document")
	chunk := insertTestChunk(t, handlers, doc, 0, "Summarized chunk.", []float32{0.1, 0.2, 0.3})

	summary := &model.Summary{Content: "The chunk in one sentence."}
	err := handlers.summaries.InsertSummary(summary)
	assert.NoError(t, err, "Expected InsertSummary to not return an error")
	assert.NotEmpty(t, summary.ID, "Expected inserted summary to have an ID")

	edge := &model.Edge{
		SourceChunkRID:  &chunk.RID,
		TargetSummaryID: &summary.ID,
		EdgeType:        model.EdgeTypeHasSummary,
		Metadata:        model.Metadata{},
	}
	require.NoError(t, handlers.edges.InsertEdge(edge))

	retrieved, err := handlers.summaries.SelectSummaryForChunk(chunk.RID)
	assert.NoError(t, err, "Expected SelectSummaryForChunk to not return an error")
	assert.Equal(t, summary.ID, retrieved.ID, "Expected summary IDs to match")
	assert.Equal(t, summary.Content, retrieved.String(), "Expected String to return the content")

	// Cleanup
	handlers.documents.DeleteDocument(doc.RID)
}

func TestSummariesSweepOrphans(t *testing.T) {
	database := initDB(t)
	handlers := initHandlers(t, database)

	doc := insertTestDocument(t, handlers, "Sweep Document")
	chunk := insertTestChunk(t, handlers, doc, 0, "Sweep chunk.", []float32{0.1, 0.2, 0.3})

	attached := &model.Summary{Content: "Attached summary."}
	orphan := &model.Summary{Content: "Orphan summary."}
	require.NoError(t, handlers.summaries.InsertSummary(attached))
	require.NoError(t, handlers.summaries.InsertSummary(orphan))

	edge := &model.Edge{
		SourceChunkRID:  &chunk.RID,
		TargetSummaryID: &attached.ID,
		EdgeType:        model.EdgeTypeHasSummary,
		Metadata:        model.Metadata{},
	}
	require.NoError(t, handlers.edges.InsertEdge(edge))

	swept, err := handlers.summaries.SweepOrphanSummaries()
	assert.NoError(t, err, "Expected SweepOrphanSummaries to not return an error")
	assert.GreaterOrEqual(t, swept, 1, "Expected at least the orphan summary to be swept")

	retrieved, err := handlers.summaries.SelectSummaryForChunk(chunk.RID)
	assert.NoError(t, err, "Expected attached summary to survive the sweep")
	assert.Equal(t, attached.ID, retrieved.ID)

	t.Run("Deleting the chunk orphans its summary", func(t *testing.T) {
		require.NoError(t, handlers.chunks.DeleteChunk(chunk.RID))

		swept, err := handlers.summaries.SweepOrphanSummaries()
		assert.NoError(t, err)
		assert.GreaterOrEqual(t, swept, 1, "Expected the now-orphaned summary to be swept")
	})

	// Cleanup
	handlers.documents.DeleteDocument(doc.RID)
}
