package pipeline

import (
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/cognify/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntity(name string, entityType string, start int) *model.Entity {
	return &model.Entity{
		ID:   uuid.New(),
		Name: name,
		Type: entityType,
		Metadata: map[string]interface{}{
			"start": start,
			"end":   start + len(name),
		},
	}
}

func TestDefaultRelationExtractor(t *testing.T) {
	extractor := DefaultRelationExtractor()

	t.Run("Close entities co-occur", func(t *testing.T) {
		acme := testEntity("Acme", "ORG", 0)
		jane := testEntity("Jane Smith", "PER", 20)

		edges, err := extractor("Acme was founded by Jane Smith.", "doc.chunk0", []*model.Entity{acme, jane})
		assert.NoError(t, err, "Expected extractor to not return an error")
		require.Len(t, edges, 1, "Expected one co-occurrence edge")
		assert.Equal(t, model.EdgeTypeCoOccurs, edges[0].EdgeType)
		assert.Equal(t, acme.ID, *edges[0].SourceEntityID)
		assert.Equal(t, jane.ID, *edges[0].TargetEntityID)
		assert.True(t, edges[0].Bidirectional, "Expected co-occurrence to be bidirectional")
		assert.InDelta(t, 0.9, edges[0].Weight, 0.001, "Expected weight from distance formula")
	})

	t.Run("Distant entities do not co-occur", func(t *testing.T) {
		first := testEntity("Acme", "ORG", 0)
		second := testEntity("Globex", "ORG", 500)

		edges, err := extractor("text", "doc.chunk0", []*model.Entity{first, second})
		assert.NoError(t, err)
		assert.Empty(t, edges, "Expected no edges beyond the co-occurrence window")
	})

	t.Run("Entities without positions are skipped", func(t *testing.T) {
		entity := &model.Entity{ID: uuid.New(), Name: "Acme", Type: "ORG", Metadata: model.Metadata{}}
		other := testEntity("Globex", "ORG", 10)

		edges, err := extractor("text", "doc.chunk0", []*model.Entity{entity, other})
		assert.NoError(t, err)
		assert.Empty(t, edges, "Expected entities without start positions to be skipped")
	})

	t.Run("Citation naming an entity yields a reference edge", func(t *testing.T) {
		smith := testEntity("Smith", "PER", 40)

		edges, err := extractor("The result was reproduced later (Smith 2020).", "doc.chunk0", []*model.Entity{smith})
		assert.NoError(t, err)
		require.Len(t, edges, 1, "Expected one reference edge")
		assert.Equal(t, model.EdgeTypeReference, edges[0].EdgeType)
		assert.Nil(t, edges[0].SourceChunkRID, "Expected source chunk endpoint left for the caller")
		assert.Equal(t, smith.ID, *edges[0].TargetEntityID)
		assert.Equal(t, "(Smith 2020)", edges[0].Metadata["citation_text"])
	})

	t.Run("Citation without a matching entity is ignored", func(t *testing.T) {
		edges, err := extractor("See [1] for details.", "doc.chunk0", nil)
		assert.NoError(t, err)
		assert.Empty(t, edges, "Expected no reference edge without a named entity")
	})
}

func TestCoOccurrenceWeight(t *testing.T) {
	assert.Equal(t, 1.0, coOccurrenceWeight(0), "Expected adjacent entities to get full weight")
	assert.Equal(t, 0.5, coOccurrenceWeight(100), "Expected half weight at distance 100")
	assert.Equal(t, 0.0, coOccurrenceWeight(300), "Expected weight floor at 0")
}
