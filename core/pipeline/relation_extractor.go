package pipeline

import (
	"regexp"
	"strings"

	"github.com/siherrmann/cognify/model"
)

// coOccurrenceWindow is the maximum character distance between two entity
// mentions that still counts as a co-occurrence.
const coOccurrenceWindow = 100

// Citation formats detected by the default relation extractor
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[(\d+)\]`),                                              // [1], [2]
	regexp.MustCompile(`\(([A-Z][a-z]+(?:\s+et\s+al\.)?)\s+(\d{4})\)`),           // (Smith 2020)
	regexp.MustCompile(`\b(?:Section|Chapter|Figure|Table)\s+(\d+(?:\.\d+)*)\b`), // Section 3, Figure 2.1
	regexp.MustCompile(`doi:\s*(\S+)`),                                           // DOI
	regexp.MustCompile(`https?://\S+`),                                           // URLs
}

// DefaultRelationExtractor creates a relation extractor working on the
// entities found in a chunk. It emits co_occurs_with edges between entity
// pairs mentioned close together and reference edges from the chunk to
// entities named inside citations. Reference edges leave the source chunk
// endpoint unset for the caller to fill in.
func DefaultRelationExtractor() RelationExtractFunc {
	return func(text string, chunkPath string, entities []*model.Entity) ([]*model.Edge, error) {
		var edges []*model.Edge

		// Co-occurrence relationships between entity pairs
		for i := 0; i < len(entities); i++ {
			for j := i + 1; j < len(entities); j++ {
				entity1 := entities[i]
				entity2 := entities[j]

				start1, ok1 := entityStart(entity1)
				start2, ok2 := entityStart(entity2)
				if !ok1 || !ok2 {
					continue
				}

				distance := start2 - start1
				if distance < 0 {
					distance = -distance
				}
				if distance >= coOccurrenceWindow {
					continue
				}

				edges = append(edges, &model.Edge{
					SourceEntityID: &entity1.ID,
					TargetEntityID: &entity2.ID,
					EdgeType:       model.EdgeTypeCoOccurs,
					Weight:         coOccurrenceWeight(distance),
					Bidirectional:  true,
					Metadata: map[string]interface{}{
						"distance":     distance,
						"context":      chunkPath,
						"entity1_name": entity1.Name,
						"entity2_name": entity2.Name,
					},
				})
			}
		}

		// Citation-like references pointing at a named entity
		for _, pattern := range citationPatterns {
			matches := pattern.FindAllString(text, -1)
			for _, match := range matches {
				entity := entityNamedIn(match, entities)
				if entity == nil {
					continue
				}

				edges = append(edges, &model.Edge{
					TargetEntityID: &entity.ID,
					EdgeType:       model.EdgeTypeReference,
					Weight:         0.7,
					Metadata: map[string]interface{}{
						"citation_text":  match,
						"extracted_from": chunkPath,
					},
				})
			}
		}

		return edges, nil
	}
}

func entityStart(entity *model.Entity) (int, bool) {
	switch start := entity.Metadata["start"].(type) {
	case uint:
		return int(start), true
	case int:
		return start, true
	case float64:
		return int(start), true
	default:
		return 0, false
	}
}

func entityNamedIn(citation string, entities []*model.Entity) *model.Entity {
	for _, entity := range entities {
		if entity.Name != "" && strings.Contains(citation, entity.Name) {
			return entity
		}
	}
	return nil
}

// coOccurrenceWeight calculates edge weight based on entity proximity.
// Adjacent entities get weight 1.0, decreasing linearly to 0.0 at distance 200.
func coOccurrenceWeight(distance int) float64 {
	weight := 1.0 - (float64(distance) / 200.0)
	if weight < 0 {
		return 0.0
	}
	return weight
}
