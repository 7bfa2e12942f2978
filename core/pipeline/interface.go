package pipeline

import "github.com/siherrmann/cognify/model"

// ChunkFunc is a function that splits text into chunks with their hierarchical paths
// The path should follow ltree format (e.g., "doc.chunk0")
type ChunkFunc func(text string, basePath string) ([]ChunkWithPath, error)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// EntityExtractFunc extracts entities from text
// Returns a list of entities with their types and metadata
type EntityExtractFunc func(text string) ([]*model.Entity, error)

// RelationExtractFunc extracts relationships from a chunk's text and entities.
// Returned edges may leave the source chunk endpoint unset; the caller fills it
// in once the chunk is stored.
type RelationExtractFunc func(text string, chunkPath string, entities []*model.Entity) ([]*model.Edge, error)

// SummarizeFunc condenses text into a short summary
type SummarizeFunc func(text string) (string, error)

// ChunkWithPath represents a chunk with its hierarchical path
type ChunkWithPath struct {
	Content    string
	Path       string // ltree path
	ChunkIndex int
	Metadata   map[string]interface{}
}

// ChunkExtraction bundles a processed chunk with the entities and relations
// extracted from its text.
type ChunkExtraction struct {
	Chunk     *model.Chunk
	Entities  []*model.Entity
	Relations []*model.Edge
}

// ProcessingResult contains the processed chunks and the document summary
type ProcessingResult struct {
	Chunks  []*ChunkExtraction
	Summary string
}

// Pipeline combines the processing stages applied to a document during cognify.
// Chunker and Embedder are required, the extraction and summary stages are
// optional.
type Pipeline struct {
	Chunker           ChunkFunc
	Embedder          EmbedFunc
	EntityExtractor   EntityExtractFunc
	RelationExtractor RelationExtractFunc
	Summarizer        SummarizeFunc
}

// NewPipeline creates a new processing pipeline
func NewPipeline(chunker ChunkFunc, embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Chunker:  chunker,
		Embedder: embedder,
	}
}

// SetEntityExtractor sets the entity extraction function
func (p *Pipeline) SetEntityExtractor(extractor EntityExtractFunc) {
	p.EntityExtractor = extractor
}

// SetRelationExtractor sets the relation extraction function
func (p *Pipeline) SetRelationExtractor(extractor RelationExtractFunc) {
	p.RelationExtractor = extractor
}

// SetSummarizer sets the summary function
func (p *Pipeline) SetSummarizer(summarizer SummarizeFunc) {
	p.Summarizer = summarizer
}

// Process runs text through all configured stages. Extraction failures on a
// single chunk are tolerated, the chunk is kept without entities or relations.
func (p *Pipeline) Process(text string, basePath string) (*ProcessingResult, error) {
	chunksWithPath, err := p.Chunker(text, basePath)
	if err != nil {
		return nil, err
	}

	chunks := make([]*ChunkExtraction, 0, len(chunksWithPath))
	for _, cwp := range chunksWithPath {
		embedding, err := p.Embedder(cwp.Content)
		if err != nil {
			return nil, err
		}

		extraction := &ChunkExtraction{
			Chunk: &model.Chunk{
				Content:    cwp.Content,
				Path:       cwp.Path,
				Embedding:  embedding,
				ChunkIndex: cwp.ChunkIndex,
				Metadata:   cwp.Metadata,
			},
		}

		if p.EntityExtractor != nil {
			entities, err := p.EntityExtractor(cwp.Content)
			if err == nil && entities != nil {
				extraction.Entities = entities
			}
		}

		if p.RelationExtractor != nil {
			relations, err := p.RelationExtractor(cwp.Content, cwp.Path, extraction.Entities)
			if err == nil && relations != nil {
				extraction.Relations = relations
			}
		}

		chunks = append(chunks, extraction)
	}

	result := &ProcessingResult{
		Chunks: chunks,
	}

	if p.Summarizer != nil {
		summary, err := p.Summarizer(text)
		if err == nil {
			result.Summary = summary
		}
	}

	return result, nil
}
