package pipeline

import (
	"context"

	"github.com/siherrmann/lexrag/model"
)

// SegmentFunc is a function that splits raw document text into an ordered
// sequence of passages covering the text. No passage is empty.
type SegmentFunc func(text string) ([]string, error)

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// EnrichedPassage is one passage after enrichment. Text carries the
// contextual summary and the original passage, Entities the extracted
// entity mentions.
type EnrichedPassage struct {
	Text     string
	Entities []model.ExtractedEntity
}

// Pipeline combines segmentation, enrichment and embedding functions
type Pipeline struct {
	Segmenter SegmentFunc
	Embedder  EmbedFunc
	Enricher  *Enricher // Optional
}

// NewPipeline creates a new processing pipeline
func NewPipeline(segmenter SegmentFunc, embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Segmenter: segmenter,
		Embedder:  embedder,
	}
}

// SetEnricher sets the passage enricher. Without one, passages pass
// through segmentation unchanged.
func (p *Pipeline) SetEnricher(enricher *Enricher) {
	p.Enricher = enricher
}

// Process splits the text into passages and enriches each of them.
// The result preserves segmentation order and length exactly.
func (p *Pipeline) Process(ctx context.Context, text string) ([]EnrichedPassage, error) {
	passages, err := p.Segmenter(text)
	if err != nil {
		return nil, err
	}

	if p.Enricher == nil {
		enriched := make([]EnrichedPassage, 0, len(passages))
		for _, passage := range passages {
			enriched = append(enriched, EnrichedPassage{Text: passage})
		}
		return enriched, nil
	}

	return p.Enricher.EnrichAll(ctx, passages, DocumentSummary(text))
}
