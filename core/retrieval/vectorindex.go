package retrieval

import (
	"fmt"

	"github.com/siherrmann/lexrag/core/pipeline"
	"github.com/siherrmann/lexrag/database"
	"github.com/siherrmann/lexrag/helper"
	"github.com/siherrmann/lexrag/model"
)

// VectorIndex stores passage embeddings and answers nearest-neighbor
// queries. The embedding function and the storage handler are pluggable,
// the index preserves the id to content mapping exactly as written.
type VectorIndex struct {
	vectors  database.VectorsDBHandlerFunctions
	embedder pipeline.EmbedFunc
}

// NewVectorIndex creates a vector index over the given storage handler
// and embedding function
func NewVectorIndex(vectors database.VectorsDBHandlerFunctions, embedder pipeline.EmbedFunc) (*VectorIndex, error) {
	if vectors == nil {
		return nil, helper.NewError("vector handler validation", fmt.Errorf("vectors handler is nil"))
	}
	if embedder == nil {
		return nil, helper.NewError("embedder validation", fmt.Errorf("embedder is nil"))
	}
	return &VectorIndex{
		vectors:  vectors,
		embedder: embedder,
	}, nil
}

// Add embeds each text and stores it under its id. Writing the same id
// again overwrites the prior entry.
func (v *VectorIndex) Add(ids []string, texts []string, metadatas []model.Metadata) error {
	if len(ids) != len(texts) || (metadatas != nil && len(metadatas) != len(texts)) {
		return helper.NewError("input validation", fmt.Errorf("ids, texts and metadatas must have equal length"))
	}

	for i, text := range texts {
		embedding, err := v.embedder(text)
		if err != nil {
			return helper.NewError("embed text", err)
		}

		var metadata model.Metadata
		if metadatas != nil {
			metadata = metadatas[i]
		}

		err = v.vectors.UpsertVector(ids[i], embedding, text, metadata)
		if err != nil {
			return helper.NewError("upsert vector", err)
		}
	}

	return nil
}

// Search returns up to k nearest passages to the query by embedding
// distance, best first
func (v *VectorIndex) Search(query string, k int) ([]*model.Candidate, error) {
	embedding, err := v.embedder(query)
	if err != nil {
		return nil, helper.NewError("embed query", err)
	}

	records, err := v.vectors.SelectBySimilarity(embedding, k)
	if err != nil {
		return nil, helper.NewError("similarity search", err)
	}

	candidates := make([]*model.Candidate, 0, len(records))
	for _, record := range records {
		candidates = append(candidates, recordToCandidate(record, record.Similarity))
	}

	return candidates, nil
}

// GetAll returns the full stored corpus
func (v *VectorIndex) GetAll() ([]*model.VectorRecord, error) {
	return v.vectors.SelectAll()
}

// Count returns the number of stored passages
func (v *VectorIndex) Count() (int64, error) {
	return v.vectors.Count()
}

func recordToCandidate(record *model.VectorRecord, score float64) *model.Candidate {
	source := ""
	if record.Metadata != nil {
		if s, ok := record.Metadata["source"].(string); ok {
			source = s
		}
	}
	return &model.Candidate{
		Content:  record.Content,
		Source:   source,
		Score:    score,
		Metadata: record.Metadata,
	}
}
