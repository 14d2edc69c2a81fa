package retrieval

import (
	"fmt"
	"log/slog"

	"github.com/siherrmann/lexrag/helper"
	"github.com/siherrmann/lexrag/model"
)

// DefaultInitialK is the default candidate pool size per retriever
const DefaultInitialK = 20

// HybridRetriever unions a lexical BM25 retriever with the vector index
// into one deduplicated candidate set. The set carries no blended score,
// ranking is deferred entirely to the reranker.
type HybridRetriever struct {
	index    *VectorIndex
	initialK int
	logger   *slog.Logger
}

// NewHybridRetriever creates a hybrid retriever over the given vector
// index. A non-positive initialK falls back to the default pool size.
func NewHybridRetriever(index *VectorIndex, initialK int, logger *slog.Logger) (*HybridRetriever, error) {
	if index == nil {
		return nil, helper.NewError("vector index validation", fmt.Errorf("vector index is nil"))
	}
	if initialK <= 0 {
		initialK = DefaultInitialK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HybridRetriever{
		index:    index,
		initialK: initialK,
		logger:   logger,
	}, nil
}

// Retrieve returns the deduplicated union of lexical and vector candidates
// for the query. An empty corpus yields an empty candidate set, not an error.
func (h *HybridRetriever) Retrieve(query string) ([]*model.Candidate, error) {
	records, err := h.index.GetAll()
	if err != nil {
		return nil, helper.NewError("load corpus", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	lexicalCandidates := NewLexicalIndex(records).Search(query, h.initialK)

	vectorCandidates, err := h.index.Search(query, h.initialK)
	if err != nil {
		return nil, helper.NewError("vector search", err)
	}

	// Union with exact-text dedup, first occurrence wins
	seen := make(map[string]bool)
	var candidates []*model.Candidate
	for _, candidate := range append(lexicalCandidates, vectorCandidates...) {
		if seen[candidate.Content] {
			continue
		}
		seen[candidate.Content] = true
		candidates = append(candidates, candidate)
	}

	h.logger.Debug("hybrid retrieval finished",
		slog.Int("lexical", len(lexicalCandidates)),
		slog.Int("vector", len(vectorCandidates)),
		slog.Int("union", len(candidates)),
	)

	return candidates, nil
}
