package retrieval

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/siherrmann/lexrag/core/pipeline"
	"github.com/siherrmann/lexrag/model"
)

// fakeVectorsHandler is an in-memory stand-in for the vectors database
// handler, preserving insertion order like the real one
type fakeVectorsHandler struct {
	mu      sync.Mutex
	ids     []string
	entries map[string]*fakeVectorEntry
}

type fakeVectorEntry struct {
	embedding []float32
	content   string
	metadata  model.Metadata
}

func newFakeVectorsHandler() *fakeVectorsHandler {
	return &fakeVectorsHandler{entries: make(map[string]*fakeVectorEntry)}
}

func (f *fakeVectorsHandler) UpsertVector(id string, embedding []float32, content string, metadata model.Metadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.entries[id]; !exists {
		f.ids = append(f.ids, id)
	}
	f.entries[id] = &fakeVectorEntry{embedding: embedding, content: content, metadata: metadata}
	return nil
}

func (f *fakeVectorsHandler) SelectBySimilarity(embedding []float32, limit int) ([]*model.VectorRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := make([]*model.VectorRecord, 0, len(f.ids))
	for _, id := range f.ids {
		entry := f.entries[id]
		records = append(records, &model.VectorRecord{
			ID:         id,
			Content:    entry.content,
			Metadata:   entry.metadata,
			Similarity: cosine(embedding, entry.embedding),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Similarity > records[j].Similarity
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (f *fakeVectorsHandler) SelectAll() ([]*model.VectorRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	records := make([]*model.VectorRecord, 0, len(f.ids))
	for _, id := range f.ids {
		entry := f.entries[id]
		records = append(records, &model.VectorRecord{
			ID:       id,
			Content:  entry.content,
			Metadata: entry.metadata,
		})
	}
	return records, nil
}

func (f *fakeVectorsHandler) Count() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.ids)), nil
}

func (f *fakeVectorsHandler) DeleteVector(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.entries[id]; exists {
		delete(f.entries, id)
		for i, existing := range f.ids {
			if existing == id {
				f.ids = append(f.ids[:i], f.ids[i+1:]...)
				break
			}
		}
	}
	return nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// keywordEmbedder maps texts onto axes by keyword presence so nearest
// neighbors are deterministic in tests
func keywordEmbedder(keywords ...string) pipeline.EmbedFunc {
	return func(text string) ([]float32, error) {
		lowered := strings.ToLower(text)
		embedding := make([]float32, len(keywords)+1)
		hit := false
		for i, keyword := range keywords {
			if strings.Contains(lowered, keyword) {
				embedding[i] = 1
				hit = true
			}
		}
		if !hit {
			embedding[len(keywords)] = 1
		}
		return embedding, nil
	}
}
