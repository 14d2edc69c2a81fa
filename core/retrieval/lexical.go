package retrieval

import (
	"math"
	"sort"
	"strings"

	"github.com/siherrmann/lexrag/model"
)

// BM25 parameters, k1 in the usual 1.2-2.0 range
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// tokenize lowercases and splits on whitespace
func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

type lexicalDocument struct {
	record    *model.VectorRecord
	termFreq  map[string]int
	docLength int
}

// LexicalIndex is an in-memory BM25 index over the current corpus.
// It is rebuilt per query, the corpus is the source of truth.
type LexicalIndex struct {
	documents []lexicalDocument
	avgDocLen float64
	idf       map[string]float64
}

// NewLexicalIndex builds a BM25 index over the given records
func NewLexicalIndex(records []*model.VectorRecord) *LexicalIndex {
	index := &LexicalIndex{
		idf: make(map[string]float64),
	}

	totalLen := 0
	termDocCount := make(map[string]int)

	for _, record := range records {
		terms := tokenize(record.Content)
		termFreq := make(map[string]int)
		for _, term := range terms {
			termFreq[term]++
		}

		index.documents = append(index.documents, lexicalDocument{
			record:    record,
			termFreq:  termFreq,
			docLength: len(terms),
		})
		totalLen += len(terms)

		for term := range termFreq {
			termDocCount[term]++
		}
	}

	if len(index.documents) > 0 {
		index.avgDocLen = float64(totalLen) / float64(len(index.documents))
	}

	n := float64(len(index.documents))
	for term, df := range termDocCount {
		index.idf[term] = math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1.0)
	}

	return index
}

// Search scores every document against the query with BM25 and returns
// up to k matching candidates, best first. Documents sharing no term with
// the query are omitted.
func (l *LexicalIndex) Search(query string, k int) []*model.Candidate {
	queryTerms := tokenize(query)

	type scored struct {
		document *lexicalDocument
		score    float64
	}
	var results []scored

	for i := range l.documents {
		document := &l.documents[i]
		score := 0.0
		docLen := float64(document.docLength)

		for _, term := range queryTerms {
			tf, ok := document.termFreq[term]
			if !ok {
				continue
			}

			numerator := float64(tf) * (bm25K1 + 1.0)
			denominator := float64(tf) + bm25K1*(1.0-bm25B+bm25B*(docLen/l.avgDocLen))
			score += l.idf[term] * (numerator / denominator)
		}

		if score > 0 {
			results = append(results, scored{document: document, score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	if len(results) > k {
		results = results[:k]
	}

	candidates := make([]*model.Candidate, 0, len(results))
	for _, result := range results {
		candidates = append(candidates, recordToCandidate(result.document.record, result.score))
	}

	return candidates
}
