package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/lexrag/helper"
)

const (
	// Texts below this length are returned as a single passage
	minSemanticLength = 1000
	// Texts above this length must yield at least minSemanticPassages
	// passages, otherwise the fixed-size fallback is used
	fallbackLength      = 5000
	minSemanticPassages = 3

	fallbackWindowSize = 1200
	fallbackOverlap    = 200

	// DefaultBreakpointPercentile is the dissimilarity percentile above
	// which a passage boundary is cut
	DefaultBreakpointPercentile = 95.0
)

// splitSentences splits text into trimmed, non-empty sentences
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "! ", "!|")
	text = strings.ReplaceAll(text, "? ", "?|")
	text = strings.ReplaceAll(text, ". ", ".|")

	sentences := strings.Split(text, "|")
	var result []string
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

// cosineSimilarity calculates the cosine similarity between two embedding vectors
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// percentile returns the p-th percentile of values using linear interpolation
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// segmentByBreakpoints groups consecutive sentences into passages, cutting
// wherever the dissimilarity between neighboring sentence embeddings exceeds
// the given percentile of all dissimilarities.
func segmentByBreakpoints(sentences []string, embeddings [][]float32, breakpointPercentile float64) []string {
	if len(sentences) < 2 {
		return []string{strings.Join(sentences, " ")}
	}

	distances := make([]float64, 0, len(sentences)-1)
	for i := 0; i < len(sentences)-1; i++ {
		distances = append(distances, 1-float64(cosineSimilarity(embeddings[i], embeddings[i+1])))
	}

	threshold := percentile(distances, breakpointPercentile)

	var passages []string
	var current []string
	for i, sentence := range sentences {
		current = append(current, sentence)
		if i < len(distances) && distances[i] > threshold {
			passages = append(passages, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		passages = append(passages, strings.Join(current, " "))
	}

	return passages
}

// fixedSizeSplit splits text into overlapping windows of about windowSize
// characters with the given overlap between consecutive windows
func fixedSizeSplit(text string, windowSize int, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= windowSize {
		return []string{text}
	}

	step := windowSize - overlap
	var passages []string
	for start := 0; start < len(runes); start += step {
		end := start + windowSize
		if end > len(runes) {
			end = len(runes)
		}

		passage := strings.TrimSpace(string(runes[start:end]))
		if passage != "" {
			passages = append(passages, passage)
		}

		if end == len(runes) {
			break
		}
	}

	return passages
}

// FixedSizeSegmenter creates a segmenter that splits into overlapping
// fixed-size windows without any model calls
func FixedSizeSegmenter(windowSize int, overlap int) SegmentFunc {
	return func(text string) ([]string, error) {
		if windowSize <= 0 || overlap < 0 || overlap >= windowSize {
			return nil, fmt.Errorf("invalid window size %d with overlap %d", windowSize, overlap)
		}

		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return []string{}, nil
		}

		return fixedSizeSplit(trimmed, windowSize, overlap), nil
	}
}

// SemanticSegmenter creates a segmenter that embeds each sentence with the
// given embedding function and cuts passages at semantic breakpoints.
// Short texts are returned as a single passage and degenerate results on
// long texts fall back to fixed-size splitting.
func SemanticSegmenter(embedder EmbedFunc, breakpointPercentile float64) SegmentFunc {
	return func(text string) ([]string, error) {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return []string{}, nil
		}
		if utf8.RuneCountInString(trimmed) < minSemanticLength {
			return []string{trimmed}, nil
		}

		sentences := splitSentences(trimmed)
		if len(sentences) == 0 {
			return []string{trimmed}, nil
		}

		embeddings := make([][]float32, 0, len(sentences))
		for _, sentence := range sentences {
			embedding, err := embedder(sentence)
			if err != nil {
				return nil, helper.NewError("embed sentence", err)
			}
			embeddings = append(embeddings, embedding)
		}

		passages := segmentByBreakpoints(sentences, embeddings, breakpointPercentile)
		if utf8.RuneCountInString(trimmed) > fallbackLength && len(passages) < minSemanticPassages {
			return fixedSizeSplit(trimmed, fallbackWindowSize, fallbackOverlap), nil
		}

		return passages, nil
	}
}

// DefaultSegmenter creates a semantic segmenter backed by a sentence
// transformer model, embedding all sentences of a document in one batch
func DefaultSegmenter(breakpointPercentile float64) SegmentFunc {
	return func(text string) ([]string, error) {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return []string{}, nil
		}
		if utf8.RuneCountInString(trimmed) < minSemanticLength {
			return []string{trimmed}, nil
		}

		sentences := splitSentences(trimmed)
		if len(sentences) == 0 {
			return []string{trimmed}, nil
		}

		// Prepare model (download if needed)
		modelName := "sentence-transformers/all-MiniLM-L6-v2"
		modelPath, err := helper.PrepareModel(modelName)
		if err != nil {
			return nil, err
		}

		// Initialize hugot session with Go backend
		session, err := hugot.NewGoSession()
		if err != nil {
			return nil, fmt.Errorf("failed to create hugot session: %w", err)
		}
		defer session.Destroy()

		config := hugot.FeatureExtractionConfig{
			ModelPath: modelPath,
			Name:      "segmenter-pipeline",
		}
		sentencePipeline, err := hugot.NewPipeline(session, config)
		if err != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
		}

		embeddingResult, err := sentencePipeline.RunPipeline(sentences)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}

		embeddings := embeddingResult.Embeddings
		if len(embeddings) != len(sentences) {
			return nil, fmt.Errorf("embedding count mismatch: got %d embeddings for %d sentences", len(embeddings), len(sentences))
		}

		passages := segmentByBreakpoints(sentences, embeddings, breakpointPercentile)
		if utf8.RuneCountInString(trimmed) > fallbackLength && len(passages) < minSemanticPassages {
			return fixedSizeSplit(trimmed, fallbackWindowSize, fallbackOverlap), nil
		}

		return passages, nil
	}
}
