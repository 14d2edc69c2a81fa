package pipeline

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// axisEmbedder embeds sentences onto one of two axes depending on a marker
// word, so semantic breakpoints are fully deterministic in tests
func axisEmbedder(marker string) EmbedFunc {
	return func(text string) ([]float32, error) {
		if strings.Contains(text, marker) {
			return []float32{0, 1}, nil
		}
		return []float32{1, 0}, nil
	}
}

func TestSplitSentences(t *testing.T) {
	t.Run("Split on sentence punctuation", func(t *testing.T) {
		sentences := splitSentences("First sentence. Second sentence! Third sentence? Fourth.")
		assert.Len(t, sentences, 4, "Expected four sentences")
		assert.Equal(t, "First sentence.", sentences[0])
		assert.Equal(t, "Fourth.", sentences[3])
	})

	t.Run("Empty text yields no sentences", func(t *testing.T) {
		sentences := splitSentences("   ")
		assert.Empty(t, sentences, "Expected no sentences for whitespace input")
	})
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	assert.Equal(t, 1.0, percentile(values, 0), "Expected minimum at the 0th percentile")
	assert.Equal(t, 5.0, percentile(values, 100), "Expected maximum at the 100th percentile")
	assert.Equal(t, 3.0, percentile(values, 50), "Expected median at the 50th percentile")
	assert.Equal(t, 0.0, percentile(nil, 95), "Expected zero for no values")
}

func TestFixedSizeSegmenter(t *testing.T) {
	t.Run("Short text stays one passage", func(t *testing.T) {
		segmenter := FixedSizeSegmenter(1200, 200)
		passages, err := segmenter("A short contract clause.")
		require.NoError(t, err)
		require.Len(t, passages, 1)
		assert.Equal(t, "A short contract clause.", passages[0])
	})

	t.Run("Long text is split with overlap", func(t *testing.T) {
		text := strings.Repeat("abcdefghij", 300) // 3000 characters
		segmenter := FixedSizeSegmenter(1200, 200)
		passages, err := segmenter(text)
		require.NoError(t, err)
		assert.Equal(t, 3, len(passages), "Expected three windows for 3000 characters at step 1000")

		for _, passage := range passages {
			assert.NotEmpty(t, passage, "Expected no empty passages")
			assert.LessOrEqual(t, len(passage), 1200, "Expected windows capped at the window size")
		}

		// Consecutive windows share the overlap region
		firstTail := passages[0][len(passages[0])-200:]
		assert.True(t, strings.HasPrefix(passages[1], firstTail), "Expected consecutive windows to overlap")
	})

	t.Run("Invalid configuration", func(t *testing.T) {
		segmenter := FixedSizeSegmenter(100, 100)
		_, err := segmenter("some text")
		assert.Error(t, err, "Expected error for overlap not smaller than window size")
	})

	t.Run("Empty text yields no passages", func(t *testing.T) {
		segmenter := FixedSizeSegmenter(1200, 200)
		passages, err := segmenter("  ")
		require.NoError(t, err)
		assert.Empty(t, passages)
	})
}

func TestSemanticSegmenterShortInput(t *testing.T) {
	segmenter := SemanticSegmenter(axisEmbedder("unused"), DefaultBreakpointPercentile)

	text := "This agreement is made between the parties named below."
	passages, err := segmenter(text)
	require.NoError(t, err)
	require.Len(t, passages, 1, "Expected a single passage for short input")
	assert.Equal(t, text, passages[0], "Expected the passage to equal the input")
}

func TestSemanticSegmenterShortMultibyteInput(t *testing.T) {
	embedder := func(text string) ([]float32, error) {
		return nil, fmt.Errorf("embedder must not be called for short input")
	}
	segmenter := SemanticSegmenter(embedder, DefaultBreakpointPercentile)

	// Under 1000 characters but well over 1000 bytes
	text := strings.TrimSpace(strings.Repeat("§ 12 Mietvertragsänderung über die Bürofläche. ", 20))
	require.Less(t, utf8.RuneCountInString(text), 1000, "Expected the sample to stay under the character threshold")
	require.Greater(t, len(text), 1000, "Expected the sample to exceed the threshold in bytes")

	passages, err := segmenter(text)
	require.NoError(t, err, "Expected short multibyte input to skip embedding")
	require.Len(t, passages, 1, "Expected a single passage for short input")
	assert.Equal(t, text, passages[0], "Expected the passage to equal the input")
}

func TestSemanticSegmenterBreakpoints(t *testing.T) {
	// Two topic blocks of similar sentences with one hard semantic switch
	first := strings.Repeat("The tenant shall pay the monthly rent on time. ", 15)
	second := strings.Repeat("Zebra migration crosses the river every autumn. ", 15)
	text := first + second
	require.Greater(t, len(text), minSemanticLength)

	segmenter := SemanticSegmenter(axisEmbedder("Zebra"), DefaultBreakpointPercentile)
	passages, err := segmenter(text)
	require.NoError(t, err)

	require.Len(t, passages, 2, "Expected a cut at the topic switch")
	assert.Contains(t, passages[0], "tenant", "Expected the first passage to hold the first topic")
	assert.NotContains(t, passages[0], "Zebra", "Expected the first passage to end before the switch")
	assert.Contains(t, passages[1], "Zebra", "Expected the second passage to hold the second topic")

	for _, passage := range passages {
		assert.NotEmpty(t, passage, "Expected no empty passages")
	}
}

func TestSemanticSegmenterOrderPreserved(t *testing.T) {
	var builder strings.Builder
	for i := 0; i < 40; i++ {
		builder.WriteString("Clause number ")
		builder.WriteString(string(rune('a' + i%26)))
		builder.WriteString(" regulates obligations of the parties. ")
	}
	text := builder.String()
	require.Greater(t, len(text), minSemanticLength)

	segmenter := SemanticSegmenter(axisEmbedder("never-present"), DefaultBreakpointPercentile)
	passages, err := segmenter(text)
	require.NoError(t, err)
	require.NotEmpty(t, passages)

	// Concatenated passages must cover the text in source order
	joined := strings.Join(passages, " ")
	assert.Equal(t, strings.TrimSpace(text), joined, "Expected passages to cover the text in order")
}

func TestSemanticSegmenterFallback(t *testing.T) {
	// One long run-on "sentence" defeats semantic splitting entirely
	text := strings.Repeat("word ", 1500) // 7500 characters, no sentence boundaries
	require.Greater(t, len(text), fallbackLength)

	segmenter := SemanticSegmenter(axisEmbedder("unused"), DefaultBreakpointPercentile)
	passages, err := segmenter(text)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(passages), minSemanticPassages, "Expected the fixed-size fallback to produce several passages")
	for _, passage := range passages {
		assert.NotEmpty(t, passage, "Expected no empty passages")
		assert.LessOrEqual(t, len(passage), fallbackWindowSize, "Expected fallback windows capped at the window size")
	}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 0.0001, "Expected similarity of 1 for identical vectors")
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 0.0001, "Expected similarity of 0 for orthogonal vectors")
	assert.Equal(t, float32(0), cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}), "Expected 0 for mismatched dimensions")
	assert.Equal(t, float32(0), cosineSimilarity([]float32{0, 0}, []float32{1, 2}), "Expected 0 for zero vectors")
}
