package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireModel skips model backed tests in short mode since the first
// run downloads the sentence transformer
func requireModel(t *testing.T) EmbedFunc {
	if testing.Short() {
		t.Skip("Skipping embedder test in short mode (requires model download)")
	}

	embedder, err := DefaultEmbedder()
	require.NoError(t, err, "Expected DefaultEmbedder to not return an error")
	require.NotNil(t, embedder, "Expected a non-nil embedder")
	return embedder
}

func TestDefaultEmbedder(t *testing.T) {
	t.Run("Embed a clause", func(t *testing.T) {
		embedder := requireModel(t)

		embedding, err := embedder("Liability of the tenant is limited to direct damages.")
		require.NoError(t, err, "Expected embedding to not return an error")
		assert.Equal(t, 384, len(embedding), "all-MiniLM-L6-v2 produces 384-dimensional embeddings")

		nonZero := false
		for _, val := range embedding {
			if val != 0 {
				nonZero = true
				break
			}
		}
		assert.True(t, nonZero, "Expected the embedding to contain non-zero values")
	})

	t.Run("Same text embeds deterministically", func(t *testing.T) {
		embedder := requireModel(t)

		first, err := embedder("The lease runs for a period of five years.")
		require.NoError(t, err)
		second, err := embedder("The lease runs for a period of five years.")
		require.NoError(t, err)

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.InDelta(t, first[i], second[i], 0.0001, "Expected identical text to embed identically")
		}
	})

	t.Run("Related clauses are closer than unrelated ones", func(t *testing.T) {
		embedder := requireModel(t)

		lease, err := embedder("The tenant must pay rent monthly in advance.")
		require.NoError(t, err)
		rent, err := embedder("Rent is due at the start of every month.")
		require.NoError(t, err)
		weather, err := embedder("Heavy rain is expected over the weekend.")
		require.NoError(t, err)

		related := cosineSimilarity(lease, rent)
		unrelated := cosineSimilarity(lease, weather)
		assert.Greater(t, related, unrelated,
			"Expected semantically related clauses to have higher similarity")
	})

	t.Run("Long input embeds without error", func(t *testing.T) {
		embedder := requireModel(t)

		longText := strings.Repeat("All notices must be delivered in writing to the registered office. ", 100)
		embedding, err := embedder(longText)

		require.NoError(t, err, "Expected long input to embed without error")
		assert.Equal(t, 384, len(embedding))
	})
}
