package database

import (
	"testing"

	"github.com/siherrmann/lexrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorsNewVectorsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewVectorsDBHandler", func(t *testing.T) {
		vectorsDbHandler, err := NewVectorsDBHandler(database, 3, true)
		assert.NoError(t, err, "Expected NewVectorsDBHandler to not return an error")
		require.NotNil(t, vectorsDbHandler, "Expected NewVectorsDBHandler to return a non-nil instance")
		require.NotNil(t, vectorsDbHandler.db, "Expected NewVectorsDBHandler to have a non-nil database instance")
		require.NotNil(t, vectorsDbHandler.db.Instance, "Expected NewVectorsDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewVectorsDBHandler with nil database", func(t *testing.T) {
		_, err := NewVectorsDBHandler(nil, 3, false)
		assert.Error(t, err, "Expected error when creating VectorsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})

	t.Run("Invalid call NewVectorsDBHandler with zero dimension", func(t *testing.T) {
		_, err := NewVectorsDBHandler(database, 0, false)
		assert.Error(t, err, "Expected error when creating VectorsDBHandler with zero embedding dimension")
		assert.Contains(t, err.Error(), "embedding dimension must be positive", "Expected specific error message for invalid dimension")
	})
}

func TestVectorsUpsert(t *testing.T) {
	database := initDB(t)

	vectorsDbHandler, err := NewVectorsDBHandler(database, 3, true)
	require.NoError(t, err)

	t.Run("Upsert vector", func(t *testing.T) {
		err := vectorsDbHandler.UpsertVector("vec-1", []float32{1, 0, 0}, "First passage.", model.Metadata{"source": "a.pdf"})
		assert.NoError(t, err, "Expected UpsertVector to not return an error")

		count, err := vectorsDbHandler.Count()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "Expected one vector entry")

		// Cleanup
		vectorsDbHandler.DeleteVector("vec-1")
	})

	t.Run("Upsert vector twice overwrites", func(t *testing.T) {
		err := vectorsDbHandler.UpsertVector("vec-2", []float32{1, 0, 0}, "Original.", model.Metadata{})
		require.NoError(t, err)
		err = vectorsDbHandler.UpsertVector("vec-2", []float32{0, 1, 0}, "Replaced.", model.Metadata{})
		assert.NoError(t, err, "Expected second UpsertVector to not return an error")

		count, err := vectorsDbHandler.Count()
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "Expected a single entry per id")

		records, err := vectorsDbHandler.SelectAll()
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Replaced.", records[0].Content, "Expected content to be overwritten")

		// Cleanup
		vectorsDbHandler.DeleteVector("vec-2")
	})
}

func TestVectorsSimilarity(t *testing.T) {
	database := initDB(t)

	vectorsDbHandler, err := NewVectorsDBHandler(database, 3, true)
	require.NoError(t, err)

	err = vectorsDbHandler.UpsertVector("sim-x", []float32{1, 0, 0}, "Along x.", model.Metadata{"axis": "x"})
	require.NoError(t, err)
	err = vectorsDbHandler.UpsertVector("sim-y", []float32{0, 1, 0}, "Along y.", model.Metadata{"axis": "y"})
	require.NoError(t, err)
	err = vectorsDbHandler.UpsertVector("sim-xy", []float32{1, 1, 0}, "Diagonal.", model.Metadata{"axis": "xy"})
	require.NoError(t, err)

	t.Run("Closest vector first", func(t *testing.T) {
		records, err := vectorsDbHandler.SelectBySimilarity([]float32{1, 0, 0}, 3)
		assert.NoError(t, err, "Expected SelectBySimilarity to not return an error")
		require.Len(t, records, 3, "Expected all entries back")
		assert.Equal(t, "sim-x", records[0].ID, "Expected the identical vector to rank first")
		assert.InDelta(t, 1.0, records[0].Similarity, 0.001, "Expected cosine similarity of 1 for identical vectors")
		assert.Equal(t, "sim-xy", records[1].ID, "Expected the diagonal vector to rank second")
		assert.Greater(t, records[1].Similarity, records[2].Similarity, "Expected results ordered by similarity")
	})

	t.Run("Limit caps the result", func(t *testing.T) {
		records, err := vectorsDbHandler.SelectBySimilarity([]float32{1, 0, 0}, 1)
		assert.NoError(t, err)
		assert.Len(t, records, 1, "Expected at most limit entries")
	})

	// Cleanup
	vectorsDbHandler.DeleteVector("sim-x")
	vectorsDbHandler.DeleteVector("sim-y")
	vectorsDbHandler.DeleteVector("sim-xy")
}

func TestVectorsDelete(t *testing.T) {
	database := initDB(t)

	vectorsDbHandler, err := NewVectorsDBHandler(database, 3, true)
	require.NoError(t, err)

	err = vectorsDbHandler.UpsertVector("del-1", []float32{0, 0, 1}, "Gone soon.", model.Metadata{})
	require.NoError(t, err)

	err = vectorsDbHandler.DeleteVector("del-1")
	assert.NoError(t, err, "Expected DeleteVector to not return an error")

	count, err := vectorsDbHandler.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "Expected no entries after deletion")
}
