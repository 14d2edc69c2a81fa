package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/lexrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunksNewChunksDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewChunksDBHandler", func(t *testing.T) {
		chunksDbHandler, err := NewChunksDBHandler(database, true)
		assert.NoError(t, err, "Expected NewChunksDBHandler to not return an error")
		require.NotNil(t, chunksDbHandler, "Expected NewChunksDBHandler to return a non-nil instance")
		require.NotNil(t, chunksDbHandler.db, "Expected NewChunksDBHandler to have a non-nil database instance")
		require.NotNil(t, chunksDbHandler.db.Instance, "Expected NewChunksDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewChunksDBHandler with nil database", func(t *testing.T) {
		_, err := NewChunksDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating ChunksDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestChunksUpsert(t *testing.T) {
	database := initDB(t)

	chunksDbHandler, err := NewChunksDBHandler(database, true)
	require.NoError(t, err)
	documentsDbHandler, err := NewDocumentsDBHandler(database, false)
	require.NoError(t, err)

	t.Run("Upsert chunk without existing document", func(t *testing.T) {
		chunk := &model.Chunk{
			ID:           model.NewChunkID("orphan.pdf", 0),
			DocumentName: "orphan.pdf",
			Content:      "Section 1. The tenant shall pay rent monthly.",
			ChunkIndex:   0,
			Metadata:     map[string]interface{}{"source": "orphan.pdf"},
		}

		err := chunksDbHandler.UpsertChunk(chunk)
		assert.NoError(t, err, "Expected UpsertChunk to merge the document node itself")
		assert.WithinDuration(t, chunk.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")

		// The document node must exist afterwards
		doc, err := documentsDbHandler.SelectDocument("orphan.pdf")
		assert.NoError(t, err, "Expected the owning document to have been merged")
		assert.Equal(t, 1, doc.ChunkCount, "Expected the document to own one chunk")

		// Cleanup
		documentsDbHandler.DeleteDocument("orphan.pdf")
	})

	t.Run("Upsert chunk twice keeps one row", func(t *testing.T) {
		chunk := &model.Chunk{
			ID:           model.NewChunkID("repeat.pdf", 0),
			DocumentName: "repeat.pdf",
			Content:      "Original content.",
			ChunkIndex:   0,
			Metadata:     map[string]interface{}{},
		}
		err := chunksDbHandler.UpsertChunk(chunk)
		require.NoError(t, err)

		chunk.Content = "Replaced content."
		err = chunksDbHandler.UpsertChunk(chunk)
		assert.NoError(t, err, "Expected second UpsertChunk to not return an error")

		chunks, err := chunksDbHandler.SelectChunksByDocument("repeat.pdf")
		require.NoError(t, err)
		assert.Len(t, chunks, 1, "Expected a single chunk row after re-ingestion")
		assert.Equal(t, "Replaced content.", chunks[0].Content, "Expected content to be replaced")

		// Cleanup
		documentsDbHandler.DeleteDocument("repeat.pdf")
	})
}

func TestChunksGet(t *testing.T) {
	database := initDB(t)

	chunksDbHandler, err := NewChunksDBHandler(database, true)
	require.NoError(t, err)
	documentsDbHandler, err := NewDocumentsDBHandler(database, false)
	require.NoError(t, err)

	chunk := &model.Chunk{
		ID:           model.NewChunkID("get_chunk.pdf", 3),
		DocumentName: "get_chunk.pdf",
		Content:      "Clause 3. Liability is limited to the contract value.",
		ChunkIndex:   3,
		Metadata:     map[string]interface{}{"page": 2},
	}
	err = chunksDbHandler.UpsertChunk(chunk)
	require.NoError(t, err)

	retrievedChunk, err := chunksDbHandler.SelectChunk(chunk.ID)
	assert.NoError(t, err, "Expected SelectChunk to not return an error")
	assert.Equal(t, chunk.ID, retrievedChunk.ID, "Expected chunk ids to match")
	assert.Equal(t, chunk.DocumentName, retrievedChunk.DocumentName, "Expected document names to match")
	assert.Equal(t, chunk.Content, retrievedChunk.Content, "Expected contents to match")
	assert.Equal(t, chunk.ChunkIndex, retrievedChunk.ChunkIndex, "Expected chunk indices to match")

	_, err = chunksDbHandler.SelectChunk(uuid.New())
	assert.Error(t, err, "Expected SelectChunk to return an error for an unknown id")

	// Cleanup
	documentsDbHandler.DeleteDocument("get_chunk.pdf")
}

func TestChunksGetByIDs(t *testing.T) {
	database := initDB(t)

	chunksDbHandler, err := NewChunksDBHandler(database, true)
	require.NoError(t, err)
	documentsDbHandler, err := NewDocumentsDBHandler(database, false)
	require.NoError(t, err)

	chunkCount := 4
	ids := make([]uuid.UUID, chunkCount)
	for i := 0; i < chunkCount; i++ {
		chunk := &model.Chunk{
			ID:           model.NewChunkID("by_ids.pdf", i),
			DocumentName: "by_ids.pdf",
			Content:      "Chunk content " + string(rune('a'+i)),
			ChunkIndex:   i,
			Metadata:     map[string]interface{}{},
		}
		err = chunksDbHandler.UpsertChunk(chunk)
		require.NoError(t, err)
		ids[i] = chunk.ID
	}

	// Request in reverse order, expect the requested order back
	reversed := []uuid.UUID{ids[3], ids[1], ids[0]}
	chunks, err := chunksDbHandler.SelectChunksByIDs(reversed)
	assert.NoError(t, err, "Expected SelectChunksByIDs to not return an error")
	require.Len(t, chunks, 3, "Expected one chunk per requested id")
	assert.Equal(t, ids[3], chunks[0].ID, "Expected chunks in requested order")
	assert.Equal(t, ids[1], chunks[1].ID, "Expected chunks in requested order")
	assert.Equal(t, ids[0], chunks[2].ID, "Expected chunks in requested order")

	// Unknown ids are skipped
	chunks, err = chunksDbHandler.SelectChunksByIDs([]uuid.UUID{uuid.New()})
	assert.NoError(t, err)
	assert.Empty(t, chunks, "Expected no chunks for unknown ids")

	// Cleanup
	documentsDbHandler.DeleteDocument("by_ids.pdf")
}

func TestChunksGetByDocument(t *testing.T) {
	database := initDB(t)

	chunksDbHandler, err := NewChunksDBHandler(database, true)
	require.NoError(t, err)
	documentsDbHandler, err := NewDocumentsDBHandler(database, false)
	require.NoError(t, err)

	chunkCount := 3
	for i := chunkCount - 1; i >= 0; i-- {
		chunk := &model.Chunk{
			ID:           model.NewChunkID("by_doc.pdf", i),
			DocumentName: "by_doc.pdf",
			Content:      "Content " + string(rune('a'+i)),
			ChunkIndex:   i,
			Metadata:     map[string]interface{}{},
		}
		err = chunksDbHandler.UpsertChunk(chunk)
		require.NoError(t, err)
	}

	chunks, err := chunksDbHandler.SelectChunksByDocument("by_doc.pdf")
	assert.NoError(t, err, "Expected SelectChunksByDocument to not return an error")
	require.Len(t, chunks, chunkCount, "Expected all chunks of the document")
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex, "Expected chunks ordered by index")
	}

	// Cleanup
	documentsDbHandler.DeleteDocument("by_doc.pdf")
}

func TestChunksDeleteCascade(t *testing.T) {
	database := initDB(t)

	chunksDbHandler, err := NewChunksDBHandler(database, true)
	require.NoError(t, err)
	documentsDbHandler, err := NewDocumentsDBHandler(database, false)
	require.NoError(t, err)

	chunk := &model.Chunk{
		ID:           model.NewChunkID("cascade.pdf", 0),
		DocumentName: "cascade.pdf",
		Content:      "To be removed.",
		ChunkIndex:   0,
		Metadata:     map[string]interface{}{},
	}
	err = chunksDbHandler.UpsertChunk(chunk)
	require.NoError(t, err)

	t.Run("Delete single chunk", func(t *testing.T) {
		err = chunksDbHandler.DeleteChunk(chunk.ID)
		assert.NoError(t, err, "Expected DeleteChunk to not return an error")

		_, err = chunksDbHandler.SelectChunk(chunk.ID)
		assert.Error(t, err, "Expected SelectChunk to return an error for deleted chunk")
	})

	t.Run("Deleting the document removes its chunks", func(t *testing.T) {
		err = chunksDbHandler.UpsertChunk(chunk)
		require.NoError(t, err)

		err = documentsDbHandler.DeleteDocument("cascade.pdf")
		assert.NoError(t, err)

		_, err = chunksDbHandler.SelectChunk(chunk.ID)
		assert.Error(t, err, "Expected chunk to be removed with its document")
	})
}
