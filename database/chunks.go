package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/lexrag/helper"
	"github.com/siherrmann/lexrag/model"
	loadSql "github.com/siherrmann/lexrag/sql"
)

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	UpsertChunk(chunk *model.Chunk) error
	SelectChunk(id uuid.UUID) (*model.Chunk, error)
	SelectChunksByIDs(ids []uuid.UUID) ([]*model.Chunk, error)
	SelectChunksByDocument(documentName string) ([]*model.Chunk, error)
	DeleteChunk(id uuid.UUID) error
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	chunksDbHandler := &ChunksDBHandler{
		db: db,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
func (h *ChunksDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks();`)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// UpsertChunk creates or updates a chunk keyed by id.
// The owning document node is merged first, so a chunk is never written
// before its document exists.
func (h *ChunksDBHandler) UpsertChunk(chunk *model.Chunk) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_chunk($1, $2, $3, $4, $5)`,
		chunk.ID,
		chunk.DocumentName,
		chunk.Content,
		chunk.ChunkIndex,
		chunk.Metadata,
	)

	err := row.Scan(
		&chunk.ID,
		&chunk.DocumentName,
		&chunk.Content,
		&chunk.ChunkIndex,
		&chunk.Metadata,
		&chunk.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectChunk retrieves a chunk by id
func (h *ChunksDBHandler) SelectChunk(id uuid.UUID) (*model.Chunk, error) {
	chunk := &model.Chunk{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_chunk($1)`,
		id,
	)

	err := row.Scan(
		&chunk.ID,
		&chunk.DocumentName,
		&chunk.Content,
		&chunk.ChunkIndex,
		&chunk.Metadata,
		&chunk.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return chunk, nil
}

// SelectChunksByIDs retrieves chunks for the given ids in the given order
func (h *ChunksDBHandler) SelectChunksByIDs(ids []uuid.UUID) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_ids($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentName,
			&chunk.Content,
			&chunk.ChunkIndex,
			&chunk.Metadata,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// SelectChunksByDocument retrieves all chunks of a document ordered by index
func (h *ChunksDBHandler) SelectChunksByDocument(documentName string) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_document($1)`,
		documentName,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentName,
			&chunk.Content,
			&chunk.ChunkIndex,
			&chunk.Metadata,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// DeleteChunk deletes a chunk by id
func (h *ChunksDBHandler) DeleteChunk(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_chunk($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
