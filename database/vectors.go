package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/lexrag/helper"
	"github.com/siherrmann/lexrag/model"
	loadSql "github.com/siherrmann/lexrag/sql"
)

// VectorsDBHandlerFunctions defines the interface for Vectors database operations.
type VectorsDBHandlerFunctions interface {
	UpsertVector(id string, embedding []float32, content string, metadata model.Metadata) error
	SelectBySimilarity(embedding []float32, limit int) ([]*model.VectorRecord, error)
	SelectAll() ([]*model.VectorRecord, error)
	Count() (int64, error)
	DeleteVector(id string) error
}

// VectorsDBHandler handles vector collection database operations
type VectorsDBHandler struct {
	db *helper.Database
}

// NewVectorsDBHandler creates a new vectors database handler.
// It initializes the database connection, loads vector-related SQL functions
// and creates the vectors table with the given embedding dimension.
// If force is true, it will reload the SQL functions even if they already exist.
func NewVectorsDBHandler(db *helper.Database, embeddingDim int, force bool) (*VectorsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.NewError("embedding dimension validation", fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim))
	}

	vectorsDbHandler := &VectorsDBHandler{
		db: db,
	}

	err := loadSql.LoadVectorsSql(vectorsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load vectors sql", err)
	}

	err = vectorsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized VectorsDBHandler")

	return vectorsDbHandler, nil
}

// CreateTable creates the 'vectors' table with the given embedding dimension.
// If the table already exists, it does not create it again.
func (h *VectorsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_vectors($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing vectors table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table vectors")

	return nil
}

// UpsertVector creates or overwrites a vector entry keyed by id
func (h *VectorsDBHandler) UpsertVector(id string, embedding []float32, content string, metadata model.Metadata) error {
	record := &model.VectorRecord{}
	var vec pgvector.Vector
	var createdAt time.Time
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_vector($1, $2, $3, $4)`,
		id,
		pgvector.NewVector(embedding),
		content,
		metadata,
	)

	err := row.Scan(
		&record.ID,
		&vec,
		&record.Content,
		&record.Metadata,
		&createdAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectBySimilarity retrieves the entries closest to the given embedding
// by cosine similarity, best first.
func (h *VectorsDBHandler) SelectBySimilarity(embedding []float32, limit int) ([]*model.VectorRecord, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_vectors_by_similarity($1, $2)`,
		pgvector.NewVector(embedding),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var records []*model.VectorRecord
	for rows.Next() {
		record := &model.VectorRecord{}
		err := rows.Scan(
			&record.ID,
			&record.Content,
			&record.Metadata,
			&record.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return records, nil
}

// SelectAll retrieves all vector entries in insertion order
func (h *VectorsDBHandler) SelectAll() ([]*model.VectorRecord, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_vectors()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var records []*model.VectorRecord
	for rows.Next() {
		record := &model.VectorRecord{}
		err := rows.Scan(
			&record.ID,
			&record.Content,
			&record.Metadata,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return records, nil
}

// Count returns the number of vector entries
func (h *VectorsDBHandler) Count() (int64, error) {
	var count int64
	row := h.db.Instance.QueryRow(`SELECT count_vectors()`)

	err := row.Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return count, nil
}

// DeleteVector deletes a vector entry by id
func (h *VectorsDBHandler) DeleteVector(id string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_vector($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
