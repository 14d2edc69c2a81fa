package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/lexrag/helper"
	"github.com/siherrmann/lexrag/model"
	loadSql "github.com/siherrmann/lexrag/sql"
)

// EntitiesDBHandlerFunctions defines the interface for Entities database operations.
type EntitiesDBHandlerFunctions interface {
	UpsertEntityMention(chunkID uuid.UUID, entityName string, label model.EntityLabel) error
	SelectEntity(name string) (*model.Entity, error)
	SelectChunksByEntityKeyword(keyword string, limit int) ([]*model.Chunk, error)
	SelectEntitiesForChunk(chunkID uuid.UUID) ([]*model.Entity, error)
	DeleteEntity(name string) error
}

// EntitiesDBHandler handles entity-related database operations
type EntitiesDBHandler struct {
	db *helper.Database
}

// NewEntitiesDBHandler creates a new entities database handler.
// It initializes the database connection and loads entity-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntitiesDBHandler(db *helper.Database, force bool) (*EntitiesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entitiesDbHandler := &EntitiesDBHandler{
		db: db,
	}

	err := loadSql.LoadEntitiesSql(entitiesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entities sql", err)
	}

	err = entitiesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntitiesDBHandler")

	return entitiesDbHandler, nil
}

// CreateTable creates the 'entities' and 'mentions' tables in the database.
// If the tables already exist, it does not create them again.
func (h *EntitiesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entities();`)
	if err != nil {
		log.Panicf("error initializing entities tables: %#v", err)
	}

	h.db.Logger.Info("Checked/created tables entities and mentions")

	return nil
}

// UpsertEntityMention merges an entity node and links it to a chunk.
// An entity keeps the label it was first created with. Mentions with an
// empty entity name are skipped without error.
func (h *EntitiesDBHandler) UpsertEntityMention(chunkID uuid.UUID, entityName string, label model.EntityLabel) error {
	if entityName == "" {
		return nil
	}

	entity := &model.Entity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_entity_mention($1, $2, $3)`,
		chunkID,
		entityName,
		string(model.SanitizeEntityLabel(string(label))),
	)

	err := row.Scan(
		&entity.Name,
		&entity.Label,
		&entity.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectEntity retrieves an entity by name
func (h *EntitiesDBHandler) SelectEntity(name string) (*model.Entity, error) {
	entity := &model.Entity{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity($1)`,
		name,
	)

	err := row.Scan(
		&entity.Name,
		&entity.Label,
		&entity.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// SelectChunksByEntityKeyword retrieves distinct chunks mentioning an entity
// whose name contains the given keyword (case insensitive).
func (h *EntitiesDBHandler) SelectChunksByEntityKeyword(keyword string, limit int) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_entity_keyword($1, $2)`,
		keyword,
		limit,
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

// SelectEntitiesForChunk retrieves all entities mentioned in a chunk
func (h *EntitiesDBHandler) SelectEntitiesForChunk(chunkID uuid.UUID) ([]*model.Entity, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_entities_for_chunk($1)`,
		chunkID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entities []*model.Entity
	for rows.Next() {
		entity := &model.Entity{}
		err := rows.Scan(
			&entity.Name,
			&entity.Label,
			&entity.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entities = append(entities, entity)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entities, nil
}

// DeleteEntity deletes an entity and its mentions by name
func (h *EntitiesDBHandler) DeleteEntity(name string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_entity($1)`,
		name,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
