package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/siherrmann/lexrag/helper"
	"github.com/siherrmann/lexrag/model"
	"github.com/siherrmann/lexrag/sql"
)

// DocumentsDBHandlerFunctions defines the interface for Documents database operations.
type DocumentsDBHandlerFunctions interface {
	UpsertDocument(doc *model.Document) error
	UpdateDocumentStatus(name string, status model.DocumentStatus, errorText string) error
	SelectDocument(name string) (*model.Document, error)
	SelectAllDocuments(lastCreatedAt *time.Time, limit int) ([]*model.Document, error)
	GraphContext(documentNames []string) (string, error)
	DeleteDocument(name string) error
}

// DocumentsDBHandler handles document-related database operations
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It initializes the database connection and loads document-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := sql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *DocumentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables, triggers, and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents();`)
	if err != nil {
		log.Panicf("error initializing documents table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// UpsertDocument creates or updates the document node keyed by name.
// The creation timestamp is only set on first creation.
func (h *DocumentsDBHandler) UpsertDocument(doc *model.Document) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_document($1, $2, $3)`,
		doc.Name,
		doc.SourceType,
		doc.Metadata,
	)

	err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.Status,
		&doc.SourceType,
		&doc.ErrorText,
		&doc.Metadata,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// UpdateDocumentStatus records the ingestion outcome on the document node
func (h *DocumentsDBHandler) UpdateDocumentStatus(name string, status model.DocumentStatus, errorText string) error {
	doc := &model.Document{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_document_status($1, $2, $3)`,
		name,
		status,
		errorText,
	)

	err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.Status,
		&doc.SourceType,
		&doc.ErrorText,
		&doc.Metadata,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectDocument retrieves a document by name including its chunk count
func (h *DocumentsDBHandler) SelectDocument(name string) (*model.Document, error) {
	doc := &model.Document{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_document($1)`,
		name,
	)

	err := row.Scan(
		&doc.ID,
		&doc.Name,
		&doc.Status,
		&doc.SourceType,
		&doc.ErrorText,
		&doc.Metadata,
		&doc.ChunkCount,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return doc, nil
}

// SelectAllDocuments retrieves all documents with pagination
func (h *DocumentsDBHandler) SelectAllDocuments(lastCreatedAt *time.Time, limit int) ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_all_documents($1, $2)`,
		lastCreatedAt,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var documents []*model.Document
	for rows.Next() {
		doc := &model.Document{}
		err := rows.Scan(
			&doc.ID,
			&doc.Name,
			&doc.Status,
			&doc.SourceType,
			&doc.ErrorText,
			&doc.Metadata,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		documents = append(documents, doc)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// GraphContext returns a short textual summary per matching document
// (creation date and chunk count) concatenated into one block.
// Documents that do not exist are skipped; no matches yields an empty string.
func (h *DocumentsDBHandler) GraphContext(documentNames []string) (string, error) {
	if len(documentNames) == 0 {
		return "", nil
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_graph_context($1)`,
		pq.Array(documentNames),
	)
	if err != nil {
		return "", helper.NewError("query", err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var name string
		var createdAt time.Time
		var chunkCount int64
		err := rows.Scan(&name, &createdAt, &chunkCount)
		if err != nil {
			return "", helper.NewError("scan", err)
		}

		lines = append(lines, fmt.Sprintf(
			"Document '%s' was ingested on %s and contains %d chunks.",
			name, createdAt.Format("2006-01-02"), chunkCount,
		))
	}

	err = rows.Err()
	if err != nil {
		return "", helper.NewError("rows error", err)
	}

	return strings.Join(lines, "\n"), nil
}

// DeleteDocument deletes a document by name
func (h *DocumentsDBHandler) DeleteDocument(name string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_document($1)`,
		name,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
