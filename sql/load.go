package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed documents.sql
var documentsSQL string

//go:embed chunks.sql
var chunksSQL string

//go:embed entities.sql
var entitiesSQL string

//go:embed vectors.sql
var vectorsSQL string

// Function lists for verification
var DocumentsFunctions = []string{
	"init_documents",
	"upsert_document",
	"update_document_status",
	"select_document",
	"select_all_documents",
	"select_graph_context",
	"delete_document",
}

var ChunksFunctions = []string{
	"init_chunks",
	"upsert_chunk",
	"select_chunk",
	"select_chunks_by_ids",
	"select_chunks_by_document",
	"delete_chunk",
}

var EntitiesFunctions = []string{
	"init_entities",
	"upsert_entity_mention",
	"select_entity",
	"select_chunks_by_entity_keyword",
	"select_entities_for_chunk",
	"delete_entity",
}

var VectorsFunctions = []string{
	"init_vectors",
	"upsert_vector",
	"select_vectors_by_similarity",
	"select_all_vectors",
	"count_vectors",
	"delete_vector",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadDocumentsSql loads document-related SQL functions
func LoadDocumentsSql(db *sql.DB, force bool) error {
	return loadSql(db, force, documentsSQL, DocumentsFunctions, "documents")
}

// LoadChunksSql loads chunk-related SQL functions
func LoadChunksSql(db *sql.DB, force bool) error {
	return loadSql(db, force, chunksSQL, ChunksFunctions, "chunks")
}

// LoadEntitiesSql loads entity-related SQL functions
func LoadEntitiesSql(db *sql.DB, force bool) error {
	return loadSql(db, force, entitiesSQL, EntitiesFunctions, "entities")
}

// LoadVectorsSql loads vector-collection SQL functions
func LoadVectorsSql(db *sql.DB, force bool) error {
	return loadSql(db, force, vectorsSQL, VectorsFunctions, "vectors")
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadDocumentsSql(db, force); err != nil {
		return err
	}

	if err := LoadChunksSql(db, force); err != nil {
		return err
	}

	if err := LoadEntitiesSql(db, force); err != nil {
		return err
	}

	if err := LoadVectorsSql(db, force); err != nil {
		return err
	}

	return nil
}

func loadSql(db *sql.DB, force bool, script string, functions []string, name string) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
