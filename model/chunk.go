package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Chunk represents an enriched passage of a document (node in the graph).
// Chunks are immutable once written; the id is derived deterministically from
// the owning document name and the chunk index so that re-ingestion merges
// instead of duplicating.
type Chunk struct {
	ID           uuid.UUID `json:"id"`
	DocumentName string    `json:"document_name"`
	Content      string    `json:"content"`
	ChunkIndex   int       `json:"chunk_index"`
	Metadata     Metadata  `json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewChunkID derives the stable chunk id for a document name and chunk index
func NewChunkID(documentName string, index int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s/%d", documentName, index)))
}
