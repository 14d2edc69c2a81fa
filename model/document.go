package model

import "time"

// DocumentStatus tracks a document through the ingestion lifecycle
type DocumentStatus string

const (
	DocumentStatusPending   DocumentStatus = "pending"
	DocumentStatusProcessed DocumentStatus = "processed"
	DocumentStatusFailed    DocumentStatus = "failed"
)

// Document represents a source document node.
// Documents are keyed by name; re-ingesting the same name merges into the
// existing node and keeps the original upload timestamp.
type Document struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	Status     DocumentStatus `json:"status"`
	SourceType string         `json:"source_type,omitempty"`
	ErrorText  string         `json:"error_text,omitempty"`
	Metadata   Metadata       `json:"metadata,omitempty"`
	ChunkCount int            `json:"chunk_count,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
