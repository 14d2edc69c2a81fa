package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/lexrag/core/pipeline"
	"github.com/siherrmann/lexrag/core/retrieval"
	"github.com/siherrmann/lexrag/database"
	"github.com/siherrmann/lexrag/helper"
	"github.com/siherrmann/lexrag/model"
)

// Loader runs the ingestion path for one document: extraction,
// segmentation, enrichment and the graph and vector writes.
type Loader struct {
	documents database.DocumentsDBHandlerFunctions
	chunks    database.ChunksDBHandlerFunctions
	entities  database.EntitiesDBHandlerFunctions
	index     *retrieval.VectorIndex
	pipeline  *pipeline.Pipeline
	extract   ExtractFunc
	logger    *slog.Logger

	// RemoveSource removes the source file after processing, on success
	// and on failure alike
	RemoveSource bool
}

// NewLoader creates a loader over the given handlers and processing
// pipeline
func NewLoader(
	documents database.DocumentsDBHandlerFunctions,
	chunks database.ChunksDBHandlerFunctions,
	entities database.EntitiesDBHandlerFunctions,
	index *retrieval.VectorIndex,
	processing *pipeline.Pipeline,
	extract ExtractFunc,
	logger *slog.Logger,
) (*Loader, error) {
	if documents == nil || chunks == nil || entities == nil {
		return nil, helper.NewError("handler validation", fmt.Errorf("database handlers must not be nil"))
	}
	if index == nil {
		return nil, helper.NewError("index validation", fmt.Errorf("vector index is nil"))
	}
	if processing == nil {
		return nil, helper.NewError("pipeline validation", fmt.Errorf("pipeline is nil"))
	}
	if extract == nil {
		extract = PDFExtractor()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		documents: documents,
		chunks:    chunks,
		entities:  entities,
		index:     index,
		pipeline:  processing,
		extract:   extract,
		logger:    logger,
	}, nil
}

// ProcessAndLoad ingests one file under the given display name. Any
// failure is recorded on the document record and returned. The source
// file is cleaned up on every exit path when RemoveSource is set.
func (l *Loader) ProcessAndLoad(ctx context.Context, filePath string, displayName string) error {
	defer func() {
		if !l.RemoveSource {
			return
		}
		err := os.Remove(filePath)
		if err != nil && !os.IsNotExist(err) {
			l.logger.Warn("failed to remove source file", slog.String("file", filePath), slog.String("error", err.Error()))
		}
	}()

	document := &model.Document{
		Name:       displayName,
		Status:     model.DocumentStatusPending,
		SourceType: "pdf",
		Metadata:   model.Metadata{"file": filePath},
	}
	err := l.documents.UpsertDocument(document)
	if err != nil {
		return helper.NewError("upsert document", err)
	}

	err = l.ingest(ctx, filePath, displayName)
	if err != nil {
		statusErr := l.documents.UpdateDocumentStatus(displayName, model.DocumentStatusFailed, err.Error())
		if statusErr != nil {
			l.logger.Error("failed to record ingestion error", slog.String("document", displayName), slog.String("error", statusErr.Error()))
		}
		return err
	}

	err = l.documents.UpdateDocumentStatus(displayName, model.DocumentStatusProcessed, "")
	if err != nil {
		return helper.NewError("update document status", err)
	}

	l.logger.Info("document ingested", slog.String("document", displayName))

	return nil
}

func (l *Loader) ingest(ctx context.Context, filePath string, displayName string) error {
	pages, err := l.extract(filePath)
	if err != nil {
		return helper.NewError("extract text", err)
	}

	text, err := joinPages(filePath, pages)
	if err != nil {
		return err
	}

	// Record the page count now that extraction succeeded
	err = l.documents.UpsertDocument(&model.Document{
		Name:       displayName,
		Status:     model.DocumentStatusPending,
		SourceType: "pdf",
		Metadata:   model.Metadata{"file": filePath, "pages": len(pages)},
	})
	if err != nil {
		return helper.NewError("update document metadata", err)
	}

	passages, err := l.pipeline.Process(ctx, text)
	if err != nil {
		return helper.NewError("process text", err)
	}

	ids := make([]string, 0, len(passages))
	texts := make([]string, 0, len(passages))
	metadatas := make([]model.Metadata, 0, len(passages))

	for i, passage := range passages {
		chunkID := model.NewChunkID(displayName, i)
		metadata := model.Metadata{"source": displayName, "chunk_index": i}

		chunk := &model.Chunk{
			ID:           chunkID,
			DocumentName: displayName,
			Content:      passage.Text,
			ChunkIndex:   i,
			Metadata:     metadata,
		}
		err := l.chunks.UpsertChunk(chunk)
		if err != nil {
			return helper.NewError("upsert chunk", err)
		}

		// Entity relations are best effort, a single failure is logged
		// and skipped
		for _, entity := range passage.Entities {
			err := l.entities.UpsertEntityMention(chunkID, entity.Name, model.SanitizeEntityLabel(entity.Type))
			if err != nil {
				l.logger.Warn("failed to link entity",
					slog.String("document", displayName),
					slog.String("entity", entity.Name),
					slog.String("error", err.Error()),
				)
			}
		}

		ids = append(ids, chunkID.String())
		texts = append(texts, passage.Text)
		metadatas = append(metadatas, metadata)
	}

	err = l.index.Add(ids, texts, metadatas)
	if err != nil {
		return helper.NewError("index passages", err)
	}

	return nil
}
