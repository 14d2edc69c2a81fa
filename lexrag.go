package lexrag

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/lexrag/core/pipeline"
	"github.com/siherrmann/lexrag/core/retrieval"
	"github.com/siherrmann/lexrag/database"
	"github.com/siherrmann/lexrag/helper"
	"github.com/siherrmann/lexrag/ingest"
	"github.com/siherrmann/lexrag/llm"
	"github.com/siherrmann/lexrag/model"
	loadSql "github.com/siherrmann/lexrag/sql"
)

// LexRAG provides a unified interface to ingestion and retrieval over
// all database handlers
type LexRAG struct {
	DB        *helper.Database
	Documents *database.DocumentsDBHandler
	Chunks    *database.ChunksDBHandler
	Entities  *database.EntitiesDBHandler
	Vectors   *database.VectorsDBHandler
	Pipeline  *pipeline.Pipeline // Optional processing pipeline
	Index     *retrieval.VectorIndex
	Retriever *retrieval.HybridRetriever
	Reranker  *retrieval.Reranker
	Loader    *ingest.Loader
	Config    *model.QueryConfig
	// Generation
	generator    llm.Generator
	orchestrator *retrieval.Orchestrator
	scorer       retrieval.ScoreFunc
	extract      ingest.ExtractFunc
	// Logging
	log *slog.Logger
}

// NewLexRAG creates a new LexRAG instance with all handlers initialized
func NewLexRAG(config *helper.DatabaseConfiguration, embeddingDim int) (*LexRAG, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("lexrag", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (documents first, then
	// the tables referencing them)
	// force=false to not reload if functions already exist
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	entities, err := database.NewEntitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	vectors, err := database.NewVectorsDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create vectors handler", err)
	}

	return &LexRAG{
		DB:        db,
		Documents: documents,
		Chunks:    chunks,
		Entities:  entities,
		Vectors:   vectors,
		Config:    model.DefaultQueryConfig(),
		log:       logger,
	}, nil
}

// Close closes the database connection
func (l *LexRAG) Close() error {
	if l.DB != nil && l.DB.Instance != nil {
		return l.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the processing pipeline for document ingestion and
// rewires the retrieval stages around its embedder
func (l *LexRAG) SetPipeline(p *pipeline.Pipeline) error {
	if p == nil || p.Embedder == nil {
		return helper.NewError("set pipeline", fmt.Errorf("pipeline with embedder is required"))
	}
	if l.generator != nil && p.Enricher == nil {
		p.SetEnricher(pipeline.NewEnricher(l.generator, pipeline.DefaultEnrichWorkers, l.log))
	}
	l.Pipeline = p
	return l.wire()
}

// UseDefaultPipeline sets up the default semantic segmentation and
// embedding pipeline.
// This uses DefaultSegmenter with the 95th percentile breakpoint and
// DefaultEmbedder with the all-MiniLM-L6-v2 model (384 dimensions).
func (l *LexRAG) UseDefaultPipeline() error {
	segmenter := pipeline.DefaultSegmenter(pipeline.DefaultBreakpointPercentile)
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}
	return l.SetPipeline(pipeline.NewPipeline(segmenter, embedder))
}

// SetGenerator sets the generative model used for passage enrichment
// during ingestion and for answering questions
func (l *LexRAG) SetGenerator(generator llm.Generator) error {
	if generator == nil {
		return helper.NewError("set generator", fmt.Errorf("generator is nil"))
	}
	l.generator = generator
	if l.Pipeline != nil {
		l.Pipeline.SetEnricher(pipeline.NewEnricher(generator, pipeline.DefaultEnrichWorkers, l.log))
		return l.wire()
	}
	return nil
}

// UseOllama sets up generation against a local Ollama server.
// Empty arguments fall back to the client defaults.
func (l *LexRAG) UseOllama(baseURL string, modelName string) error {
	return l.SetGenerator(llm.NewOllamaClient(baseURL, modelName))
}

// SetScorer sets the relevance scorer used by the reranker
func (l *LexRAG) SetScorer(scorer retrieval.ScoreFunc) error {
	l.scorer = scorer
	if l.Pipeline != nil {
		return l.wire()
	}
	return nil
}

// UseDefaultScorer sets up the default cross encoder scorer
// (ms-marco-MiniLM-L-6-v2)
func (l *LexRAG) UseDefaultScorer() error {
	scorer, err := retrieval.DefaultScorer()
	if err != nil {
		return helper.NewError("create default scorer", err)
	}
	return l.SetScorer(scorer)
}

// SetExtractor sets the file extractor used during ingestion
func (l *LexRAG) SetExtractor(extract ingest.ExtractFunc) error {
	l.extract = extract
	if l.Pipeline != nil {
		return l.wire()
	}
	return nil
}

// wire rebuilds the retrieval stages and the loader from the current
// pipeline, scorer and generator
func (l *LexRAG) wire() error {
	index, err := retrieval.NewVectorIndex(l.Vectors, l.Pipeline.Embedder)
	if err != nil {
		return helper.NewError("create vector index", err)
	}

	retriever, err := retrieval.NewHybridRetriever(index, l.Config.InitialK, l.log)
	if err != nil {
		return helper.NewError("create hybrid retriever", err)
	}

	reranker := retrieval.NewReranker(l.scorer, l.Documents.GraphContext, l.Config.FinalK, l.log)

	loader, err := ingest.NewLoader(l.Documents, l.Chunks, l.Entities, index, l.Pipeline, l.extract, l.log)
	if err != nil {
		return helper.NewError("create loader", err)
	}

	l.Index = index
	l.Retriever = retriever
	l.Reranker = reranker
	l.Loader = loader

	if l.generator != nil {
		orchestrator, err := retrieval.NewOrchestrator(retriever, reranker, l.generator, l.Config, l.log)
		if err != nil {
			return helper.NewError("create orchestrator", err)
		}
		l.orchestrator = orchestrator
	}
	return nil
}

// IngestFile extracts, segments, enriches and indexes a single file.
// The displayName is the name the document is stored and cited under.
func (l *LexRAG) IngestFile(ctx context.Context, filePath string, displayName string) error {
	if l.Loader == nil {
		return helper.NewError("ingest file", fmt.Errorf("pipeline not set, use SetPipeline() or UseDefaultPipeline() first"))
	}
	return l.Loader.ProcessAndLoad(ctx, filePath, displayName)
}

// Ask answers a question over the ingested corpus
func (l *LexRAG) Ask(ctx context.Context, question string) (*model.Answer, error) {
	if l.orchestrator == nil {
		return nil, helper.NewError("ask", fmt.Errorf("generator not set, use SetGenerator() first"))
	}
	return l.orchestrator.Answer(ctx, question)
}

// ChangeIndexType changes the vector index type (hnsw or ivfflat) for
// similarity search
func (l *LexRAG) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return l.Vectors.ChangeIndexType(ctx, indexType, params)
}
