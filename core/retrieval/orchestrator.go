package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/lexrag/helper"
	"github.com/siherrmann/lexrag/llm"
	"github.com/siherrmann/lexrag/model"
)

// QueryState is a stage of one answered question
type QueryState string

const (
	StateReceived     QueryState = "RECEIVED"
	StateRetrieved    QueryState = "RETRIEVED"
	StateReranked     QueryState = "RERANKED"
	StateContextFused QueryState = "CONTEXT_FUSED"
	StateAnswered     QueryState = "ANSWERED"
	StateEmptyResult  QueryState = "EMPTY_RESULT"
)

// NotFoundAnswer is returned when retrieval yields no candidates,
// without invoking the generative model
const NotFoundAnswer = "No relevant documents were found to answer this question."

// Orchestrator drives one question through retrieval, reranking, context
// fusion and generation
type Orchestrator struct {
	retriever *HybridRetriever
	reranker  *Reranker
	generator llm.Generator
	config    *model.QueryConfig
	logger    *slog.Logger
}

// NewOrchestrator creates an orchestrator over the given retrieval stages
// and generative model
func NewOrchestrator(retriever *HybridRetriever, reranker *Reranker, generator llm.Generator, config *model.QueryConfig, logger *slog.Logger) (*Orchestrator, error) {
	if retriever == nil {
		return nil, helper.NewError("retriever validation", fmt.Errorf("retriever is nil"))
	}
	if reranker == nil {
		return nil, helper.NewError("reranker validation", fmt.Errorf("reranker is nil"))
	}
	if generator == nil {
		return nil, helper.NewError("generator validation", fmt.Errorf("generator is nil"))
	}
	if config == nil {
		config = model.DefaultQueryConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		retriever: retriever,
		reranker:  reranker,
		generator: generator,
		config:    config,
		logger:    logger,
	}, nil
}

const answerPrompt = `Answer the question using only the context below. If the context does not contain the answer, say that the information is not found in the documents.

%s

Question: %s

Answer:`

// Answer runs the query state machine for one question. An empty corpus or
// empty candidate set ends in the canned not-found answer, never an error.
func (o *Orchestrator) Answer(ctx context.Context, question string) (*model.Answer, error) {
	state := StateReceived
	o.logger.Debug("question accepted", slog.String("state", string(state)))

	candidates, err := o.retriever.Retrieve(question)
	if err != nil {
		return nil, helper.NewError("retrieve", err)
	}
	if len(candidates) == 0 {
		o.logger.Info("no candidates retrieved", slog.String("state", string(StateEmptyResult)))
		return o.emptyResult(question), nil
	}
	state = StateRetrieved
	o.logger.Debug("candidates retrieved", slog.String("state", string(state)), slog.Int("candidates", len(candidates)))

	ranked, err := o.reranker.Rerank(question, candidates)
	if err != nil {
		return nil, helper.NewError("rerank", err)
	}
	if len(ranked) == 0 {
		o.logger.Info("no candidates survived reranking", slog.String("state", string(StateEmptyResult)))
		return o.emptyResult(question), nil
	}
	state = StateReranked
	o.logger.Debug("candidates reranked", slog.String("state", string(state)), slog.Int("candidates", len(ranked)))

	composedContext, graphContextUsed := o.fuseContext(ranked)
	state = StateContextFused
	o.logger.Debug("context fused", slog.String("state", string(state)), slog.Int("length", len(composedContext)))

	generated, err := o.generator.Generate(ctx, fmt.Sprintf(answerPrompt, composedContext, question))
	if err != nil {
		return nil, helper.NewError("generate answer", err)
	}
	state = StateAnswered
	o.logger.Debug("answer generated", slog.String("state", string(state)))

	var sources []string
	seen := make(map[string]bool)
	for _, candidate := range ranked {
		if candidate.Source == "" || seen[candidate.Source] {
			continue
		}
		seen[candidate.Source] = true
		sources = append(sources, candidate.Source)
	}

	return &model.Answer{
		Question:         question,
		Answer:           strings.TrimSpace(generated),
		Sources:          sources,
		ContextUsed:      truncate(composedContext, o.config.DisplayContextChars),
		GraphContextUsed: graphContextUsed,
	}, nil
}

// emptyResult is the EMPTY_RESULT terminal state
func (o *Orchestrator) emptyResult(question string) *model.Answer {
	return &model.Answer{
		Question: question,
		Answer:   NotFoundAnswer,
		Sources:  []string{},
	}
}

// fuseContext merges the surviving candidates and the single attached
// graph-context block into one composed context string, capped at the
// configured maximum length
func (o *Orchestrator) fuseContext(ranked []*model.Candidate) (string, bool) {
	var sections []string
	graphContextUsed := false

	for _, candidate := range ranked {
		sections = append(sections, fmt.Sprintf("[Source: %s | Score: %.4f]\n%s", candidate.Source, candidate.Score, candidate.Content))
		if candidate.GraphContext != "" {
			graphContextUsed = true
			sections = append(sections, "Knowledge graph context:\n"+candidate.GraphContext)
		}
	}

	return truncate(strings.Join(sections, "\n\n"), o.config.MaxContextChars), graphContextUsed
}

func truncate(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
