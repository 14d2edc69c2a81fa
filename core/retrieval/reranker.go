package retrieval

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/lexrag/helper"
	"github.com/siherrmann/lexrag/model"
)

// DefaultFinalK is the default number of candidates surviving reranking
const DefaultFinalK = 5

// ScoreFunc scores the relevance of a passage to a query
type ScoreFunc func(query string, passage string) (float64, error)

// GraphContextFunc returns a graph-context text block for a set of
// document names
type GraphContextFunc func(documentNames []string) (string, error)

// Reranker scores candidates against the query with a cross-encoder model,
// sorts them and truncates to the final result size. Without a scoring
// function it degrades to passing the first candidates through unscored.
type Reranker struct {
	Score        ScoreFunc // Optional, nil enables the degraded mode
	GraphContext GraphContextFunc
	FinalK       int
	Logger       *slog.Logger
}

// NewReranker creates a reranker. A non-positive finalK falls back to the
// default result size.
func NewReranker(score ScoreFunc, graphContext GraphContextFunc, finalK int, logger *slog.Logger) *Reranker {
	if finalK <= 0 {
		finalK = DefaultFinalK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reranker{
		Score:        score,
		GraphContext: graphContext,
		FinalK:       finalK,
		Logger:       logger,
	}
}

// Rerank scores, sorts and truncates the candidate set. The surviving
// candidates carry 1-based ranks, and the graph-context block for all
// pre-rerank source documents is attached to the top-ranked candidate only.
func (r *Reranker) Rerank(query string, candidates []*model.Candidate) ([]*model.Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	// Graph context covers the sources of the full pre-rerank set
	graphContext := ""
	if r.GraphContext != nil {
		var sources []string
		seen := make(map[string]bool)
		for _, candidate := range candidates {
			if candidate.Source == "" || seen[candidate.Source] {
				continue
			}
			seen[candidate.Source] = true
			sources = append(sources, candidate.Source)
		}

		var err error
		graphContext, err = r.GraphContext(sources)
		if err != nil {
			r.Logger.Warn("graph context lookup failed", slog.String("error", err.Error()))
			graphContext = ""
		}
	}

	ranked := make([]*model.Candidate, len(candidates))
	copy(ranked, candidates)

	if r.Score != nil {
		for _, candidate := range ranked {
			score, err := r.Score(query, candidate.Content)
			if err != nil {
				r.Logger.Warn("candidate scoring failed, scored as zero", slog.String("error", err.Error()))
				score = 0
			}
			candidate.Score = score
		}

		// Stable sort keeps the original order for equal scores
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Score > ranked[j].Score
		})
	}

	if len(ranked) > r.FinalK {
		ranked = ranked[:r.FinalK]
	}

	for i, candidate := range ranked {
		candidate.Rank = i + 1
		candidate.GraphContext = ""
	}
	if graphContext != "" {
		ranked[0].GraphContext = graphContext
	}

	return ranked, nil
}

// DefaultScorer creates a cross-encoder relevance scorer backed by a
// text classification model
func DefaultScorer() (ScoreFunc, error) {
	// Prepare model (download if needed)
	modelName := "cross-encoder/ms-marco-MiniLM-L-6-v2"
	modelPath, err := helper.PrepareModel(modelName)
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "reranker-pipeline",
	}
	classificationPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create classification pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create classification pipeline: %w", err)
	}

	return func(query string, passage string) (float64, error) {
		result, err := classificationPipeline.RunPipeline([]string{fmt.Sprintf("%s [SEP] %s", query, passage)})
		if err != nil {
			return 0, fmt.Errorf("failed to score candidate: %w", err)
		}

		if len(result.ClassificationOutputs) == 0 || len(result.ClassificationOutputs[0]) == 0 {
			return 0, fmt.Errorf("no classification output")
		}

		return float64(result.ClassificationOutputs[0][0].Score), nil
	}, nil
}
