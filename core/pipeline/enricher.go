package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/lexrag/llm"
	"github.com/siherrmann/lexrag/model"
	"golang.org/x/sync/errgroup"
)

const (
	// Passages below this length pass through without enrichment
	minEnrichLength = 40
	// Length of the global document summary handed to every worker
	documentSummaryLength = 1500

	// DefaultEnrichWorkers bounds the enrichment worker pool. Keep it
	// small when the generative model shares one accelerator.
	DefaultEnrichWorkers = 4
)

const enrichPrompt = `You are analyzing a passage from a legal document.

Document summary:
%s

Passage:
%s

Respond with a single JSON object and nothing else:
{"context": "<one short sentence placing the passage within the document>", "entities": [{"name": "<entity name>", "type": "<Person|Organization|Law|FinancialConcept|Location>"}]}`

// enrichResponse is the expected shape of the model response
type enrichResponse struct {
	Context  string                  `json:"context"`
	Entities []model.ExtractedEntity `json:"entities"`
}

// DocumentSummary returns the leading part of the full document text used
// as shared context for enrichment
func DocumentSummary(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= documentSummaryLength {
		return string(runes)
	}
	return string(runes[:documentSummaryLength])
}

// Enricher augments passages with a generated contextual summary and
// extracted entities using a bounded worker pool.
type Enricher struct {
	Generator llm.Generator
	Workers   int
	Logger    *slog.Logger
}

// NewEnricher creates an enricher with the given generator and worker count.
// A non-positive worker count falls back to the default.
func NewEnricher(generator llm.Generator, workers int, logger *slog.Logger) *Enricher {
	if workers <= 0 {
		workers = DefaultEnrichWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		Generator: generator,
		Workers:   workers,
		Logger:    logger,
	}
}

// EnrichAll enriches all passages in parallel and returns the results in
// the original passage order. A failure on one passage never fails the
// batch, the passage falls back to its original text with no entities.
func (e *Enricher) EnrichAll(ctx context.Context, passages []string, documentSummary string) ([]EnrichedPassage, error) {
	results := make([]EnrichedPassage, len(passages))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.Workers)

	for i, passage := range passages {
		group.Go(func() error {
			results[i] = e.enrichOne(groupCtx, passage, documentSummary)
			return nil
		})
	}

	// Workers never return errors, the join point only synchronizes
	err := group.Wait()
	if err != nil {
		return nil, err
	}

	return results, nil
}

// enrichOne enriches a single passage, falling back to the unchanged
// passage on any failure
func (e *Enricher) enrichOne(ctx context.Context, passage string, documentSummary string) EnrichedPassage {
	fallback := EnrichedPassage{Text: passage}

	if len(passage) < minEnrichLength {
		return fallback
	}

	raw, err := e.Generator.Generate(ctx, fmt.Sprintf(enrichPrompt, documentSummary, passage))
	if err != nil {
		e.Logger.Warn("enrichment call failed, passage kept unchanged", slog.String("error", err.Error()))
		return fallback
	}

	parsed, err := parseEnrichResponse(raw)
	if err != nil {
		e.Logger.Warn("enrichment response unparseable, passage kept unchanged", slog.String("error", err.Error()))
		return fallback
	}
	if strings.TrimSpace(parsed.Context) == "" {
		return fallback
	}

	var entities []model.ExtractedEntity
	for _, entity := range parsed.Entities {
		if strings.TrimSpace(entity.Name) == "" {
			continue
		}
		entities = append(entities, entity)
	}

	return EnrichedPassage{
		Text:     fmt.Sprintf("Context: %s\n\nContent: %s", strings.TrimSpace(parsed.Context), passage),
		Entities: entities,
	}
}

// parseEnrichResponse extracts the first JSON object from the raw model
// output and validates it against the expected schema
func parseEnrichResponse(raw string) (*enrichResponse, error) {
	start := strings.Index(raw, "{")
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in response")
	}

	depth := 0
	end := -1
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					end = i
				}
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return nil, fmt.Errorf("unbalanced JSON object in response")
	}

	parsed := &enrichResponse{}
	err := json.Unmarshal([]byte(raw[start:end+1]), parsed)
	if err != nil {
		return nil, err
	}

	return parsed, nil
}
