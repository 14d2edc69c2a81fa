package pipeline

import (
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/lexrag/helper"
)

// DefaultEmbedder creates an embedder backed by the all-MiniLM-L6-v2
// sentence transformer (384 dimensions), downloading the model on first use
func DefaultEmbedder() (EmbedFunc, error) {
	modelPath, err := helper.PrepareModel("sentence-transformers/all-MiniLM-L6-v2")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	embeddingPipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create embedding pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create embedding pipeline: %w", err)
	}

	return func(text string) ([]float32, error) {
		result, err := embeddingPipeline.RunPipeline([]string{text})
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}
		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("no embedding generated")
		}
		return result.Embeddings[0], nil
	}, nil
}
