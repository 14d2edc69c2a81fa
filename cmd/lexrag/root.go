package main

import (
	"github.com/siherrmann/lexrag"
	"github.com/siherrmann/lexrag/helper"
	"github.com/spf13/cobra"
)

var (
	embeddingDim int
	ollamaURL    string
	ollamaModel  string
)

var rootCmd = &cobra.Command{
	Use:   "lexrag",
	Short: "Retrieval augmented question answering over legal documents",
	Long: `lexrag ingests legal documents into a PostgreSQL backed document
graph and vector store, and answers questions over the ingested corpus
using hybrid retrieval, cross encoder reranking and a local language model.

Database access is configured via the environment (DB_HOST, DB_PORT,
DB_DATABASE, DB_USERNAME, DB_PASSWORD), optionally loaded from a .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&embeddingDim, "dim", 384, "embedding dimension of the vector store")
	rootCmd.PersistentFlags().StringVar(&ollamaURL, "ollama-url", "", "base URL of the Ollama server (default http://localhost:11434)")
	rootCmd.PersistentFlags().StringVar(&ollamaModel, "model", "", "Ollama model used for enrichment and answering (default llama3.2)")
}

// newLexRAG builds a fully wired instance from the environment
func newLexRAG(withGenerator bool) (*lexrag.LexRAG, error) {
	config, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, err
	}

	l, err := lexrag.NewLexRAG(config, embeddingDim)
	if err != nil {
		return nil, err
	}

	if withGenerator {
		if err := l.UseOllama(ollamaURL, ollamaModel); err != nil {
			l.Close()
			return nil, err
		}
	}

	if err := l.UseDefaultPipeline(); err != nil {
		l.Close()
		return nil, err
	}

	return l, nil
}
