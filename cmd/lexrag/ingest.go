package main

import (
	"fmt"
	"path/filepath"

	"github.com/siherrmann/lexrag/ingest"
	"github.com/spf13/cobra"
)

var (
	ingestName   string
	ingestPlain  bool
	ingestEnrich bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document into the corpus",
	Long: `Extracts text from a PDF (or plain text file with --text), segments
it into semantically coherent passages, optionally enriches each passage
with document level context, and indexes the result for retrieval.

Ingestion is idempotent: ingesting the same document name again replaces
its passages instead of duplicating them.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "document name to store and cite (default: file base name)")
	ingestCmd.Flags().BoolVar(&ingestPlain, "text", false, "treat the input as plain text instead of PDF")
	ingestCmd.Flags().BoolVar(&ingestEnrich, "enrich", false, "enrich passages with document context via Ollama")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	displayName := ingestName
	if displayName == "" {
		displayName = filepath.Base(filePath)
	}

	l, err := newLexRAG(ingestEnrich)
	if err != nil {
		return err
	}
	defer l.Close()

	if ingestPlain {
		if err := l.SetExtractor(ingest.TextExtractor()); err != nil {
			return err
		}
	}

	if err := l.IngestFile(cmd.Context(), filePath, displayName); err != nil {
		return fmt.Errorf("ingest %s: %w", displayName, err)
	}

	document, err := l.Documents.SelectDocument(displayName)
	if err != nil {
		return err
	}

	cmd.Printf("Ingested %s (%d chunks)\n", document.Name, document.ChunkCount)
	return nil
}
