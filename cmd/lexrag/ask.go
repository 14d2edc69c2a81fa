package main

import (
	"encoding/json"
	"fmt"

	"github.com/siherrmann/lexrag/model"
	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question over the ingested corpus",
	Long: `Runs the question through hybrid retrieval (vector similarity plus
BM25), reranks the candidate passages, fuses them with knowledge graph
context and generates an answer with the configured Ollama model.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	l, err := newLexRAG(true)
	if err != nil {
		return err
	}
	defer l.Close()

	answer, err := l.Ask(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("answer question: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	return outputAnswerText(cmd, answer)
}

func outputAnswerJSON(cmd *cobra.Command, answer *model.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer *model.Answer) error {
	cmd.Println(answer.Answer)
	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, source := range answer.Sources {
			cmd.Printf("  - %s\n", source)
		}
	}
	return nil
}
