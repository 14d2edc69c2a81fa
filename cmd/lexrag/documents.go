package main

import (
	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List ingested documents and their status",
	Args:  cobra.NoArgs,
	RunE:  runDocuments,
}

func init() {
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, args []string) error {
	l, err := newLexRAG(false)
	if err != nil {
		return err
	}
	defer l.Close()

	documents, err := l.Documents.SelectAllDocuments(nil, 1000)
	if err != nil {
		return err
	}

	if len(documents) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	for _, document := range documents {
		if document.ErrorText != "" {
			cmd.Printf("%s\t%s\t%s\n", document.Name, document.Status, document.ErrorText)
		} else {
			cmd.Printf("%s\t%s\n", document.Name, document.Status)
		}
	}
	return nil
}
