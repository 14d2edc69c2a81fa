package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/siherrmann/lexrag"
	"github.com/siherrmann/lexrag/helper"
	"github.com/siherrmann/lexrag/ingest"
)

const sampleContract = `This lease agreement is entered into between Acme Properties Ltd.
and the tenant named in the schedule.

The lease runs for a period of five years starting on the first of January 2026.
Rent is payable monthly in advance to the account named by the landlord.

Liability of the tenant is limited to direct damages and capped at one year of rent
under Article 12 of this agreement.

All notices under this agreement must be delivered in writing to the registered
office of the receiving party.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	l, err := lexrag.NewLexRAG(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create lexrag instance: %v", err)
	}
	defer l.Close()

	// Answer questions with a local Ollama server (must be running)
	if err := l.UseOllama("", ""); err != nil {
		log.Fatalf("Failed to set up Ollama: %v", err)
	}

	// Set up the default pipeline (semantic segmentation + embeddings)
	if err := l.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// The sample corpus is plain text, not PDF
	if err := l.SetExtractor(ingest.TextExtractor()); err != nil {
		log.Fatalf("Failed to set extractor: %v", err)
	}

	// Write the sample contract to a file and ingest it
	path := filepath.Join(os.TempDir(), "lease.txt")
	if err := os.WriteFile(path, []byte(sampleContract), 0o644); err != nil {
		log.Fatalf("Failed to write sample file: %v", err)
	}

	fmt.Println("Ingesting document...")
	if err := l.IngestFile(context.Background(), path, "lease.pdf"); err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}

	document, err := l.Documents.SelectDocument("lease.pdf")
	if err != nil {
		log.Fatalf("Failed to select document: %v", err)
	}
	fmt.Printf("Ingested %s with %d chunks\n", document.Name, document.ChunkCount)

	// Ask a question over the ingested corpus
	question := "What is the tenant's liability under the lease?"
	fmt.Printf("\nQuestion: %s\n", question)

	answer, err := l.Ask(context.Background(), question)
	if err != nil {
		log.Fatalf("Failed to answer question: %v", err)
	}

	fmt.Printf("\nAnswer: %s\n", answer.Answer)
	fmt.Printf("\nSources:\n")
	for _, source := range answer.Sources {
		fmt.Printf("  - %s\n", source)
	}

	fmt.Println("\nBasic example completed successfully!")
}
