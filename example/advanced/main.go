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

const leaseContent = `This lease agreement is entered into between Acme Properties Ltd.
and the tenant named in the schedule.

Liability of the tenant is limited to direct damages and capped at one year of rent
under Article 12 of this agreement.

The landlord is responsible for structural repairs and for insuring the building
against fire and flood damage.`

const policyContent = `This insurance policy covers the premises at 1 Example Street
against fire, flood and storm damage.

Claims must be filed within thirty days of the insured event. Late claims are
assessed at the discretion of the insurer.

The policy excludes damage caused by gross negligence of the insured party.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration
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

	// Enable passage enrichment and answering via a local Ollama server
	if err := l.UseOllama("", ""); err != nil {
		log.Fatalf("Failed to set up Ollama: %v", err)
	}

	if err := l.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Rerank candidates with the default cross encoder
	if err := l.UseDefaultScorer(); err != nil {
		log.Fatalf("Failed to set up scorer: %v", err)
	}

	if err := l.SetExtractor(ingest.TextExtractor()); err != nil {
		log.Fatalf("Failed to set extractor: %v", err)
	}

	// Ingest two documents
	corpus := map[string]string{
		"lease.pdf":  leaseContent,
		"policy.pdf": policyContent,
	}
	for name, content := range corpus {
		path := filepath.Join(os.TempDir(), name+".txt")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			log.Fatalf("Failed to write sample file: %v", err)
		}

		fmt.Printf("Ingesting %s...\n", name)
		if err := l.IngestFile(context.Background(), path, name); err != nil {
			log.Fatalf("Failed to ingest %s: %v", name, err)
		}
	}

	// Switch the vector index to IVFFlat with custom list count
	fmt.Println("\nSwitching vector index to IVFFlat...")
	err = l.ChangeIndexType(context.Background(), "ivfflat", map[string]interface{}{"lists": 50})
	if err != nil {
		log.Fatalf("Failed to change index type: %v", err)
	}

	// Ask a question spanning both documents
	question := "Who is responsible for fire damage to the building?"
	fmt.Printf("\nQuestion: %s\n", question)

	answer, err := l.Ask(context.Background(), question)
	if err != nil {
		log.Fatalf("Failed to answer question: %v", err)
	}

	fmt.Printf("\nAnswer: %s\n", answer.Answer)
	fmt.Printf("\nContext used:\n%s\n", answer.ContextUsed)
	fmt.Printf("\nSources:\n")
	for _, source := range answer.Sources {
		fmt.Printf("  - %s\n", source)
	}

	fmt.Println("\nAdvanced example completed successfully!")
}
