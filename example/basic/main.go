package main

import (
	"context"
	"fmt"
	"log"

	"github.com/cbrandt/rescore"
	"github.com/cbrandt/rescore/helper"
	"github.com/cbrandt/rescore/model"
)

func embeddingFor(seed int) []float32 {
	// Stand-in for a real embedder; each seed points a 384-dim unit vector
	// in its own direction
	embedding := make([]float32, 384)
	embedding[seed%384] = 1
	return embedding
}

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

	r, err := rescore.NewRescore(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create rescore: %v", err)
	}
	defer r.Close()

	// Store a few chunks with retrieval metadata. Keywords come from the
	// built-in extractor; the dragon chunk gets an extra condition.
	chunks := []*model.StoredChunk{
		{
			Hash:      "chunk-dragon",
			Content:   "The dragon of the northern pass hoards stolen crowns.",
			Embedding: embeddingFor(0),
		},
		{
			Hash:      "chunk-queen",
			Content:   "The queen's archives were sealed after the succession war.",
			Embedding: embeddingFor(1),
		},
		{
			Hash:      "chunk-harbor",
			Content:   "The harbor city trades in silk, salt and rumors.",
			Embedding: embeddingFor(2),
		},
	}

	fmt.Println("Ingesting chunks...")
	for _, chunk := range chunks {
		chunk.Meta = model.ChunkMeta{
			Hash:     chunk.Hash,
			Keywords: r.ExtractKeywords(chunk.Content),
		}
		if err := r.Chunks.UpsertChunk(chunk); err != nil {
			log.Fatalf("Failed to upsert chunk %s: %v", chunk.Hash, err)
		}
	}
	fmt.Printf("Inserted %d chunks\n", len(chunks))

	// Build the query context and run the full pipeline
	queryText := "what does the dragon hoard?"
	fmt.Printf("\nQuerying: %s\n", queryText)

	qc, err := model.NewQueryContext(queryText)
	if err != nil {
		log.Fatalf("Failed to construct query: %v", err)
	}

	settings := model.DefaultSettings()
	settings.Threshold = 0.2
	settings.TopK = 2

	report, err := r.Query(qc, embeddingFor(0), 10, settings)
	if err != nil {
		log.Fatalf("Failed to query: %v", err)
	}

	// Display the injected survivors
	injected := report.Stages[model.StageInjected]
	fmt.Printf("\nInjected %d of %d candidates:\n", injected.Count(), report.Stages[model.StageInitial].Count())
	for i, c := range injected.Candidates {
		fmt.Printf("\n--- Candidate %d ---\n", i+1)
		fmt.Printf("Hash: %s\n", c.Hash)
		fmt.Printf("Score: %.4f (base %.4f, boost %.2f, decay %.2f)\n",
			c.Score, c.BaseScore, c.KeywordBoost, c.DecayMultiplier)
		fmt.Printf("Content: %s\n", c.Text)
	}

	fmt.Printf("\nInjection block (%d chars, verified=%t):\n%s\n",
		report.Injection.CharCount, report.Injection.Verified, report.Injection.Text)

	// The fate of every candidate, injected or not
	fmt.Println("\nChunk fates:")
	for hash, fate := range report.ChunkFates {
		if fate.FinalFate == model.FateDropped {
			fmt.Printf("  %s: dropped at %s (%s)\n", hash, fate.DroppedAt, fate.FinalReason)
		} else {
			fmt.Printf("  %s: %s\n", hash, fate.FinalFate)
		}
	}

	if cause := report.RootCause(); cause != nil {
		fmt.Printf("\nDiagnosis: %s (%s)\n", cause.Cause, cause.Detail)
	}

	fmt.Println("\nBasic example completed successfully!")
}
