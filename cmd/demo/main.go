package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/cognify"
	"github.com/siherrmann/cognify/helper"
)

// Sample knowledge base about a fictional company
var sampleDocuments = []string{
	`Acme Corporation Company Profile

Acme Corporation was founded in 1987 by Jane Miller in Springfield.
The company started as a small hardware supplier and grew into a
multinational technology conglomerate. Acme Corporation is best known
for its industrial automation platforms.`,

	`Acme Corporation Product Line

The flagship product of Acme Corporation is the AcmeForge automation
suite. AcmeForge controls assembly lines, warehouses and logistics
networks. A lighter edition called AcmeForge Go targets small workshops.`,

	`Acme Corporation Leadership

Jane Miller served as chief executive until 2012, when Tom Chen took
over the role. Tom Chen previously led the robotics division of Acme
Corporation and pushed the company into autonomous logistics.`,

	`Acme Corporation Financials

Acme Corporation reported revenue of 4.2 billion dollars last year,
driven mostly by AcmeForge subscriptions. The company employs around
12000 people across 23 countries.`,
}

var sampleQueries = []string{
	"Who founded Acme Corporation?",
	"What is the flagship product of Acme Corporation?",
	"Who is the current chief executive?",
	"How many people does Acme Corporation employ?",
}

func main() {
	// Start a throwaway PostgreSQL container so the demo is self-contained
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	memory, err := cognify.NewMemory(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create memory: %v", err)
	}
	defer memory.Close()

	// Semantic chunking, embeddings, NER and co-occurrence relations
	if err := memory.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	fmt.Println("Resetting knowledge base...")
	if err := memory.Reset(); err != nil {
		log.Fatalf("Failed to reset: %v", err)
	}

	fmt.Printf("Adding %d documents...\n", len(sampleDocuments))
	for _, text := range sampleDocuments {
		doc, err := memory.Add(text, nil)
		if err != nil {
			log.Fatalf("Failed to add document: %v", err)
		}
		fmt.Printf("  staged %q as %s\n", doc.Title, doc.RID)
	}

	fmt.Println("\nCognifying...")
	processed, err := memory.Cognify(context.Background())
	if err != nil {
		log.Fatalf("Failed to cognify: %v", err)
	}
	fmt.Printf("Incorporated %d documents into the graph\n", processed)

	for _, query := range sampleQueries {
		fmt.Printf("\nQuery: %s\n", query)

		answers, err := memory.Search(context.Background(), query, nil)
		if err != nil {
			log.Fatalf("Failed to search: %v", err)
		}
		if len(answers) == 0 {
			fmt.Println("  no results")
			continue
		}
		for i, answer := range answers {
			fmt.Printf("  %d. %s\n", i+1, answer.Normalize())
		}
	}

	fmt.Println("\nDemo completed successfully!")
}
