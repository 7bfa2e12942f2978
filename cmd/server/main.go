package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/siherrmann/cognify"
	"github.com/siherrmann/cognify/helper"
	"github.com/siherrmann/cognify/server"
)

const defaultPort = "8000"
const embeddingDimensions = 384

func main() {
	// Optional .env file, real env vars take precedence
	godotenv.Load()

	config, err := helper.NewDatabaseConfiguration()
	if err != nil {
		log.Fatalf("Failed to load database configuration: %v", err)
	}

	memory, err := cognify.NewMemory(config, embeddingDimensions)
	if err != nil {
		log.Fatalf("Failed to create memory: %v", err)
	}
	defer memory.Close()

	if err := memory.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	srv := server.NewServer(memory, memory.Graph, memory.Logger())

	log.Printf("Listening on :%s", port)
	if err := http.ListenAndServe(":"+port, srv.Handler()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
