package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"scenescribe/api"
	"scenescribe/config"
	"scenescribe/generation"
	"scenescribe/pipeline"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	gen := generation.NewClient(cfg)
	orch := pipeline.New(cfg, gen)
	direct := pipeline.NewDirectPipeline(gen, gen, config.PollInterval, config.MaxPollAttempts)

	server := api.NewServer(orch, direct)
	r := api.NewRouter(server)

	log.Printf("Starting API server on %s", addr)
	log.Println("API endpoints available:")
	log.Println("  GET  /health")
	log.Println("  POST /api/narrate")
	log.Println("  POST /api/direct-script")
	log.Println("  GET  /api/jobs/:id")

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
