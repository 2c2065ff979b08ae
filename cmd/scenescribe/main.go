package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"scenescribe/api"
	"scenescribe/config"
	"scenescribe/generation"
	"scenescribe/kafka"
	"scenescribe/pipeline"
	"scenescribe/prompt"
	"scenescribe/publish"
	"scenescribe/store"
)

const defaultAPIPort = ":8080"

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	// Command-line flags
	directMode := flag.Bool("direct", false, "Generate a timed script from the whole video in one call")
	apiMode := flag.Bool("api", false, "Run the HTTP API server")
	kafkaMode := flag.Bool("kafka", false, "Run in Kafka consumer mode (consume narration requests)")
	videoPath := flag.String("video", "", "Path to the input video (prompted for when omitted)")
	apiPort := flag.String("port", defaultAPIPort, "API server port (e.g., :8080)")
	flag.Parse()

	log.Println("Scenescribe - Starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	gen := generation.NewClient(cfg)
	orch := pipeline.New(cfg, gen)
	direct := pipeline.NewDirectPipeline(gen, gen, config.PollInterval, config.MaxPollAttempts)

	if *kafkaMode {
		log.Println("Running in KAFKA consumer mode")

		kafkaConfig := kafka.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
		}

		log.Printf("Kafka brokers: %v", kafkaConfig.Brokers)
		log.Printf("Topic: %s", kafkaConfig.Topic)
		log.Printf("Consumer group: %s", kafkaConfig.GroupID)

		if err := kafka.StartNarrationConsumer(kafkaConfig, newProcessor(cfg, orch)); err != nil {
			log.Fatalf("Kafka consumer failed: %v", err)
		}
		os.Exit(0)
	}

	if *apiMode {
		log.Println("Running in API mode")

		server := api.NewServer(orch, direct)
		r := api.NewRouter(server)

		log.Printf("API server listening on %s", *apiPort)
		if err := http.ListenAndServe(*apiPort, r); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	if *directMode {
		runDirect(cfg, direct, *videoPath)
		return
	}

	runInteractive(cfg, orch, *videoPath)
}

// runInteractive prompts for the run inputs, executes the scene pipeline, and
// writes the resulting script next to the extracted frames.
func runInteractive(cfg *config.Config, orch *pipeline.Orchestrator, videoPath string) {
	p := prompt.New(os.Stdin, os.Stdout)

	var err error
	if videoPath == "" {
		videoPath, err = prompt.AskRequired(p, "Path to video file:")
		if err != nil {
			log.Fatalf("Failed to read input: %v", err)
		}
	}

	subject, err := p.Ask("Subject of the video (optional):")
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}

	timestamps, err := prompt.AskRequired(p, "Scene change timestamps (comma-separated seconds):")
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}

	proc := newProcessor(cfg, orch)
	jobID := uuid.NewString()

	result, err := proc.run(context.Background(), jobID, pipeline.RunInput{
		VideoPath:  videoPath,
		Subject:    subject,
		Timestamps: timestamps,
	})
	if err != nil {
		log.Fatalf("Pipeline failed: %v", err)
	}

	fmt.Println("\n=== Narration Script ===")
	fmt.Println(result.Script.Script)
	fmt.Printf("\nEstimated words: %d  Pacing: %s\n", result.Script.TotalEstimatedWords, result.Script.Pacing)
}

// runDirect generates a timed script in a single call and writes it alongside
// an SRT rendering.
func runDirect(cfg *config.Config, direct *pipeline.DirectPipeline, videoPath string) {
	p := prompt.New(os.Stdin, os.Stdout)

	var err error
	if videoPath == "" {
		videoPath, err = prompt.AskRequired(p, "Path to video file:")
		if err != nil {
			log.Fatalf("Failed to read input: %v", err)
		}
	}

	result, err := direct.Run(context.Background(), videoPath)
	if err != nil {
		log.Fatalf("Direct script generation failed: %v", err)
	}

	jobID := uuid.NewString()
	if err := writeOutput(cfg.WorkDir, jobID+".json", result); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}

	srt := publish.SRT(result)
	srtPath := filepath.Join(cfg.WorkDir, config.OutputDir, jobID+".srt")
	if err := os.WriteFile(srtPath, []byte(srt), 0644); err != nil {
		log.Fatalf("Failed to write captions: %v", err)
	}

	log.Printf("Wrote timed script and captions for job %s", jobID)
	for _, seg := range result.Segments {
		fmt.Printf("[%6.2f - %6.2f] %s\n", seg.StartSec, seg.EndSec, seg.Sentence)
	}
}

// processor runs narration requests end to end: resolve the video, check the
// cache, run the pipeline, persist the result.
type processor struct {
	cfg       *config.Config
	orch      *pipeline.Orchestrator
	cache     *store.ResultCache
	artifacts *store.ArtifactStore
}

func newProcessor(cfg *config.Config, orch *pipeline.Orchestrator) *processor {
	return &processor{
		cfg:       cfg,
		orch:      orch,
		cache:     initializeCache(cfg),
		artifacts: initializeArtifacts(cfg),
	}
}

// ProcessRequest implements kafka.NarrationProcessor.
func (p *processor) ProcessRequest(ctx context.Context, req kafka.NarrationRequest) error {
	videoPath, err := kafka.ResolveVideo(req, p.cfg.WorkDir)
	if err != nil {
		return fmt.Errorf("failed to resolve video: %w", err)
	}

	_, err = p.run(ctx, req.JobID, pipeline.RunInput{
		VideoPath:  videoPath,
		Subject:    req.Subject,
		Timestamps: req.Timestamps,
		Duration:   req.Duration,
	})
	return err
}

func (p *processor) run(ctx context.Context, jobID string, in pipeline.RunInput) (*pipeline.Result, error) {
	key := store.CacheKey(in.VideoPath, in.Subject, in.Timestamps)

	if p.cache != nil {
		var cached pipeline.Result
		hit, err := p.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("Warning: cache lookup failed: %v", err)
		} else if hit {
			log.Printf("Cache hit for job %s", jobID)
			return &cached, nil
		}
	}

	result, err := p.orch.Run(ctx, in)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Set(ctx, key, result); err != nil {
			log.Printf("Warning: failed to cache result: %v", err)
		}
	}

	if err := writeOutput(p.cfg.WorkDir, jobID+".json", result); err != nil {
		log.Printf("Warning: failed to write local output: %v", err)
	}

	if p.artifacts != nil {
		if _, err := p.artifacts.PutJSON(ctx, jobID, "script", result); err != nil {
			log.Printf("Warning: artifact upload failed: %v", err)
		}
	}

	return result, nil
}

// initializeCache returns a Redis result cache if configured via env.
func initializeCache(cfg *config.Config) *store.ResultCache {
	if cfg.RedisAddr == "" {
		return nil
	}
	cache, err := store.NewResultCache(cfg.RedisAddr)
	if err != nil {
		log.Printf("Warning: failed to init result cache: %v (caching disabled)", err)
		return nil
	}
	return cache
}

// initializeArtifacts returns an S3 artifact store if configured via env.
func initializeArtifacts(cfg *config.Config) *store.ArtifactStore {
	if cfg.S3Bucket == "" {
		return nil
	}
	s3, err := store.NewS3(context.Background(), store.S3Config{
		Region:       cfg.S3Region,
		UsePathStyle: cfg.S3UsePathStyle,
	})
	if err != nil {
		log.Printf("Warning: failed to init S3 client: %v (uploads disabled)", err)
		return nil
	}
	return store.NewArtifactStore(s3, cfg.S3Bucket, cfg.S3Prefix)
}

func writeOutput(workDir, name string, v any) error {
	outDir := filepath.Join(workDir, config.OutputDir)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outDir, name), data, 0644)
}
