package config

import (
	"fmt"
	"os"
	"strings"
)

// Config carries everything the pipeline needs at construction time. The core
// never reads the environment itself; entrypoints call Load once and pass the
// validated struct down.
type Config struct {
	// Generation service
	APIKey  string
	BaseURL string
	Model   string

	// Working directory for extracted frames and outputs
	WorkDir string

	// Optional S3 artifact store (uploads skipped when Bucket is empty)
	S3Bucket       string
	S3Region       string
	S3Prefix       string
	S3UsePathStyle bool

	// Optional Redis result cache (disabled when Addr is empty)
	RedisAddr string

	// Kafka consumer mode
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Optional YouTube caption publishing
	ServiceAccountFile string
}

// Load builds a Config from the environment. Callers load .env themselves
// (godotenv) before calling this.
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:             os.Getenv("GENERATION_API_KEY"),
		BaseURL:            getEnvOrDefault("GENERATION_BASE_URL", "https://generativelanguage.googleapis.com"),
		Model:              getEnvOrDefault("GENERATION_MODEL", "gemini-2.0-flash"),
		WorkDir:            getEnvOrDefault("WORK_DIR", "work"),
		S3Bucket:           strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Region:           strings.TrimSpace(os.Getenv("S3_REGION")),
		S3Prefix:           normalizePrefix(os.Getenv("S3_PREFIX")),
		S3UsePathStyle:     strings.EqualFold(strings.TrimSpace(os.Getenv("S3_USE_PATH_STYLE")), "true"),
		RedisAddr:          strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		KafkaBrokers:       splitBrokers(getEnvOrDefault("KAFKA_BOOTSTRAP_SERVERS", "localhost:9093")),
		KafkaTopic:         getEnvOrDefault("KAFKA_TOPIC_NARRATION_REQUESTS", "narration-requests"),
		KafkaGroupID:       getEnvOrDefault("KAFKA_CONSUMER_GROUP_ID", "scenescribe-consumer-group"),
		ServiceAccountFile: os.Getenv("YOUTUBE_SERVICE_ACCOUNT_FILE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields the pipeline cannot run without.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("GENERATION_API_KEY is not set")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("generation base URL is empty")
	}
	if c.Model == "" {
		return fmt.Errorf("generation model is empty")
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitBrokers(s string) []string {
	return strings.Split(s, ",")
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	return strings.Trim(prefix, "/") + "/"
}
