package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 24 * time.Hour

// ResultCache keeps finished pipeline results in Redis so that reprocessing
// the same video with the same segmentation input is a cache hit.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultCache connects to Redis at addr and verifies connectivity.
func NewResultCache(addr string) (*ResultCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &ResultCache{client: client, ttl: cacheTTL}, nil
}

// CacheKey derives a stable key from the inputs that determine the output.
// Timestamp text is whitespace-normalized so incidental spacing does not
// defeat the cache.
func CacheKey(videoPath, subject, timestamps string) string {
	normalized := strings.Join(strings.Fields(timestamps), "")
	combined := videoPath + "|" + strings.ToLower(strings.TrimSpace(subject)) + "|" + normalized
	h := sha256.Sum256([]byte(combined))
	return "narration:" + hex.EncodeToString(h[:])
}

// Get loads a cached result into out. Returns false on a miss.
func (c *ResultCache) Get(ctx context.Context, key string, out any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return true, nil
}

// Set stores v under key with the cache TTL.
func (c *ResultCache) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Close closes the underlying Redis client.
func (c *ResultCache) Close() error {
	return c.client.Close()
}
