package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tieup:embedding:"

// RedisTier is an optional shared warm tier between the in-process hot
// tier and the persistent store. Multiple verifier instances pointed at
// the same Redis share provider work. All failures degrade to misses.
type RedisTier struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTier connects to Redis and verifies the connection.
func NewRedisTier(redisURL string, ttl time.Duration) (*RedisTier, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisTier{client: client, ttl: ttl}, nil
}

// Get retrieves a cached vector. Errors and corrupted entries read as
// misses; corrupted entries are deleted.
func (r *RedisTier) Get(ctx context.Context, key string) ([]float32, bool) {
	val, err := r.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal([]byte(val), &vector); err != nil {
		r.client.Del(ctx, redisKeyPrefix+key)
		return nil, false
	}
	return vector, true
}

// Set stores a vector with the configured TTL. Failures are ignored.
func (r *RedisTier) Set(ctx context.Context, key string, vector []float32) {
	raw, err := json.Marshal(vector)
	if err != nil {
		return
	}
	r.client.Set(ctx, redisKeyPrefix+key, raw, r.ttl)
}

// Close releases the Redis connection.
func (r *RedisTier) Close() error {
	return r.client.Close()
}
