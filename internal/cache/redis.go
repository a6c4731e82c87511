package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zEUsEleven11/Flight-Sight/internal/fares"
)

// Redis is a location cache backed by a Redis server, used instead of
// Memory when a REDIS_URL is configured. Redis owns expiry via key TTLs.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis cache with a 24-hour TTL.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, ttl: defaultTTL}
}

// Connect parses redisURL, creates a client, and verifies connectivity with a ping.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// Get retrieves cached locations for keyword. A missing or expired key is
// reported as a miss, not an error.
func (r *Redis) Get(ctx context.Context, keyword string) ([]fares.Location, bool, error) {
	val, err := r.client.Get(ctx, key(keyword)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get for %q: %w", keyword, err)
	}

	var locations []fares.Location
	if err := json.Unmarshal([]byte(val), &locations); err != nil {
		return nil, false, fmt.Errorf("unmarshaling cached locations for %q: %w", keyword, err)
	}

	return locations, true, nil
}

// Set stores locations for keyword with the configured TTL.
func (r *Redis) Set(ctx context.Context, keyword string, locations []fares.Location) error {
	b, err := json.Marshal(locations)
	if err != nil {
		return fmt.Errorf("marshaling locations for %q: %w", keyword, err)
	}

	if err := r.client.Set(ctx, key(keyword), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for %q: %w", keyword, err)
	}

	return nil
}

// Delete removes the cached entry for keyword.
func (r *Redis) Delete(ctx context.Context, keyword string) error {
	if err := r.client.Del(ctx, key(keyword)).Err(); err != nil {
		return fmt.Errorf("cache delete for %q: %w", keyword, err)
	}
	return nil
}

// Ping verifies the Redis connection is alive.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
