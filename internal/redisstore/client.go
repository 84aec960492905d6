// Package redisstore provides the Redis-backed ephemeral state for interview
// sessions: per-job status logs, session metadata, conversation history,
// running score aggregates and upload sequence counters.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MetadataTTL bounds the lifetime of every per-interview ephemeral record.
// An interview session is never live for longer than its 10 minute budget,
// so 12 hours leaves ample room for result polling before expiry.
const MetadataTTL = 12 * time.Hour

// AggregateTTL bounds the running per-turn score counters, which are only
// consumed while the interview is in flight.
const AggregateTTL = 3 * time.Hour

// NewClient creates a Redis client from a connection URL and verifies
// connectivity.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
