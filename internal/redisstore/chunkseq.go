package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ChunkSequence hands out monotonically increasing audio chunk numbers per
// interview via atomic INCR, so concurrent uploads never collide on a path.
type ChunkSequence struct {
	rdb *redis.Client
}

// NewChunkSequence creates a ChunkSequence backed by the given client.
func NewChunkSequence(rdb *redis.Client) *ChunkSequence {
	return &ChunkSequence{rdb: rdb}
}

// Next returns the next chunk number for the interview, starting at 1.
func (c *ChunkSequence) Next(ctx context.Context, interviewID string) (int64, error) {
	n, err := c.rdb.Incr(ctx, fmt.Sprintf("audio_chunk:%s", interviewID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to advance chunk sequence for %s: %w", interviewID, err)
	}
	return n, nil
}
