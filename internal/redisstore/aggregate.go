package redisstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// TurnScores are the per-turn sub-scores produced alongside a synchronous
// chat question.
type TurnScores struct {
	Communication float64
	Technical     float64
	Clarity       float64
	Suggestion    string
}

// AggregateSnapshot is the accumulated state of all scored turns so far.
type AggregateSnapshot struct {
	TotalCommunication float64
	TotalTechnical     float64
	TotalClarity       float64
	Count              int64
	Suggestions        []string
}

// AggregateStore accumulates running per-interview score counters. Updates
// use atomic hash increments and list appends so concurrent turns never
// lose an update.
type AggregateStore struct {
	rdb *redis.Client
}

// NewAggregateStore creates an AggregateStore backed by the given client.
func NewAggregateStore(rdb *redis.Client) *AggregateStore {
	return &AggregateStore{rdb: rdb}
}

func aggregateKey(interviewID string) string {
	return fmt.Sprintf("interview:%s:aggregate", interviewID)
}

func suggestionsKey(interviewID string) string {
	return fmt.Sprintf("interview:%s:suggestions", interviewID)
}

// Add applies one turn's scores to the running totals in a single pipeline.
func (s *AggregateStore) Add(ctx context.Context, interviewID string, scores TurnScores) error {
	aggKey := aggregateKey(interviewID)
	sugKey := suggestionsKey(interviewID)

	pipe := s.rdb.TxPipeline()
	pipe.HIncrByFloat(ctx, aggKey, "total_comm", scores.Communication)
	pipe.HIncrByFloat(ctx, aggKey, "total_tech", scores.Technical)
	pipe.HIncrByFloat(ctx, aggKey, "total_clarity", scores.Clarity)
	pipe.HIncrBy(ctx, aggKey, "count", 1)
	if scores.Suggestion != "" {
		pipe.RPush(ctx, sugKey, scores.Suggestion)
	}
	pipe.Expire(ctx, aggKey, AggregateTTL)
	pipe.Expire(ctx, sugKey, AggregateTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update aggregate for %s: %w", interviewID, err)
	}
	return nil
}

// Snapshot reads the accumulated totals and suggestions. A missing record
// yields a zero snapshot.
func (s *AggregateStore) Snapshot(ctx context.Context, interviewID string) (*AggregateSnapshot, error) {
	fields, err := s.rdb.HGetAll(ctx, aggregateKey(interviewID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read aggregate for %s: %w", interviewID, err)
	}

	snap := &AggregateSnapshot{}
	if v := fields["total_comm"]; v != "" {
		snap.TotalCommunication, _ = strconv.ParseFloat(v, 64)
	}
	if v := fields["total_tech"]; v != "" {
		snap.TotalTechnical, _ = strconv.ParseFloat(v, 64)
	}
	if v := fields["total_clarity"]; v != "" {
		snap.TotalClarity, _ = strconv.ParseFloat(v, 64)
	}
	if v := fields["count"]; v != "" {
		snap.Count, _ = strconv.ParseInt(v, 10, 64)
	}

	suggestions, err := s.rdb.LRange(ctx, suggestionsKey(interviewID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read suggestions for %s: %w", interviewID, err)
	}
	snap.Suggestions = suggestions

	return snap, nil
}
