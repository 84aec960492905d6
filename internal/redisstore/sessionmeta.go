package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotStarted indicates no metadata record exists for an interview:
// it either was never started or its TTL window has passed. This is a
// business-state fault distinct from "interview does not exist".
var ErrSessionNotStarted = errors.New("interview not started or expired")

// SessionMeta is the time-bounded per-interview record shared between the
// synchronous chat path and the asynchronous pipeline steps. It exists iff
// the interview has been started and has not expired past MetadataTTL.
type SessionMeta struct {
	JobTitle        string
	JobDescription  string
	CandidateName   string
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds int
	Status          string
}

// SessionMetaStore reads and writes SessionMeta records as Redis hashes.
type SessionMetaStore struct {
	rdb *redis.Client
}

// NewSessionMetaStore creates a SessionMetaStore backed by the given client.
func NewSessionMetaStore(rdb *redis.Client) *SessionMetaStore {
	return &SessionMetaStore{rdb: rdb}
}

func metaKey(interviewID string) string {
	return fmt.Sprintf("interview:%s:meta", interviewID)
}

// Put writes the whole record and starts its TTL. The record is written once
// when the interview starts; only the status field is mutated afterwards.
func (s *SessionMetaStore) Put(ctx context.Context, interviewID string, meta *SessionMeta) error {
	key := metaKey(interviewID)
	fields := map[string]any{
		"job_title":        meta.JobTitle,
		"job_description":  meta.JobDescription,
		"candidate_name":   meta.CandidateName,
		"start_time":       meta.StartTime.UTC().Format(time.RFC3339),
		"end_time":         meta.EndTime.UTC().Format(time.RFC3339),
		"duration_seconds": meta.DurationSeconds,
		"status":           meta.Status,
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, MetadataTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write session meta for %s: %w", interviewID, err)
	}
	return nil
}

// Get returns the full record, or ErrSessionNotStarted when it is absent.
func (s *SessionMetaStore) Get(ctx context.Context, interviewID string) (*SessionMeta, error) {
	fields, err := s.rdb.HGetAll(ctx, metaKey(interviewID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session meta for %s: %w", interviewID, err)
	}
	if len(fields) == 0 {
		return nil, ErrSessionNotStarted
	}

	meta := &SessionMeta{
		JobTitle:       fields["job_title"],
		JobDescription: fields["job_description"],
		CandidateName:  fields["candidate_name"],
		Status:         fields["status"],
	}

	if meta.StartTime, err = time.Parse(time.RFC3339, fields["start_time"]); err != nil {
		return nil, fmt.Errorf("malformed start_time in session meta for %s: %w", interviewID, err)
	}
	if meta.EndTime, err = time.Parse(time.RFC3339, fields["end_time"]); err != nil {
		return nil, fmt.Errorf("malformed end_time in session meta for %s: %w", interviewID, err)
	}
	if v := fields["duration_seconds"]; v != "" {
		if meta.DurationSeconds, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("malformed duration_seconds in session meta for %s: %w", interviewID, err)
		}
	}

	return meta, nil
}

// SetStatus updates the status field without resetting the record's TTL.
func (s *SessionMetaStore) SetStatus(ctx context.Context, interviewID, status string) error {
	if err := s.rdb.HSet(ctx, metaKey(interviewID), "status", status).Err(); err != nil {
		return fmt.Errorf("failed to update session status for %s: %w", interviewID, err)
	}
	return nil
}
