package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Job log statuses, appended in order as a background job advances.
// completed/error entries are terminal: consumers read only the last entry
// and ignore anything appended after the first terminal one.
const (
	StatusTranscriptionStarted   = "transcription_started"
	StatusTranscriptionCompleted = "transcription_completed"
	StatusEvaluationStarted      = "evaluation_started"
	StatusEvaluationCompleted    = "evaluation_completed"
	StatusPreparingResult        = "preparing_result"
	StatusError                  = "error"
)

// Entry is one status transition in a job's log.
type Entry struct {
	TS                int64           `json:"ts"`
	Status            string          `json:"status"`
	EvaluationPayload json.RawMessage `json:"evaluation_payload"`
	Error             *string         `json:"error"`
}

// Terminal reports whether no further meaningful transitions follow this entry.
func (e *Entry) Terminal() bool {
	return e.Status == StatusEvaluationCompleted || e.Status == StatusError
}

// AnswerKey builds the job log key for one audio answer of an interview.
func AnswerKey(interviewID, audioPath string) string {
	return fmt.Sprintf("answer:%s:%s", interviewID, audioPath)
}

// JobLog is an append-only, per-key status log with expiry. Appends are
// best-effort: a status log write must never fail the step that performs it.
type JobLog struct {
	rdb    *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewJobLog creates a JobLog backed by the given Redis client.
func NewJobLog(rdb *redis.Client, logger *zap.Logger) *JobLog {
	return &JobLog{rdb: rdb, logger: logger, now: time.Now}
}

// Append pushes a timestamped entry to the tail of the log at key and
// refreshes its TTL. Failures are logged and swallowed; retried steps may
// append duplicate entries, which is safe because consumers read the tail.
func (l *JobLog) Append(ctx context.Context, key, status string, payload any, errMsg string) {
	entry := Entry{
		TS:     l.now().Unix(),
		Status: status,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			l.logger.Warn("job log payload not serializable",
				zap.String("key", key), zap.Error(err))
		} else {
			entry.EvaluationPayload = raw
		}
	}
	if errMsg != "" {
		entry.Error = &errMsg
	}

	data, err := json.Marshal(entry)
	if err != nil {
		l.logger.Warn("job log entry not serializable", zap.String("key", key), zap.Error(err))
		return
	}

	pipe := l.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, MetadataTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn("job log append failed", zap.String("key", key), zap.Error(err))
	}
}

// ReadLast returns the most recent entry at key, or nil when the log is
// absent or expired.
func (l *JobLog) ReadLast(ctx context.Context, key string) (*Entry, error) {
	data, err := l.rdb.LIndex(ctx, key, -1).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job log %s: %w", key, err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode job log entry at %s: %w", key, err)
	}
	return &entry, nil
}
