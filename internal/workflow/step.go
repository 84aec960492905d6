package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// stepCacheTTL bounds the lifetime of memoized step results. It matches the
// ephemeral session window: replay is only meaningful while the interview's
// state is still live.
const stepCacheTTL = 12 * time.Hour

// StepContext executes named steps on behalf of one function invocation.
// A step result is memoized under (invocationID, stepName); when the
// surrounding function is retried, completed steps replay their cached
// result instead of re-executing, giving at-most-once externally visible
// side effects per step.
type StepContext struct {
	rdb          *redis.Client
	logger       *zap.Logger
	invocationID string
}

func newStepContext(rdb *redis.Client, logger *zap.Logger, invocationID string) *StepContext {
	return &StepContext{rdb: rdb, logger: logger, invocationID: invocationID}
}

// InvocationID identifies the invocation this context belongs to. Retries of
// the same invocation share the ID, so its memo cache survives them.
func (s *StepContext) InvocationID() string {
	return s.invocationID
}

func (s *StepContext) cacheKey() string {
	return fmt.Sprintf("workflow:steps:%s", s.invocationID)
}

// Run executes fn under the step name, memoizing its result. On replay the
// cached result is decoded into T and fn is not executed.
func Run[T any](ctx context.Context, s *StepContext, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T

	cached, err := s.rdb.HGet(ctx, s.cacheKey(), name).Result()
	if err == nil {
		if err := json.Unmarshal([]byte(cached), &result); err != nil {
			return result, fmt.Errorf("failed to decode memoized step %q: %w", name, err)
		}
		s.logger.Debug("step replayed from cache",
			zap.String("step", name), zap.String("invocation_id", s.invocationID))
		return result, nil
	}
	if !errors.Is(err, redis.Nil) {
		return result, fmt.Errorf("failed to read step cache for %q: %w", name, err)
	}

	result, err = fn(ctx)
	if err != nil {
		return result, fmt.Errorf("step %q failed: %w", name, err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return result, fmt.Errorf("failed to encode step %q result: %w", name, err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, s.cacheKey(), name, data)
	pipe.Expire(ctx, s.cacheKey(), stepCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		// The step already ran; losing the memo only risks a re-execution
		// on retry, which consumers tolerate. Log and continue.
		s.logger.Warn("failed to memoize step result",
			zap.String("step", name), zap.Error(err))
	}

	return result, nil
}
