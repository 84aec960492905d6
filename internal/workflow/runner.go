// Package workflow implements the event-triggered durable function runner:
// named functions subscribe to events, execute as sequences of memoized
// steps, and are retried wholesale on failure with completed steps replayed
// from the step cache.
package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler is the body of a workflow function. It receives a StepContext for
// memoized step execution. Returning a non-nil error triggers a retry of the
// whole function unless the error is marked Terminal.
type Handler func(ctx context.Context, step *StepContext, evt Event) error

// Function declares a named function, the event it subscribes to and its
// retry budget (number of re-attempts after the first failure).
type Function struct {
	Name    string
	Event   string
	Retries int
	Handler Handler
}

// Sender enqueues events for asynchronous delivery. Pipelines depend on this
// interface rather than the full Runner.
type Sender interface {
	Send(ctx context.Context, evt Event) error
}

// ErrRunnerClosed is returned by Send after the runner has shut down.
var ErrRunnerClosed = errors.New("workflow runner is closed")

// terminalError marks a business-state fault that must not be retried.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// Terminal wraps err so the runner stops retrying: the failure is a business
// outcome, not a transient fault.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{err: err}
}

// IsTerminal reports whether err carries a Terminal marker.
func IsTerminal(err error) bool {
	var te *terminalError
	return errors.As(err, &te)
}

// Runner dispatches events to subscribed functions. Each delivery runs as an
// independent goroutine; delivery is at-least-once, so consumers must be
// idempotent (step memoization plus state-machine guards in the pipelines).
type Runner struct {
	rdb    *redis.Client
	logger *zap.Logger

	mu   sync.RWMutex
	subs map[string][]Function

	queue  chan Event
	group  *errgroup.Group
	cancel context.CancelFunc

	closeOnce sync.Once
	closed    chan struct{}
}

// NewRunner creates a Runner. Step results are memoized in the given Redis
// client; queueSize bounds the in-flight event buffer.
func NewRunner(rdb *redis.Client, logger *zap.Logger, queueSize int) *Runner {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Runner{
		rdb:    rdb,
		logger: logger,
		subs:   make(map[string][]Function),
		queue:  make(chan Event, queueSize),
		closed: make(chan struct{}),
	}
}

// Register subscribes a function to its event. Must be called before Start.
func (r *Runner) Register(fn Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[fn.Event] = append(r.subs[fn.Event], fn)
}

// Start launches the dispatch loop. It returns immediately; invocations run
// until Close is called or ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.group, ctx = errgroup.WithContext(ctx)

	r.group.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-r.closed:
				// Deliver what was already enqueued, then stop.
				for {
					select {
					case evt := <-r.queue:
						r.dispatch(ctx, evt)
					default:
						return nil
					}
				}
			case evt := <-r.queue:
				r.dispatch(ctx, evt)
			}
		}
	})
}

// Send enqueues an event for delivery to every subscribed function. Once
// Close has begun it fails with ErrRunnerClosed; in-flight handlers that
// emit during shutdown see that error rather than losing the process.
// The queue channel itself is never closed, so a racing Send can never
// panic.
func (r *Runner) Send(ctx context.Context, evt Event) error {
	select {
	case <-r.closed:
		return ErrRunnerClosed
	default:
	}

	select {
	case <-r.closed:
		return ErrRunnerClosed
	case <-ctx.Done():
		return ctx.Err()
	case r.queue <- evt:
		return nil
	}
}

// Close stops accepting events and waits for in-flight invocations to drain.
func (r *Runner) Close() error {
	r.closeOnce.Do(func() {
		close(r.closed)
	})
	if r.group != nil {
		err := r.group.Wait()
		if r.cancel != nil {
			r.cancel()
		}
		return err
	}
	return nil
}

// dispatch fans an event out to its subscribers, one invocation goroutine
// per function.
func (r *Runner) dispatch(ctx context.Context, evt Event) {
	r.mu.RLock()
	fns := r.subs[evt.Name]
	r.mu.RUnlock()

	if len(fns) == 0 {
		r.logger.Warn("event has no subscribers", zap.String("event", evt.Name))
		return
	}

	for _, fn := range fns {
		fn := fn
		r.group.Go(func() error {
			r.invoke(ctx, fn, evt)
			return nil
		})
	}
}

// invoke runs one function invocation: the whole body is retried on failure
// up to fn.Retries, with completed steps replayed from the memo cache. After
// the budget is exhausted the invocation is abandoned; the failure must
// already be visible through the job status log written inside the function.
func (r *Runner) invoke(ctx context.Context, fn Function, evt Event) {
	invocationID := uuid.NewString()
	step := newStepContext(r.rdb, r.logger, invocationID)
	log := r.logger.With(
		zap.String("function", fn.Name),
		zap.String("event", evt.Name),
		zap.String("invocation_id", invocationID),
	)

	var err error
	for attempt := 0; attempt <= fn.Retries; attempt++ {
		if attempt > 0 {
			log.Info("retrying function", zap.Int("attempt", attempt))
		}
		if err = fn.Handler(ctx, step, evt); err == nil {
			return
		}
		if IsTerminal(err) {
			log.Warn("function ended with terminal business fault", zap.Error(err))
			return
		}
		log.Error("function attempt failed", zap.Int("attempt", attempt), zap.Error(err))
	}

	log.Error("function permanently failed, retries exhausted",
		zap.Int("retries", fn.Retries), zap.Error(err))
}

// FunctionsFor returns the registered functions for an event name. Used in
// tests and diagnostics.
func (r *Runner) FunctionsFor(event string) []Function {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Function(nil), r.subs[event]...)
}
