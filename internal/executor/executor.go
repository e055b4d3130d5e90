// Package executor runs tasks under timing, alone or in bounded-concurrency batches.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/wesleyorama2/hellobench/internal/task"
)

var (
	// ErrInvalidCount is returned when a batch is requested with fewer than one task.
	ErrInvalidCount = errors.New("repeat count must be at least 1")

	// ErrInvalidConcurrency is returned for a negative concurrency limit.
	ErrInvalidConcurrency = errors.New("concurrency limit must not be negative")

	// ErrNotAdmitted marks tasks that never started because the context
	// was done while they waited for a slot.
	ErrNotAdmitted = errors.New("task not admitted")
)

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// RunResult is the outcome of a single task execution.
type RunResult struct {
	// Index is the task's position in the submitted batch.
	Index     int           `json:"index"`
	Task      string        `json:"task"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Err       error         `json:"-"`
}

// ErrorMessage returns the failure message, or an empty string on success.
func (r RunResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Executor times task executions and bounds how many run at once.
//
// # Thread Safety
//
// Executor holds no per-run state and is safe for concurrent use.
type Executor struct {
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithConcurrency sets the default concurrency limit for batches.
// Zero means unbounded (the limit becomes the batch size).
func WithConcurrency(k int) Option {
	return func(e *Executor) {
		e.concurrency = k
	}
}

// WithLogger sets the logger used for run and batch events.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// withClock replaces the time source. Used by tests.
func withClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// New creates an executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Concurrency returns the configured default concurrency limit.
func (e *Executor) Concurrency() int {
	return e.concurrency
}

// Run executes t once and returns its timed result.
//
// Errors returned by the task and panics raised inside it are captured in
// the result; Run itself never fails.
func (e *Executor) Run(ctx context.Context, t task.Task) RunResult {
	return e.run(ctx, 0, t)
}

// RunBatch executes t n times with at most k running at once and returns
// the aggregated summary. A k of zero uses the executor's default limit,
// and if that is also zero the batch is unbounded.
func (e *Executor) RunBatch(ctx context.Context, t task.Task, n, k int) (*Summary, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, n)
	}

	tasks := make([]task.Task, n)
	for i := range tasks {
		tasks[i] = t
	}
	return e.RunTasks(ctx, tasks, k)
}

// RunTasks executes every task in tasks with at most k running at once.
//
// Tasks are admitted in slice order. Completion order is unspecified.
// A failing task never affects its siblings. If ctx is done while tasks
// are still waiting for a slot, those tasks are not started and are
// reported as failures wrapping ErrNotAdmitted.
func (e *Executor) RunTasks(ctx context.Context, tasks []task.Task, k int) (*Summary, error) {
	n := len(tasks)
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, n)
	}

	limit, err := e.limit(n, k)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("starting batch",
		zap.Int("count", n),
		zap.Int("concurrency", limit))

	// Each goroutine owns exactly one slot of results, so no locking is
	// needed until the reduction below.
	results := make([]RunResult, n)
	gate := semaphore.NewWeighted(int64(limit))
	var wg sync.WaitGroup

	for i, t := range tasks {
		if err := gate.Acquire(ctx, 1); err != nil {
			now := e.now()
			results[i] = RunResult{
				Index:     i,
				Task:      t.Name(),
				StartTime: now,
				EndTime:   now,
				Err:       fmt.Errorf("%w: %w", ErrNotAdmitted, err),
			}
			continue
		}

		wg.Add(1)
		go func(i int, t task.Task) {
			defer wg.Done()
			defer gate.Release(1)
			results[i] = e.run(ctx, i, t)
		}(i, t)
	}

	wg.Wait()

	summary := Summarize(results, limit)

	e.logger.Debug("batch complete",
		zap.Int("count", summary.Count),
		zap.Int("successes", summary.Successes),
		zap.Int("failures", summary.Failures),
		zap.Duration("total_duration", summary.TotalDuration),
		zap.Float64("throughput", summary.Throughput))

	return summary, nil
}

// limit resolves the effective concurrency limit for a batch of n tasks.
func (e *Executor) limit(n, k int) (int, error) {
	if k < 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidConcurrency, k)
	}
	if k == 0 {
		k = e.concurrency
	}
	if k <= 0 || k > n {
		k = n
	}
	return k, nil
}

// run times a single execution and converts failures into the result.
func (e *Executor) run(ctx context.Context, index int, t task.Task) (result RunResult) {
	result = RunResult{
		Index:     index,
		Task:      t.Name(),
		StartTime: e.now(),
	}

	defer func() {
		if r := recover(); r != nil {
			result.Err = &PanicError{Value: r, Stack: debug.Stack()}
		}
		result.EndTime = e.now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		result.Success = result.Err == nil

		if result.Err != nil {
			e.logger.Warn("task failed",
				zap.String("task", result.Task),
				zap.Int("index", index),
				zap.Duration("duration", result.Duration),
				zap.Error(result.Err))
		}
	}()

	result.Err = t.Run(ctx)
	return result
}
