// Package bench measures tasks through the executor and collects benchmark results.
package bench

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wesleyorama2/hellobench/internal/executor"
	"github.com/wesleyorama2/hellobench/internal/metrics"
	"github.com/wesleyorama2/hellobench/internal/task"
)

// memorySampleEvery is how often BenchmarkFunction samples heap usage.
const memorySampleEvery = 100

// Result is the outcome of one benchmark.
type Result struct {
	Name string `json:"name"`

	// ExecutionTime is the mean time of a single task execution.
	ExecutionTime time.Duration `json:"executionTime"`

	// MemoryUsage is the mean heap delta in bytes across sampled runs.
	MemoryUsage int64 `json:"memoryUsage"`

	OpsPerSecond  float64              `json:"opsPerSecond"`
	SuccessRate   float64              `json:"successRate"`
	ErrorCount    int                  `json:"errorCount"`
	Iterations    int                  `json:"iterations"`
	Concurrency   int                  `json:"concurrency"`
	TotalDuration time.Duration        `json:"totalDuration"`
	Latency       metrics.LatencyStats `json:"latency"`
	Baseline      bool                 `json:"baseline,omitempty"`
}

// Config controls a Tester.
type Config struct {
	// TrackMemory enables heap sampling
	TrackMemory bool

	// MemoryWarningBytes logs a warning above this heap delta (0 disables)
	MemoryWarningBytes int64

	// ExecutionTimeWarning logs a warning above this mean execution time (0 disables)
	ExecutionTimeWarning time.Duration

	// CommandTimeout bounds BenchmarkCommand runs
	CommandTimeout time.Duration
}

// Tester runs benchmarks and keeps their results in order.
type Tester struct {
	exec   *executor.Executor
	config Config
	logger *zap.Logger

	mu       sync.Mutex
	results  []Result
	baseline string
}

// NewTester creates a tester that runs tasks through exec.
func NewTester(exec *executor.Executor, config Config, logger *zap.Logger) *Tester {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CommandTimeout <= 0 {
		config.CommandTimeout = task.DefaultCommandTimeout
	}
	return &Tester{
		exec:   exec,
		config: config,
		logger: logger,
	}
}

// BenchmarkFunction runs t sequentially for the given number of iterations.
//
// The execution time is the mean over all runs and the operations per
// second figure is its inverse.
func (b *Tester) BenchmarkFunction(ctx context.Context, name string, t task.Task, iterations int) (Result, error) {
	if iterations < 1 {
		return Result{}, fmt.Errorf("%w: got %d", executor.ErrInvalidCount, iterations)
	}

	b.logger.Info("benchmarking function",
		zap.String("name", name),
		zap.Int("iterations", iterations))

	results := make([]executor.RunResult, 0, iterations)
	var memTotal int64
	var memSamples int64

	for i := 0; i < iterations; i++ {
		if b.config.TrackMemory && i%memorySampleEvery == 0 {
			var r executor.RunResult
			delta := measureHeap(func() { r = b.exec.Run(ctx, t) })
			r.Index = i
			results = append(results, r)
			memTotal += delta
			memSamples++
			continue
		}

		r := b.exec.Run(ctx, t)
		r.Index = i
		results = append(results, r)
	}

	summary := executor.Summarize(results, 1)

	result := Result{
		Name:          name,
		Iterations:    iterations,
		Concurrency:   1,
		ErrorCount:    summary.Failures,
		SuccessRate:   summary.SuccessRate(),
		TotalDuration: summary.TotalDuration,
	}
	if memSamples > 0 {
		result.MemoryUsage = memTotal / memSamples
	}

	if summary.Successes == 0 {
		b.logger.Error("no successful executions", zap.String("name", name))
		return b.add(result), nil
	}

	result.ExecutionTime = summary.MeanDuration
	result.Latency = summary.Latency
	if result.ExecutionTime > 0 {
		result.OpsPerSecond = 1 / result.ExecutionTime.Seconds()
	}

	b.warn(result)
	return b.add(result), nil
}

// BenchmarkBatch runs t n times with at most k in flight.
//
// The execution time is the mean per task and the operations per second
// figure is the batch throughput.
func (b *Tester) BenchmarkBatch(ctx context.Context, name string, t task.Task, n, k int) (Result, error) {
	b.logger.Info("benchmarking batch",
		zap.String("name", name),
		zap.Int("count", n),
		zap.Int("concurrency", k))

	var summary *executor.Summary
	var runErr error
	var delta int64
	run := func() { summary, runErr = b.exec.RunBatch(ctx, t, n, k) }
	if b.config.TrackMemory {
		delta = measureHeap(run)
	} else {
		run()
	}
	if runErr != nil {
		return Result{}, fmt.Errorf("batch %s: %w", name, runErr)
	}

	result := FromSummary(name, summary)
	result.MemoryUsage = delta

	if summary.Successes == 0 {
		b.logger.Error("no successful executions", zap.String("name", name))
	}

	b.warn(result)
	return b.add(result), nil
}

// ScalabilityTest runs a batch for every size and limit pair, skipping
// limits larger than the size.
func (b *Tester) ScalabilityTest(ctx context.Context, name string, t task.Task, sizes, limits []int) ([]Result, error) {
	var out []Result
	for _, size := range sizes {
		for _, limit := range limits {
			if limit > size {
				continue
			}
			r, err := b.BenchmarkBatch(ctx, fmt.Sprintf("%s (size=%d, limit=%d)", name, size, limit), t, size, limit)
			if err != nil {
				return out, err
			}
			out = append(out, r)
		}
	}
	return out, nil
}

// BenchmarkCommand times a single run of an external program.
func (b *Tester) BenchmarkCommand(ctx context.Context, name, path string, args ...string) Result {
	cmd := &task.Command{Path: path, Args: args, Timeout: b.config.CommandTimeout}

	b.logger.Info("benchmarking command",
		zap.String("name", name),
		zap.String("path", path),
		zap.Strings("args", args))

	r := b.exec.Run(ctx, cmd)

	result := Result{
		Name:          name,
		Iterations:    1,
		Concurrency:   1,
		ExecutionTime: r.Duration,
		TotalDuration: r.Duration,
	}

	switch {
	case r.Success:
		result.SuccessRate = 1
		if r.Duration > 0 {
			result.OpsPerSecond = 1 / r.Duration.Seconds()
		}
	case errors.Is(r.Err, task.ErrCommandTimeout):
		result.Name = name + " (TIMEOUT)"
		result.ExecutionTime = b.config.CommandTimeout
		result.TotalDuration = b.config.CommandTimeout
		result.ErrorCount = 1
	default:
		b.logger.Error("command benchmark failed", zap.String("name", name), zap.Error(r.Err))
		result.Name = name + " (ERROR)"
		result.ExecutionTime = 0
		result.ErrorCount = 1
	}

	return b.add(result)
}

// Add records an externally produced result.
func (b *Tester) Add(r Result) Result {
	return b.add(r)
}

// SetBaseline designates the result that others are compared against.
func (b *Tester) SetBaseline(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.baseline = name
	for i := range b.results {
		b.results[i].Baseline = b.results[i].Name == name
	}
}

// Baseline returns the baseline result, if one is set and recorded.
func (b *Tester) Baseline() (Result, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.results {
		if r.Name == b.baseline {
			return r, true
		}
	}
	return Result{}, false
}

// Results returns a copy of all results in the order they were recorded.
func (b *Tester) Results() []Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Result, len(b.results))
	copy(out, b.results)
	return out
}

// FromSummary converts a batch summary into a benchmark result.
func FromSummary(name string, s *executor.Summary) Result {
	return Result{
		Name:          name,
		ExecutionTime: s.MeanDuration,
		OpsPerSecond:  s.Throughput,
		SuccessRate:   s.SuccessRate(),
		ErrorCount:    s.Failures,
		Iterations:    s.Count,
		Concurrency:   s.Concurrency,
		TotalDuration: s.TotalDuration,
		Latency:       s.Latency,
	}
}

func (b *Tester) add(r Result) Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.baseline != "" && r.Name == b.baseline {
		r.Baseline = true
	}
	b.results = append(b.results, r)
	return r
}

func (b *Tester) warn(r Result) {
	if b.config.ExecutionTimeWarning > 0 && r.ExecutionTime > b.config.ExecutionTimeWarning {
		b.logger.Warn("execution time above threshold",
			zap.String("name", r.Name),
			zap.Duration("execution_time", r.ExecutionTime),
			zap.Duration("threshold", b.config.ExecutionTimeWarning))
	}
	if b.config.MemoryWarningBytes > 0 && r.MemoryUsage > b.config.MemoryWarningBytes {
		b.logger.Warn("memory usage above threshold",
			zap.String("name", r.Name),
			zap.Int64("memory_bytes", r.MemoryUsage),
			zap.Int64("threshold_bytes", b.config.MemoryWarningBytes))
	}
}

// measureHeap runs fn between two garbage collections and returns the
// change in live heap bytes.
func measureHeap(fn func()) int64 {
	var before, after runtime.MemStats

	runtime.GC()
	runtime.ReadMemStats(&before)

	fn()

	runtime.GC()
	runtime.ReadMemStats(&after)

	return int64(after.HeapAlloc) - int64(before.HeapAlloc)
}
