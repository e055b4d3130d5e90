package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/wesleyorama2/hellobench/internal/task"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_HelloWorld(t *testing.T) {
	var out bytes.Buffer
	exec := New()

	result := exec.Run(context.Background(), task.NewGreeter("Hello, World!", &out))

	assert.True(t, result.Success)
	assert.NoError(t, result.Err)
	assert.Empty(t, result.ErrorMessage())
	assert.Equal(t, "Hello, World!\n", out.String())
	assert.False(t, result.EndTime.Before(result.StartTime))
	assert.Equal(t, result.EndTime.Sub(result.StartTime), result.Duration)
}

func TestRun_CapturesError(t *testing.T) {
	exec := New()

	result := exec.Run(context.Background(), task.Fail("explode", errors.New("kaboom")))

	assert.False(t, result.Success)
	require.Error(t, result.Err)
	assert.Equal(t, "kaboom", result.ErrorMessage())
	assert.Equal(t, "explode", result.Task)
}

func TestRun_CapturesPanic(t *testing.T) {
	exec := New()

	result := exec.Run(context.Background(), task.Func("panicky", func(context.Context) error {
		panic("unexpected state")
	}))

	assert.False(t, result.Success)
	var panicErr *PanicError
	require.ErrorAs(t, result.Err, &panicErr)
	assert.Equal(t, "unexpected state", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
	assert.Contains(t, result.ErrorMessage(), "unexpected state")
}

func TestRunBatch_AllSucceed(t *testing.T) {
	exec := New()

	for _, n := range []int{1, 2, 7, 64, 250} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			out := &syncBuffer{}
			summary, err := exec.RunBatch(context.Background(), task.NewGreeter("", out), n, 0)
			require.NoError(t, err)

			assert.Equal(t, n, summary.Count)
			assert.Equal(t, n, summary.Successes)
			assert.Equal(t, 0, summary.Failures)
			assert.Equal(t, 1.0, summary.SuccessRate())
			assert.Empty(t, summary.Errors)
			assert.Equal(t, n, bytes.Count([]byte(out.String()), []byte("\n")))
		})
	}
}

func TestRunBatch_FiveHundredWithLimitTen(t *testing.T) {
	exec := New()

	summary, err := exec.RunBatch(context.Background(), task.NewGreeter("", &syncBuffer{}), 500, 10)
	require.NoError(t, err)

	assert.Equal(t, 500, summary.Successes)
	assert.Equal(t, 0, summary.Failures)
	assert.Equal(t, 10, summary.Concurrency)
	require.Greater(t, summary.TotalDuration, time.Duration(0))
	assert.Equal(t, 500/summary.TotalDuration.Seconds(), summary.Throughput)
	assert.False(t, math.IsInf(summary.Throughput, 0))
}

func TestRunTasks_IsolatedFailures(t *testing.T) {
	exec := New()
	out := &syncBuffer{}

	const n = 40
	failing := map[int]bool{0: true, 3: true, 17: true, 39: true}

	tasks := make([]task.Task, n)
	for i := range tasks {
		switch {
		case failing[i] && i%2 == 0:
			tasks[i] = task.Fail("fail", fmt.Errorf("task %d failed", i))
		case failing[i]:
			idx := i
			tasks[i] = task.Func("panic", func(context.Context) error { panic(idx) })
		default:
			tasks[i] = task.NewGreeter("ok", out)
		}
	}

	summary, err := exec.RunTasks(context.Background(), tasks, 5)
	require.NoError(t, err)

	assert.Equal(t, n, summary.Count)
	assert.Equal(t, len(failing), summary.Failures)
	assert.Equal(t, n-len(failing), summary.Successes)
	assert.Len(t, summary.Errors, len(failing))
	assert.Equal(t, "task 0 failed", summary.Errors[0])
	assert.InDelta(t, float64(n-len(failing))/n, summary.SuccessRate(), 1e-9)
}

func TestRunBatch_LimitAboveCountMatchesCount(t *testing.T) {
	exec := New()
	tk := task.NewGreeter("", &syncBuffer{})

	atN, err := exec.RunBatch(context.Background(), tk, 20, 20)
	require.NoError(t, err)
	above, err := exec.RunBatch(context.Background(), tk, 20, 1000)
	require.NoError(t, err)

	assert.Equal(t, atN.Successes, above.Successes)
	assert.Equal(t, atN.Failures, above.Failures)
	assert.Equal(t, 20, above.Concurrency)
}

func TestRunTasks_NeverExceedsLimit(t *testing.T) {
	exec := New()

	const limit = 4
	var inFlight, peak atomic.Int32

	probe := task.Func("probe", func(context.Context) error {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		return nil
	})

	summary, err := exec.RunBatch(context.Background(), probe, 40, limit)
	require.NoError(t, err)

	assert.Equal(t, 40, summary.Successes)
	assert.LessOrEqual(t, peak.Load(), int32(limit))
	assert.Greater(t, peak.Load(), int32(0))
}

func TestRunTasks_AdmitsInSubmissionOrder(t *testing.T) {
	exec := New()

	var mu sync.Mutex
	var order []int

	tasks := make([]task.Task, 25)
	for i := range tasks {
		idx := i
		tasks[i] = task.Func("record", func(context.Context) error {
			mu.Lock()
			order = append(order, idx)
			mu.Unlock()
			return nil
		})
	}

	_, err := exec.RunTasks(context.Background(), tasks, 1)
	require.NoError(t, err)

	want := make([]int, 25)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, order)
}

func TestRunTasks_ContextCancelledWhileWaiting(t *testing.T) {
	exec := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	blocker := task.Func("blocker", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	waiting := &task.Sleeper{Delay: time.Hour}

	done := make(chan *Summary, 1)
	go func() {
		s, err := exec.RunTasks(ctx, []task.Task{blocker, waiting, waiting}, 1)
		if err != nil {
			t.Errorf("RunTasks() error = %v", err)
		}
		done <- s
	}()

	<-started
	cancel()

	var summary *Summary
	select {
	case summary = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("RunTasks did not return after cancellation")
	}

	require.NotNil(t, summary)
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 3, summary.Failures)
	assert.Equal(t, 0, summary.Successes)
	assert.Contains(t, summary.Errors[1], ErrNotAdmitted.Error())
	// Only the blocker ran, so only it has a latency sample.
	assert.Equal(t, int64(1), summary.Latency.Count)
	assert.Greater(t, summary.MeanDuration, time.Duration(0))
}

func TestRunBatch_InvalidArguments(t *testing.T) {
	exec := New()
	tk := task.NewGreeter("", &syncBuffer{})

	tests := []struct {
		name    string
		n, k    int
		wantErr error
	}{
		{name: "zero count", n: 0, k: 1, wantErr: ErrInvalidCount},
		{name: "negative count", n: -3, k: 1, wantErr: ErrInvalidCount},
		{name: "negative limit", n: 3, k: -1, wantErr: ErrInvalidConcurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := exec.RunBatch(context.Background(), tk, tt.n, tt.k)
			assert.Nil(t, summary)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRunTasks_DefaultConcurrency(t *testing.T) {
	exec := New(WithConcurrency(3))
	assert.Equal(t, 3, exec.Concurrency())

	summary, err := exec.RunBatch(context.Background(), task.NewGreeter("", &syncBuffer{}), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Concurrency)

	summary, err = exec.RunBatch(context.Background(), task.NewGreeter("", &syncBuffer{}), 10, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, summary.Concurrency)
}

func TestRun_FakeClock(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ticks atomic.Int64
	clock := func() time.Time {
		return base.Add(time.Duration(ticks.Add(1)) * time.Millisecond)
	}

	exec := New(withClock(clock))
	result := exec.Run(context.Background(), task.NewGreeter("", &syncBuffer{}))

	assert.Equal(t, base.Add(time.Millisecond), result.StartTime)
	assert.Equal(t, time.Millisecond, result.Duration)
}
