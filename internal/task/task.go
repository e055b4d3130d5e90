// Package task defines the units of work executed and timed by the executor.
package task

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// DefaultMessage is the greeting printed when no message is configured.
const DefaultMessage = "Hello, World!"

// Task is a single unit of work.
//
// Run is invoked once per execution. A non-nil error marks the execution
// as failed; the executor also treats a panic inside Run as a failure.
type Task interface {
	// Name identifies the task in logs and reports.
	Name() string

	// Run performs the work.
	Run(ctx context.Context) error
}

// Greeter writes a message followed by a newline.
type Greeter struct {
	Message string
	Writer  io.Writer
}

// NewGreeter creates a greeter. An empty message falls back to DefaultMessage
// and a nil writer to os.Stdout.
func NewGreeter(message string, w io.Writer) *Greeter {
	if message == "" {
		message = DefaultMessage
	}
	if w == nil {
		w = os.Stdout
	}
	return &Greeter{Message: message, Writer: w}
}

// Name returns the task name.
func (g *Greeter) Name() string {
	return "greet"
}

// Run writes the greeting.
func (g *Greeter) Run(ctx context.Context) error {
	if _, err := fmt.Fprintln(g.Writer, g.Message); err != nil {
		return fmt.Errorf("failed to write greeting: %w", err)
	}
	return nil
}

// Composer builds throwaway intermediate strings before printing the
// message. It gives benchmarks a slightly heavier variant of Greeter.
type Composer struct {
	Greeter
	Steps int
}

// NewComposer creates a composer running 100 steps.
func NewComposer(message string, w io.Writer) *Composer {
	return &Composer{Greeter: *NewGreeter(message, w), Steps: 100}
}

// Name returns the task name.
func (c *Composer) Name() string {
	return "compose"
}

// Run builds a suffixed copy of the message on every tenth step and then
// writes the plain message.
func (c *Composer) Run(ctx context.Context) error {
	var sb strings.Builder
	for i := 0; i < c.Steps; i++ {
		if i%10 == 0 {
			sb.Reset()
			sb.WriteString(c.Message)
			fmt.Fprintf(&sb, " %d", i)
		}
	}
	return c.Greeter.Run(ctx)
}

// Sleeper waits for Delay, simulating I/O latency.
type Sleeper struct {
	Delay time.Duration
}

// Name returns the task name.
func (s *Sleeper) Name() string {
	return "sleep"
}

// Run blocks for the configured delay or until ctx is done.
func (s *Sleeper) Run(ctx context.Context) error {
	if s.Delay <= 0 {
		return nil
	}

	timer := time.NewTimer(s.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Chain runs tasks in order, stopping at the first error.
type Chain []Task

// Name joins the names of the chained tasks.
func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, t := range c {
		names[i] = t.Name()
	}
	return strings.Join(names, "+")
}

// Run runs each task in order.
func (c Chain) Run(ctx context.Context) error {
	for _, t := range c {
		if err := t.Run(ctx); err != nil {
			return fmt.Errorf("%s: %w", t.Name(), err)
		}
	}
	return nil
}

type funcTask struct {
	name string
	fn   func(ctx context.Context) error
}

func (f *funcTask) Name() string                  { return f.name }
func (f *funcTask) Run(ctx context.Context) error { return f.fn(ctx) }

// Func adapts a function to the Task interface.
func Func(name string, fn func(ctx context.Context) error) Task {
	return &funcTask{name: name, fn: fn}
}

// Fail returns a task that always fails with err.
func Fail(name string, err error) Task {
	return Func(name, func(context.Context) error { return err })
}
