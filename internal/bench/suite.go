package bench

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/wesleyorama2/hellobench/internal/task"
)

// Names of the built-in suite benchmarks.
const (
	SimpleHelloName  = "Simple Hello Function"
	ComplexHelloName = "Complex Hello Function"
	BatchHelloName   = "Batch Hello"
)

// CommandSpec names an external program to benchmark.
type CommandSpec struct {
	Name string
	Path string
	Args []string
}

// Suite is the standard benchmark run.
type Suite struct {
	// Message printed by the hello tasks
	Message string

	// Output receives the hello tasks' output
	Output io.Writer

	// Iterations for the sequential function benchmarks
	Iterations int

	// Sizes and Limits drive the scalability sweep
	Sizes  []int
	Limits []int

	// Commands are benchmarked first, in order
	Commands []CommandSpec

	// Baseline names the reference result. When empty, the first command
	// is used, or the simple hello benchmark if there are no commands.
	Baseline string
}

// DefaultSuite returns the suite with the standard sizes and limits.
func DefaultSuite() *Suite {
	return &Suite{
		Message:    task.DefaultMessage,
		Output:     io.Discard,
		Iterations: 1000,
		Sizes:      []int{1, 10, 50, 100, 500},
		Limits:     []int{5, 10, 20},
	}
}

// Run executes every benchmark of the suite on tester.
func (s *Suite) Run(ctx context.Context, tester *Tester) error {
	out := s.Output
	if out == nil {
		out = io.Discard
	}

	baseline := s.Baseline
	for _, c := range s.Commands {
		r := tester.BenchmarkCommand(ctx, c.Name, c.Path, c.Args...)
		if baseline == "" {
			baseline = r.Name
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if baseline == "" {
		baseline = SimpleHelloName
	}

	if _, err := tester.BenchmarkFunction(ctx, SimpleHelloName, task.NewGreeter(s.Message, out), s.Iterations); err != nil {
		return fmt.Errorf("simple hello benchmark: %w", err)
	}
	if _, err := tester.BenchmarkFunction(ctx, ComplexHelloName, task.NewComposer(s.Message, out), s.Iterations); err != nil {
		return fmt.Errorf("complex hello benchmark: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := tester.ScalabilityTest(ctx, BatchHelloName, task.NewGreeter(s.Message, out), s.Sizes, s.Limits); err != nil {
		return fmt.Errorf("scalability test: %w", err)
	}

	tester.SetBaseline(baseline)
	if _, ok := tester.Baseline(); !ok {
		tester.logger.Warn("baseline result not found, comparisons skipped", zap.String("baseline", baseline))
	}
	return ctx.Err()
}
