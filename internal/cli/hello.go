package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesleyorama2/hellobench/internal/bench"
	"github.com/wesleyorama2/hellobench/internal/executor"
	"github.com/wesleyorama2/hellobench/internal/task"
)

// largeRepeat is the repeat count above which hello warns.
const largeRepeat = 1000

type helloOptions struct {
	message     string
	repeat      int
	concurrency int
	benchmark   bool
}

func newHelloCmd(a *app) *cobra.Command {
	opts := &helloOptions{}

	cmd := &cobra.Command{
		Use:   "hello",
		Short: "Print a greeting through the timed executor",
		Long: `Print a greeting through the timed executor.

A single greeting is timed and reported on its own. With --repeat greater
than one every greeting is numbered and the batch runs with at most
--concurrency greetings in flight.

Examples:
  hellobench hello
  hellobench hello --message "Hello, Go" --repeat 100 --concurrency 10
  hellobench hello --benchmark`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHello(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.message, "message", "m", task.DefaultMessage, "Message to print")
	cmd.Flags().IntVarP(&opts.repeat, "repeat", "r", 1, "Number of times to print the message")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "k", 0, "Maximum greetings in flight (0 uses the configured limit)")
	cmd.Flags().BoolVar(&opts.benchmark, "benchmark", false, "Run the hello benchmark cases instead")

	return cmd
}

func runHello(cmd *cobra.Command, a *app, opts *helloOptions) error {
	ctx := cmd.Context()
	out := task.LockedWriter(cmd.OutOrStdout())
	message := a.message(cmd, opts.message)

	if opts.benchmark {
		return runHelloBenchmark(ctx, a, out)
	}

	if opts.repeat < 1 {
		return fmt.Errorf("%w: repeat must be at least 1, got %d", executor.ErrInvalidCount, opts.repeat)
	}
	if opts.repeat > largeRepeat {
		a.logger.Warn("large repeat count may impact performance", zap.Int("repeat", opts.repeat))
	}

	exec := a.executor()

	if opts.repeat == 1 {
		r := exec.Run(ctx, task.NewGreeter(message, out))
		a.console.Run("hello", r)
		if !r.Success {
			return r.Err
		}
		return nil
	}

	tasks := make([]task.Task, opts.repeat)
	for i := range tasks {
		tasks[i] = task.NewGreeter(fmt.Sprintf("%s #%d", message, i+1), out)
	}

	summary, err := exec.RunTasks(ctx, tasks, opts.concurrency)
	if err != nil {
		return err
	}
	a.progress(summary)
	if err := a.console.Summary("Hello Summary", summary); err != nil {
		return err
	}
	return failures(ctx, summary)
}

// helloCase is one sequential greeting benchmark.
type helloCase struct {
	name    string
	message string
	repeat  int
}

var helloCases = []helloCase{
	{"Single message", task.DefaultMessage, 1},
	{"10 messages", task.DefaultMessage, 10},
	{"100 messages", task.DefaultMessage, 100},
	{"Custom message", "Performance Test", 50},
}

func runHelloBenchmark(ctx context.Context, a *app, out io.Writer) error {
	tester := bench.NewTester(a.executor(), a.benchConfig(), a.logger)

	for _, c := range helloCases {
		if _, err := tester.BenchmarkFunction(ctx, c.name, task.NewGreeter(c.message, out), c.repeat); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	a.console.Results(tester.Results(), "")
	return nil
}

// failures turns a summary with failed runs into an error. Cancellation
// takes precedence so that interrupted runs are reported as such.
func failures(ctx context.Context, s *executor.Summary) error {
	if s.Failures == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%d of %d tasks failed", s.Failures, s.Count)
}
