package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesleyorama2/hellobench/internal/executor"
	"github.com/wesleyorama2/hellobench/internal/task"
)

type batchOptions struct {
	message         string
	count           int
	concurrentLimit int
	delay           time.Duration
}

func newBatchCmd(a *app) *cobra.Command {
	opts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Process numbered messages concurrently with a concurrency limit",
		Long: `Process --count numbered messages, each after a simulated I/O delay, with at
most --concurrent-limit in flight. Processed messages are printed in order
once the whole batch has finished, followed by the batch summary.

Without --count the configured batch size is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.message, "message", "m", task.DefaultMessage, "Base message for processing")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 0, "Number of messages to process (default: configured batch size)")
	cmd.Flags().IntVarP(&opts.concurrentLimit, "concurrent-limit", "k", 10, "Maximum concurrent operations")
	cmd.Flags().DurationVar(&opts.delay, "delay", time.Millisecond, "Simulated I/O delay per message")

	return cmd
}

func runBatch(cmd *cobra.Command, a *app, opts *batchOptions) error {
	ctx := cmd.Context()
	message := a.message(cmd, opts.message)

	count := opts.count
	if !cmd.Flags().Changed("count") {
		count = a.cfg.BatchSize
	}
	if count < 1 {
		return fmt.Errorf("%w: count must be at least 1, got %d", executor.ErrInvalidCount, count)
	}

	replies := make([]string, count)
	tasks := make([]task.Task, count)
	for i := range tasks {
		tasks[i] = reply(&task.Sleeper{Delay: opts.delay}, replies, i, fmt.Sprintf("%s #%d", message, i+1))
	}

	summary, err := a.executor().RunTasks(ctx, tasks, opts.concurrentLimit)
	if err != nil {
		return err
	}

	for _, r := range replies {
		if r != "" {
			a.console.Println(r)
		}
	}
	a.progress(summary)
	for i, msg := range summary.Errors {
		a.logger.Error("failed to process message", zap.Int("failure", i+1), zap.String("error", msg))
	}

	if err := a.console.Summary("Batch Summary", summary); err != nil {
		return err
	}
	return failures(ctx, summary)
}

// reply chains a delay with storing text in slot i of replies. Each task
// owns its slot, so no locking is needed.
func reply(delay task.Task, replies []string, i int, text string) task.Task {
	return task.Chain{
		delay,
		task.Func("reply", func(context.Context) error {
			replies[i] = text
			return nil
		}),
	}
}
