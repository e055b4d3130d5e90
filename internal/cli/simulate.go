package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesleyorama2/hellobench/internal/executor"
	"github.com/wesleyorama2/hellobench/internal/rate"
	"github.com/wesleyorama2/hellobench/internal/task"
)

type simulateOptions struct {
	requests    int
	concurrency int
	rate        float64
}

func newSimulateCmd(a *app) *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate concurrent web requests",
		Long: `Simulate --requests concurrent web requests. Request i takes
1ms + (i mod 10) x 0.1ms to process before it responds. By default every
request is in flight at once.

With --rate, requests arrive at that many per second instead of all at
once. Their durations then include the wait for their arrival slot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, a, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.requests, "requests", "n", 1000, "Number of simulated requests")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "k", 0, "Maximum requests in flight (0 runs all at once)")
	cmd.Flags().Float64Var(&opts.rate, "rate", 0, "Request arrivals per second (0 sends all at once)")

	return cmd
}

// requestLatency is the simulated processing time of request i.
func requestLatency(i int) time.Duration {
	return time.Millisecond + time.Duration(i%10)*100*time.Microsecond
}

func runSimulate(cmd *cobra.Command, a *app, opts *simulateOptions) error {
	ctx := cmd.Context()

	if opts.requests < 1 {
		return fmt.Errorf("%w: requests must be at least 1, got %d", executor.ErrInvalidCount, opts.requests)
	}
	if opts.rate < 0 {
		return fmt.Errorf("rate must not be negative, got %v", opts.rate)
	}
	k := opts.concurrency
	if k == 0 {
		k = opts.requests
	}

	var pacer *rate.Pacer
	if opts.rate > 0 {
		pacer = rate.NewPacer(opts.rate)
	}

	responses := make([]string, opts.requests)
	tasks := make([]task.Task, opts.requests)
	for i := range tasks {
		var delay task.Task = &task.Sleeper{Delay: requestLatency(i)}
		if pacer != nil {
			delay = task.Chain{rate.Gate(pacer), delay}
		}
		tasks[i] = reply(delay, responses, i, fmt.Sprintf("Response %d", i))
	}

	a.logger.Info("simulating concurrent web load",
		zap.Int("requests", opts.requests),
		zap.Int("concurrency", k),
		zap.Float64("rate", opts.rate))

	summary, err := a.executor().RunTasks(ctx, tasks, k)
	if err != nil {
		return err
	}

	if pacer != nil {
		stats := pacer.Stats()
		a.logger.Debug("arrival pacing", zap.Int64("starts", stats.Starts), zap.Duration("wait_time", stats.WaitTime))
	}

	a.progress(summary)
	a.console.Println(fmt.Sprintf("Handled %d/%d requests successfully", summary.Successes, summary.Count))
	if err := a.console.Summary("Web Load Summary", summary); err != nil {
		return err
	}
	return failures(ctx, summary)
}
