package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesleyorama2/hellobench/internal/bench"
	"github.com/wesleyorama2/hellobench/internal/executor"
	"github.com/wesleyorama2/hellobench/internal/profiling"
	"github.com/wesleyorama2/hellobench/internal/report"
	"github.com/wesleyorama2/hellobench/internal/task"
)

// ErrRegression is returned by bench when --fail-on-regression is set and
// a result got slower than the previous report allows.
var ErrRegression = errors.New("performance regression detected")

type benchOptions struct {
	iterations       int
	output           string
	json             bool
	compare          []string
	baseline         string
	baselineReport   string
	tolerance        float64
	failOnRegression bool
	sizes            []int
	limits           []int
	showOutput       bool
}

func newBenchCmd(a *app) *cobra.Command {
	opts := &benchOptions{}
	defaults := bench.DefaultSuite()

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the benchmark suite and write a performance report",
		Long: `Run the benchmark suite: external commands given with --compare, the simple
and complex hello functions, and a batch sweep over --sizes and --limits.
Results are written to a Markdown report (and a JSON report with --json)
and summarized on the console.

A --compare value is "name=command args", or just "command args" in which
case the name is derived from the command. The first compared command is the
baseline unless --baseline names another result.

With --baseline-report the suite is compared against a previous JSON report:
its baseline result, or the one named by --baseline, is included as
"Previous: <name>" and becomes the baseline, and every result that got
slower than --tolerance is listed as a regression.

When profiling is enabled in the configuration and --cpuprofile is not
given, a CPU profile of the run is written next to the report.

Examples:
  hellobench bench
  hellobench bench --compare "original=python3 hello_world.py" --json
  hellobench bench --baseline-report performance_report.json --tolerance 0.2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd, a, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.iterations, "iterations", "i", defaults.Iterations, "Iterations for the function benchmarks")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "performance_report.md", "Markdown report path")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Also write a JSON report next to the Markdown report")
	cmd.Flags().StringArrayVar(&opts.compare, "compare", nil, "External command to benchmark, as name=command (repeatable)")
	cmd.Flags().StringVar(&opts.baseline, "baseline", "", "Name of the baseline result")
	cmd.Flags().StringVar(&opts.baselineReport, "baseline-report", "", "Previous JSON report to compare against")
	cmd.Flags().Float64Var(&opts.tolerance, "tolerance", 0.10, "Allowed relative slowdown before a result counts as a regression")
	cmd.Flags().BoolVar(&opts.failOnRegression, "fail-on-regression", false, "Exit with an error when a regression is detected")
	cmd.Flags().IntSliceVar(&opts.sizes, "sizes", defaults.Sizes, "Batch sizes for the scalability sweep")
	cmd.Flags().IntSliceVar(&opts.limits, "limits", defaults.Limits, "Concurrency limits for the scalability sweep")
	cmd.Flags().BoolVar(&opts.showOutput, "show-output", false, "Print the greetings produced while benchmarking")

	return cmd
}

func (a *app) benchConfig() bench.Config {
	return bench.Config{
		TrackMemory:          a.cfg.EnableMemoryTracking,
		MemoryWarningBytes:   a.cfg.MemoryWarningThresholdBytes(),
		ExecutionTimeWarning: a.cfg.ExecutionTimeWarning.GetDuration(0),
		CommandTimeout:       a.cfg.CommandTimeout.GetDuration(task.DefaultCommandTimeout),
	}
}

func runBench(cmd *cobra.Command, a *app, opts *benchOptions) error {
	ctx := cmd.Context()

	if opts.iterations < 1 {
		return fmt.Errorf("%w: iterations must be at least 1, got %d", executor.ErrInvalidCount, opts.iterations)
	}
	if opts.tolerance < 0 {
		return fmt.Errorf("tolerance must not be negative, got %v", opts.tolerance)
	}

	commands, err := parseCompare(opts.compare)
	if err != nil {
		return err
	}

	tester := bench.NewTester(a.executor(), a.benchConfig(), a.logger)

	suite := bench.DefaultSuite()
	suite.Message = a.cfg.Message
	suite.Iterations = opts.iterations
	suite.Sizes = opts.sizes
	suite.Limits = opts.limits
	suite.Commands = commands
	suite.Baseline = opts.baseline
	suite.Output = io.Discard
	if opts.showOutput {
		suite.Output = task.LockedWriter(cmd.OutOrStdout())
	}

	var previous map[string]bench.Result
	if opts.baselineReport != "" {
		prev, err := report.LoadBaseline(opts.baselineReport, opts.baseline)
		if err != nil {
			return err
		}
		if previous, err = report.LoadPreviousResults(opts.baselineReport); err != nil {
			return err
		}

		prev.Name = "Previous: " + prev.Name
		prev.Baseline = false
		tester.Add(prev)
		suite.Baseline = prev.Name

		a.logger.Info("loaded baseline report",
			zap.String("path", opts.baselineReport),
			zap.String("baseline", prev.Name),
			zap.Int("results", len(previous)))
	}

	if a.cfg.EnableProfiling && a.opts.cpuProfile == "" {
		stop, err := profiling.Start(profiling.Options{CPUProfile: reportSibling(opts.output, ".cpu.prof")})
		if err != nil {
			return err
		}
		defer func() {
			if err := stop(); err != nil {
				a.logger.Warn("failed to write benchmark CPU profile", zap.Error(err))
			}
		}()
	}

	if err := suite.Run(ctx, tester); err != nil {
		return err
	}
	if _, ok := tester.Baseline(); !ok {
		a.console.Warn("baseline %q not found, speedup comparisons skipped", suite.Baseline)
	}

	results := tester.Results()
	rep := report.New(a.cfg.Environment, results)

	if err := report.WriteMarkdown(rep, opts.output); err != nil {
		return err
	}
	a.logger.Info("performance report saved", zap.String("path", opts.output), zap.String("run_id", rep.RunID))

	if opts.json {
		jsonPath := reportSibling(opts.output, ".json")
		if err := report.WriteJSON(rep, jsonPath); err != nil {
			return err
		}
		a.logger.Info("JSON report saved", zap.String("path", jsonPath))
	}

	a.console.Results(results, opts.output)

	if previous != nil {
		regs := report.DetectRegressions(results, previous, opts.tolerance)
		a.console.Regressions(regs)
		if len(regs) > 0 && opts.failOnRegression {
			return fmt.Errorf("%w: %d results slower than %.0f%% tolerance", ErrRegression, len(regs), opts.tolerance*100)
		}
	}
	return nil
}

// reportSibling replaces the extension of the report path with ext.
func reportSibling(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// parseCompare turns --compare values into command specs.
func parseCompare(values []string) ([]bench.CommandSpec, error) {
	specs := make([]bench.CommandSpec, 0, len(values))
	for _, v := range values {
		name, line := "", v
		if i := strings.Index(v, "="); i >= 0 && !strings.ContainsAny(v[:i], " \t") {
			name, line = strings.TrimSpace(v[:i]), v[i+1:]
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil, fmt.Errorf("invalid --compare value %q: missing command", v)
		}
		if name == "" {
			name = strings.Join(append([]string{filepath.Base(fields[0])}, fields[1:]...), " ")
		}

		specs = append(specs, bench.CommandSpec{
			Name: "Script: " + name,
			Path: fields[0],
			Args: fields[1:],
		})
	}
	return specs, nil
}
