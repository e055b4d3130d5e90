package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesleyorama2/hellobench/internal/config"
	"github.com/wesleyorama2/hellobench/internal/executor"
	"github.com/wesleyorama2/hellobench/internal/logging"
	"github.com/wesleyorama2/hellobench/internal/output"
	"github.com/wesleyorama2/hellobench/internal/profiling"
)

var version = "0.1.0"

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	env        string
	verbose    bool
	logFile    string
	noColor    bool
	format     string
	cpuProfile string
	memProfile string
}

// app is the state shared by all commands once the root command has
// loaded the configuration.
type app struct {
	opts    rootOptions
	lookup  config.LookupFunc
	cfg     *config.Config
	logger  *zap.Logger
	console *output.Console
	format  output.OutputFormat

	closeLog    func()
	stopProfile func() error
	closed      bool
}

// NewRootCmd creates the hellobench command tree.
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd(os.LookupEnv)
	return cmd
}

func newRootCmd(lookup config.LookupFunc) (*cobra.Command, *app) {
	a := &app{lookup: lookup}

	cmd := &cobra.Command{
		Use:     "hellobench",
		Short:   "Run and benchmark hello world tasks with bounded concurrency",
		Version: version,
		Long: `hellobench runs hello world tasks through a timed executor that captures
every failure, bounds how many tasks run at once and summarizes the batch.
It also benchmarks functions and external commands and writes a Markdown
performance report.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// If no subcommand is provided, print help
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.opts.configPath, "config", "c", "", "Configuration file (.yaml, .json or .toml)")
	flags.StringVarP(&a.opts.env, "env", "e", "", "Environment preset (development, staging, production)")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&a.opts.logFile, "log-file", "", "Performance log file (overrides the configuration)")
	flags.BoolVar(&a.opts.noColor, "no-color", false, "Disable colored output")
	flags.StringVarP(&a.opts.format, "format", "f", "text", "Summary format (text, json, yaml)")
	flags.StringVar(&a.opts.cpuProfile, "cpuprofile", "", "Write a CPU profile to this file")
	flags.StringVar(&a.opts.memProfile, "memprofile", "", "Write a heap profile to this file")

	cmd.AddCommand(newHelloCmd(a))
	cmd.AddCommand(newBatchCmd(a))
	cmd.AddCommand(newSimulateCmd(a))
	cmd.AddCommand(newBenchCmd(a))

	return cmd, a
}

// setup loads the configuration and builds the logger, console and profiler.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	lookup := a.lookup
	if a.opts.env != "" {
		lookup = override(lookup, config.EnvVarEnvironment, a.opts.env)
	}

	cfg, err := config.Load(a.opts.configPath, lookup)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if a.opts.verbose {
		cfg.Verbose = true
	}
	a.cfg = cfg

	format, err := output.ParseFormat(a.opts.format)
	if err != nil {
		return err
	}
	a.format = format

	logger, closeLog, err := logging.New(cfg, logging.Options{Verbose: a.opts.verbose, LogFile: a.opts.logFile})
	if err != nil {
		return err
	}
	a.logger = logger.With(zap.String("command", cmd.Name()))
	a.closeLog = closeLog

	a.console = output.NewConsole(output.ConsoleConfig{
		Writer:  cmd.OutOrStdout(),
		Format:  format,
		NoColor: a.opts.noColor,
	})

	if profile := a.profileOptions(); profile.Enabled() {
		stop, err := profiling.Start(profile)
		if err != nil {
			return err
		}
		a.stopProfile = stop
	}

	a.logger.Debug("configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.Int("max_concurrent", cfg.MaxConcurrent),
		zap.Bool("memory_tracking", cfg.EnableMemoryTracking),
		zap.Bool("profiling", cfg.EnableProfiling))
	return nil
}

// close stops profiling and flushes the logger. It is safe to call more
// than once.
func (a *app) close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var err error
	if a.stopProfile != nil {
		err = a.stopProfile()
		if err == nil {
			profile := a.profileOptions()
			a.logger.Info("profiles written",
				zap.String("cpu", profile.CPUProfile),
				zap.String("memory", profile.MemProfile))
		}
	}
	if a.logger != nil {
		if a.cfg != nil && a.cfg.EnableProfiling {
			a.logger.Debug("runtime stats", profiling.ReadRuntimeStats().Fields()...)
		}
		// Sync fails on terminals; nothing useful can be done about it.
		_ = a.logger.Sync()
	}
	if a.closeLog != nil {
		a.closeLog()
	}
	return err
}

func (a *app) profileOptions() profiling.Options {
	return profiling.Options{CPUProfile: a.opts.cpuProfile, MemProfile: a.opts.memProfile}
}

// progress prints one line per run of a batch when verbose output is
// configured. Structured formats stay machine readable, so they get none.
func (a *app) progress(s *executor.Summary) {
	if !a.cfg.Verbose || a.format != output.FormatText {
		return
	}
	for _, r := range s.Results {
		a.console.Run(fmt.Sprintf("%s #%d", r.Task, r.Index+1), r)
	}
}

// executor builds an executor that uses the configured concurrency.
func (a *app) executor() *executor.Executor {
	return executor.New(
		executor.WithConcurrency(a.cfg.MaxConcurrent),
		executor.WithLogger(a.logger),
	)
}

// message returns the flag value when set, else the configured message.
func (a *app) message(cmd *cobra.Command, flag string) string {
	if cmd.Flags().Changed("message") {
		return flag
	}
	return a.cfg.Message
}

// override returns a lookup that reports value for key.
func override(lookup config.LookupFunc, key, value string) config.LookupFunc {
	return func(k string) (string, bool) {
		if k == key {
			return value, true
		}
		return lookup(k)
	}
}

// Execute runs the root command with ctx and prints any error to stderr.
func Execute(ctx context.Context) error {
	cmd, a := newRootCmd(os.LookupEnv)
	err := cmd.ExecuteContext(ctx)
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	}
	return err
}
