// Package output renders run results and summaries on the console.
package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/wesleyorama2/hellobench/internal/bench"
	"github.com/wesleyorama2/hellobench/internal/executor"
	"github.com/wesleyorama2/hellobench/internal/report"
)

const (
	summaryWidth = 50
	nameWidth    = 30

	// maxErrorsShown caps the error lines printed under a batch summary
	maxErrorsShown = 5
)

// ConsoleConfig contains configuration for Console.
type ConsoleConfig struct {
	Writer     io.Writer
	Format     OutputFormat
	NoColor    bool
	ForceColor bool
}

// Console writes human readable output.
type Console struct {
	writer  io.Writer
	format  OutputFormat
	scheme  *ColorScheme
	noColor bool
}

// NewConsole creates a console. Colors are used only when the writer is a
// terminal, NO_COLOR is unset and NoColor is false, unless ForceColor is set.
func NewConsole(config ConsoleConfig) *Console {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}
	if config.Format == "" {
		config.Format = FormatText
	}

	useColors := config.ForceColor ||
		(!config.NoColor && os.Getenv("NO_COLOR") == "" && isTerminal(config.Writer))

	scheme := NoColorScheme()
	if useColors {
		scheme = ForcedColorScheme()
	}

	return &Console{
		writer:  config.Writer,
		format:  config.Format,
		scheme:  scheme,
		noColor: !useColors,
	}
}

// isTerminal checks if the writer is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Colors reports whether the console emits ANSI colors.
func (c *Console) Colors() bool {
	return !c.noColor
}

// Println writes a plain line.
func (c *Console) Println(s string) {
	fmt.Fprintln(c.writer, s)
}

// Warn writes a highlighted warning line.
func (c *Console) Warn(format string, args ...interface{}) {
	fmt.Fprintf(c.writer, "%s %s\n", c.scheme.Warning.Sprint(iconWarning), fmt.Sprintf(format, args...))
}

// Run writes the outcome of a single timed run.
func (c *Console) Run(name string, r executor.RunResult) {
	if r.Success {
		fmt.Fprintf(c.writer, "%s %s completed in %s\n",
			c.scheme.Success.Sprint(iconSuccess),
			name,
			c.scheme.Value.Sprint(report.FormatDuration(r.Duration)))
		return
	}
	fmt.Fprintf(c.writer, "%s %s failed after %s: %s\n",
		c.scheme.Error.Sprint(iconError),
		name,
		report.FormatDuration(r.Duration),
		c.scheme.Error.Sprint(r.ErrorMessage()))
}

// Summary writes a batch summary in the console's format.
func (c *Console) Summary(name string, s *executor.Summary) error {
	if c.format != FormatText {
		out, err := encode(c.format, NewSummaryData(name, s))
		if err != nil {
			return err
		}
		_, err = io.WriteString(c.writer, out)
		return err
	}

	var b strings.Builder
	b.WriteString(c.scheme.Title.Sprintf("=== %s ===", name))
	b.WriteString("\n")

	row := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", c.scheme.Label.Sprintf("%-16s", label+":"), value)
	}

	row("Tasks", humanize.Comma(int64(s.Count)))
	row("Concurrency", humanize.Comma(int64(s.Concurrency)))
	row("Successes", c.scheme.Success.Sprint(humanize.Comma(int64(s.Successes))))
	if s.Failures > 0 {
		row("Failures", c.scheme.Error.Sprint(humanize.Comma(int64(s.Failures))))
	} else {
		row("Failures", "0")
	}
	row("Success rate", c.rate(s.SuccessRate(), "%.2f%%"))
	row("Total duration", report.FormatDuration(s.TotalDuration))
	row("Mean duration", report.FormatDuration(s.MeanDuration))
	row("Throughput", humanize.CommafWithDigits(s.Throughput, 2)+" tasks/sec")
	if s.Latency.Count > 0 {
		row("Latency", fmt.Sprintf("p50 %s  p90 %s  p95 %s  p99 %s  max %s",
			report.FormatDuration(s.Latency.P50),
			report.FormatDuration(s.Latency.P90),
			report.FormatDuration(s.Latency.P95),
			report.FormatDuration(s.Latency.P99),
			report.FormatDuration(s.Latency.Max)))
	}

	for i, msg := range s.Errors {
		if i == maxErrorsShown {
			fmt.Fprintf(&b, "  ... and %d more errors\n", len(s.Errors)-maxErrorsShown)
			break
		}
		fmt.Fprintf(&b, "  %s %s\n", c.scheme.Error.Sprint(iconError), msg)
	}

	_, err := io.WriteString(c.writer, b.String())
	return err
}

// Results writes the final summary table, fastest first.
func (c *Console) Results(results []bench.Result, reportPath string) {
	sorted := make([]bench.Result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ExecutionTime < sorted[j].ExecutionTime
	})

	rule := strings.Repeat("=", summaryWidth)

	fmt.Fprintln(c.writer)
	fmt.Fprintln(c.writer, rule)
	fmt.Fprintln(c.writer, c.scheme.Title.Sprint("PERFORMANCE TEST SUMMARY"))
	fmt.Fprintln(c.writer, rule)

	for _, r := range sorted {
		name := fmt.Sprintf("%-*s", nameWidth, r.Name)
		if r.Baseline {
			name = c.scheme.Highlight.Sprint(name)
		}
		fmt.Fprintf(c.writer, "%s | %.6fs | %s\n", name, r.ExecutionTime.Seconds(), c.rate(r.SuccessRate, "%.1f%%"))
	}

	fmt.Fprintln(c.writer, rule)
	if reportPath != "" {
		fmt.Fprintf(c.writer, "Detailed report saved to %s\n", reportPath)
	}
}

// Regressions lists results that got slower than the previous report.
func (c *Console) Regressions(regs []report.Regression) {
	if len(regs) == 0 {
		fmt.Fprintf(c.writer, "%s no regressions against the previous report\n", c.scheme.Success.Sprint(iconSuccess))
		return
	}
	for _, r := range regs {
		fmt.Fprintf(c.writer, "%s %s regressed %s: %s -> %s\n",
			c.scheme.Error.Sprint(iconError),
			r.Name,
			c.scheme.Error.Sprintf("+%.1f%%", r.Change*100),
			report.FormatDuration(r.Previous),
			report.FormatDuration(r.Current))
	}
}

// rate colors a success rate by how healthy it is.
func (c *Console) rate(rate float64, format string) string {
	text := fmt.Sprintf(format, rate*100)
	switch {
	case rate >= 1:
		return c.scheme.Success.Sprint(text)
	case rate > 0:
		return c.scheme.Warning.Sprint(text)
	default:
		return c.scheme.Error.Sprint(text)
	}
}
