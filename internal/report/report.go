// Package report renders benchmark results as Markdown and JSON reports.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/wesleyorama2/hellobench/internal/bench"
)

// Report is a complete benchmark run.
type Report struct {
	RunID       string         `json:"runId"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Environment string         `json:"environment,omitempty"`
	Baseline    string         `json:"baseline,omitempty"`
	Results     []bench.Result `json:"results"`
}

// Comparison relates one result to the baseline.
type Comparison struct {
	Name string

	// Speedup is baseline time / result time, or 0 when the result has no time
	Speedup float64

	// MemoryChange is result memory minus baseline memory, in bytes
	MemoryChange int64
}

// Recommendations names the standout results of a run.
type Recommendations struct {
	Fastest             string
	MostMemoryEfficient string
	MostReliable        string
}

// New creates a report with a fresh run ID.
func New(environment string, results []bench.Result) *Report {
	r := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
		Environment: environment,
		Results:     results,
	}
	for _, res := range results {
		if res.Baseline {
			r.Baseline = res.Name
			break
		}
	}
	return r
}

// Sorted returns the results ordered by execution time, fastest first.
func (r *Report) Sorted() []bench.Result {
	out := make([]bench.Result, len(r.Results))
	copy(out, r.Results)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExecutionTime < out[j].ExecutionTime
	})
	return out
}

// BaselineResult returns the baseline result if the report has one.
func (r *Report) BaselineResult() (bench.Result, bool) {
	if r.Baseline == "" {
		return bench.Result{}, false
	}
	for _, res := range r.Results {
		if res.Name == r.Baseline {
			return res, true
		}
	}
	return bench.Result{}, false
}

// Comparisons compares every non-baseline result with the baseline, in
// recording order. It is empty when there is no baseline or only one result.
func (r *Report) Comparisons() []Comparison {
	base, ok := r.BaselineResult()
	if !ok || len(r.Results) < 2 {
		return nil
	}

	var out []Comparison
	for _, res := range r.Results {
		if res.Name == base.Name {
			continue
		}
		c := Comparison{
			Name:         res.Name,
			MemoryChange: res.MemoryUsage - base.MemoryUsage,
		}
		if res.ExecutionTime > 0 {
			c.Speedup = float64(base.ExecutionTime) / float64(res.ExecutionTime)
		}
		out = append(out, c)
	}
	return out
}

// Recommend picks the fastest, most memory efficient and most reliable
// results. Results without a single success are not eligible for the
// first two.
func (r *Report) Recommend() (Recommendations, bool) {
	sorted := r.Sorted()
	if len(sorted) == 0 {
		return Recommendations{}, false
	}

	var rec Recommendations
	var minMem int64
	bestRate := -1.0
	for _, res := range sorted {
		if res.SuccessRate > bestRate {
			bestRate = res.SuccessRate
			rec.MostReliable = res.Name
		}
		if res.SuccessRate == 0 {
			continue
		}
		if rec.Fastest == "" {
			rec.Fastest = res.Name
		}
		if rec.MostMemoryEfficient == "" || res.MemoryUsage < minMem {
			minMem = res.MemoryUsage
			rec.MostMemoryEfficient = res.Name
		}
	}
	return rec, true
}

// GenerateMarkdown renders the report as Markdown.
func GenerateMarkdown(r *Report) (string, error) {
	if r == nil {
		return "", fmt.Errorf("report cannot be nil")
	}

	tmpl, err := template.New("report").Funcs(templateFuncs()).Parse(markdownTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	// Sorted and Comparisons are reached through the embedded report's methods.
	rec, hasRec := r.Recommend()
	data := struct {
		*Report
		Recommendations    Recommendations
		HasRecommendations bool
	}{
		Report:             r,
		Recommendations:    rec,
		HasRecommendations: hasRec,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// WriteMarkdown renders the report and writes it to path.
func WriteMarkdown(r *Report, path string) error {
	md, err := GenerateMarkdown(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(md), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteJSON writes the report as indented JSON to path.
func WriteJSON(r *Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"seconds": func(d time.Duration) string {
			return fmt.Sprintf("%.6f", d.Seconds())
		},
		"duration": FormatDuration,
		"bytes":    FormatBytes,
		"signedBytes": func(n int64) string {
			if n >= 0 {
				return "+" + FormatBytes(n)
			}
			return FormatBytes(n)
		},
		"ops": func(f float64) string {
			return humanize.CommafWithDigits(f, 2)
		},
		"percent": func(f float64) string {
			return fmt.Sprintf("%.2f%%", f*100)
		},
		"speedup": func(f float64) string {
			return fmt.Sprintf("%.2fx", f)
		},
		"timestamp": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05")
		},
	}
}

// FormatBytes renders a byte count in IEC units, keeping the sign.
func FormatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

// FormatDuration renders a latency with a unit suited to its size.
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Millisecond:
		return fmt.Sprintf("%.2fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
