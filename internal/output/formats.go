package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/hellobench/internal/executor"
)

// OutputFormat represents the format of batch summaries
type OutputFormat string

const (
	// FormatText is the default human readable format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat converts a flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use text, json or yaml)", s)
	}
}

// SummaryData is the machine readable form of a batch summary
type SummaryData struct {
	Name          string      `json:"name" yaml:"name"`
	Count         int         `json:"count" yaml:"count"`
	Concurrency   int         `json:"concurrency" yaml:"concurrency"`
	Successes     int         `json:"successes" yaml:"successes"`
	Failures      int         `json:"failures" yaml:"failures"`
	SuccessRate   float64     `json:"successRate" yaml:"successRate"`
	TotalDuration string      `json:"totalDuration" yaml:"totalDuration"`
	MeanDuration  string      `json:"meanDuration" yaml:"meanDuration"`
	Throughput    float64     `json:"throughput" yaml:"throughput"`
	Latency       LatencyData `json:"latency" yaml:"latency"`
	Errors        []string    `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// LatencyData holds latency percentiles as duration strings
type LatencyData struct {
	Min string `json:"min" yaml:"min"`
	P50 string `json:"p50" yaml:"p50"`
	P90 string `json:"p90" yaml:"p90"`
	P95 string `json:"p95" yaml:"p95"`
	P99 string `json:"p99" yaml:"p99"`
	Max string `json:"max" yaml:"max"`
}

// NewSummaryData converts s for encoding.
func NewSummaryData(name string, s *executor.Summary) SummaryData {
	d := func(v time.Duration) string { return v.String() }
	return SummaryData{
		Name:          name,
		Count:         s.Count,
		Concurrency:   s.Concurrency,
		Successes:     s.Successes,
		Failures:      s.Failures,
		SuccessRate:   s.SuccessRate(),
		TotalDuration: d(s.TotalDuration),
		MeanDuration:  d(s.MeanDuration),
		Throughput:    s.Throughput,
		Latency: LatencyData{
			Min: d(s.Latency.Min),
			P50: d(s.Latency.P50),
			P90: d(s.Latency.P90),
			P95: d(s.Latency.P95),
			P99: d(s.Latency.P99),
			Max: d(s.Latency.Max),
		},
		Errors: s.Errors,
	}
}

// encode renders v in a structured format.
func encode(format OutputFormat, v interface{}) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode JSON: %w", err)
		}
		return string(data) + "\n", nil
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode YAML: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("format %q is not structured", format)
	}
}
