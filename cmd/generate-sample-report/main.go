// Command generate-sample-report writes a performance report filled with
// fixed sample data, for previewing the report layout.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wesleyorama2/hellobench/internal/bench"
	"github.com/wesleyorama2/hellobench/internal/metrics"
	"github.com/wesleyorama2/hellobench/internal/report"
)

func main() {
	outputPath := "sample-performance-report.md"
	if len(os.Args) > 1 {
		outputPath = os.Args[1]
	}

	rep := report.New("development", createSampleResults())
	// Fixed so that regenerated samples only differ by run ID
	rep.GeneratedAt = time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

	if err := report.WriteMarkdown(rep, outputPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	jsonPath := strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".json"
	if err := report.WriteJSON(rep, jsonPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sample report generated: %s (%s)\n", outputPath, jsonPath)
}

// createSampleResults returns placeholder measurements. They illustrate the
// report format and are not performance targets.
func createSampleResults() []bench.Result {
	return []bench.Result{
		{
			Name:          "Script: original",
			ExecutionTime: 19600 * time.Microsecond,
			MemoryUsage:   0,
			OpsPerSecond:  51.02,
			SuccessRate:   1,
			Iterations:    1,
			Concurrency:   1,
			TotalDuration: 19600 * time.Microsecond,
			Baseline:      true,
		},
		{
			Name:          "Script: optimized",
			ExecutionTime: 45300 * time.Microsecond,
			MemoryUsage:   4 << 20,
			OpsPerSecond:  22.08,
			SuccessRate:   1,
			Iterations:    1,
			Concurrency:   1,
			TotalDuration: 45300 * time.Microsecond,
		},
		{
			Name:          "Script: async",
			ExecutionTime: 61700 * time.Microsecond,
			MemoryUsage:   6 << 20,
			OpsPerSecond:  16.21,
			SuccessRate:   1,
			Iterations:    1,
			Concurrency:   1,
			TotalDuration: 61700 * time.Microsecond,
		},
		{
			Name:          bench.SimpleHelloName,
			ExecutionTime: 1200 * time.Nanosecond,
			MemoryUsage:   48,
			OpsPerSecond:  833333.33,
			SuccessRate:   1,
			Iterations:    1000,
			Concurrency:   1,
			TotalDuration: 1350 * time.Microsecond,
			Latency: metrics.LatencyStats{
				Min:    900 * time.Nanosecond,
				Max:    18 * time.Microsecond,
				Mean:   1200 * time.Nanosecond,
				StdDev: 700 * time.Nanosecond,
				P50:    1 * time.Microsecond,
				P90:    2 * time.Microsecond,
				P95:    2 * time.Microsecond,
				P99:    5 * time.Microsecond,
				Count:  1000,
			},
		},
		{
			Name:          bench.ComplexHelloName,
			ExecutionTime: 4100 * time.Nanosecond,
			MemoryUsage:   512,
			OpsPerSecond:  243902.44,
			SuccessRate:   1,
			Iterations:    1000,
			Concurrency:   1,
			TotalDuration: 4300 * time.Microsecond,
			Latency: metrics.LatencyStats{
				Min:    3 * time.Microsecond,
				Max:    41 * time.Microsecond,
				Mean:   4100 * time.Nanosecond,
				StdDev: 1900 * time.Nanosecond,
				P50:    4 * time.Microsecond,
				P90:    5 * time.Microsecond,
				P95:    6 * time.Microsecond,
				P99:    12 * time.Microsecond,
				Count:  1000,
			},
		},
		{
			Name:          bench.BatchHelloName + " (size=500, limit=10)",
			ExecutionTime: 3 * time.Microsecond,
			MemoryUsage:   96 << 10,
			OpsPerSecond:  412371.13,
			SuccessRate:   1,
			Iterations:    500,
			Concurrency:   10,
			TotalDuration: 1212500 * time.Nanosecond,
			Latency: metrics.LatencyStats{
				Min:   1 * time.Microsecond,
				Max:   57 * time.Microsecond,
				Mean:  3 * time.Microsecond,
				P50:   2 * time.Microsecond,
				P90:   5 * time.Microsecond,
				P95:   7 * time.Microsecond,
				P99:   21 * time.Microsecond,
				Count: 500,
			},
		},
	}
}
