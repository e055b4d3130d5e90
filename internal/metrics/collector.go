// Package metrics aggregates task latencies using HDR histograms.
package metrics

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Config contains configuration for a Collector.
type Config struct {
	// HistogramMin is the minimum recordable value in microseconds (default: 1)
	HistogramMin int64

	// HistogramMax is the maximum recordable value in microseconds (default: 3600000000 = 1 hour)
	HistogramMax int64

	// HistogramSigFigs is the number of significant figures (default: 3)
	HistogramSigFigs int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		HistogramMin:     1,
		HistogramMax:     3600000000, // 1 hour in microseconds
		HistogramSigFigs: 3,
	}
}

// Collector records task latencies and outcome counts.
//
// Collector is not safe for concurrent use. The executor feeds it from a
// single goroutine once every task has finished, so recording needs no
// locking.
type Collector struct {
	hist      *hdrhistogram.Histogram
	config    Config
	successes int64
	failures  int64
	total     time.Duration
}

// NewCollector creates a collector with the default configuration.
func NewCollector() *Collector {
	return newCollector(DefaultConfig())
}

func newCollector(config Config) *Collector {
	return &Collector{
		hist:   hdrhistogram.New(config.HistogramMin, config.HistogramMax, config.HistogramSigFigs),
		config: config,
	}
}

// Record records one task execution.
func (c *Collector) Record(duration time.Duration, success bool) {
	// Convert to microseconds for HDR histogram, clamped to the valid range
	micros := duration.Microseconds()
	if micros < c.config.HistogramMin {
		micros = c.config.HistogramMin
	}
	if micros > c.config.HistogramMax {
		micros = c.config.HistogramMax
	}
	_ = c.hist.RecordValue(micros)

	c.total += duration
	if success {
		c.successes++
	} else {
		c.failures++
	}
}

// RecordSkipped counts a failed execution that never ran. It adds no
// latency sample.
func (c *Collector) RecordSkipped() {
	c.failures++
}

// Count returns the number of recorded executions.
func (c *Collector) Count() int64 {
	return c.successes + c.failures
}

// Successes returns the number of successful executions.
func (c *Collector) Successes() int64 {
	return c.successes
}

// Failures returns the number of failed executions.
func (c *Collector) Failures() int64 {
	return c.failures
}

// Mean returns the exact mean duration of the timed executions.
//
// Unlike LatencyStats.Mean it is computed from the raw durations, so it
// keeps sub-microsecond precision.
func (c *Collector) Mean() time.Duration {
	n := c.hist.TotalCount()
	if n == 0 {
		return 0
	}
	return c.total / time.Duration(n)
}

// Stats returns the latency distribution.
func (c *Collector) Stats() LatencyStats {
	if c.hist.TotalCount() == 0 {
		return LatencyStats{}
	}
	return LatencyStats{
		Min:    time.Duration(c.hist.Min()) * time.Microsecond,
		Max:    time.Duration(c.hist.Max()) * time.Microsecond,
		Mean:   time.Duration(c.hist.Mean()) * time.Microsecond,
		StdDev: time.Duration(c.hist.StdDev()) * time.Microsecond,
		P50:    time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond,
		P90:    time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond,
		P95:    time.Duration(c.hist.ValueAtQuantile(95)) * time.Microsecond,
		P99:    time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond,
		Count:  c.hist.TotalCount(),
	}
}

// LatencyStats contains latency statistics.
type LatencyStats struct {
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	StdDev time.Duration `json:"stdDev"`
	P50    time.Duration `json:"p50"`
	P90    time.Duration `json:"p90"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
	Count  int64         `json:"count"`
}
