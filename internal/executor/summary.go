package executor

import (
	"errors"
	"math"
	"time"

	"github.com/wesleyorama2/hellobench/internal/metrics"
)

// Summary aggregates the results of a batch.
type Summary struct {
	Count         int                  `json:"count"`
	Concurrency   int                  `json:"concurrency"`
	StartTime     time.Time            `json:"startTime"`
	EndTime       time.Time            `json:"endTime"`
	TotalDuration time.Duration        `json:"totalDuration"`
	Successes     int                  `json:"successes"`
	Failures      int                  `json:"failures"`
	Throughput    float64              `json:"throughput"`
	MeanDuration  time.Duration        `json:"meanDuration"`
	Latency       metrics.LatencyStats `json:"latency"`

	// Errors holds the failure message of every failed run, in index order.
	Errors []string `json:"errors,omitempty"`

	// Results are the per-task results the summary was built from.
	Results []RunResult `json:"-"`
}

// SuccessRate returns successes / count, or 0 for an empty summary.
func (s *Summary) SuccessRate() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Count)
}

// Summarize reduces per-task results into a Summary.
//
// It runs on a single goroutine after every task has finished. The total
// duration is the span from the earliest start to the latest end, not the
// sum of the individual durations, since runs may overlap.
func Summarize(results []RunResult, concurrency int) *Summary {
	s := &Summary{
		Count:       len(results),
		Concurrency: concurrency,
		Results:     results,
	}
	if len(results) == 0 {
		return s
	}

	collector := metrics.NewCollector()
	s.StartTime = results[0].StartTime
	s.EndTime = results[0].EndTime

	for _, r := range results {
		if r.StartTime.Before(s.StartTime) {
			s.StartTime = r.StartTime
		}
		if r.EndTime.After(s.EndTime) {
			s.EndTime = r.EndTime
		}

		// Runs that were never admitted have no latency to report.
		if errors.Is(r.Err, ErrNotAdmitted) {
			collector.RecordSkipped()
		} else {
			collector.Record(r.Duration, r.Success)
		}
		if !r.Success {
			s.Errors = append(s.Errors, r.ErrorMessage())
		}
	}

	s.Successes = int(collector.Successes())
	s.Failures = int(collector.Failures())
	s.TotalDuration = s.EndTime.Sub(s.StartTime)
	s.MeanDuration = collector.Mean()
	s.Latency = collector.Stats()
	s.Throughput = Throughput(s.Successes, s.TotalDuration)

	return s
}

// Throughput returns successes per second over d. It is 0 when d is not
// positive, so the result is always finite and non-negative.
func Throughput(successes int, d time.Duration) float64 {
	if d <= 0 || successes <= 0 {
		return 0
	}
	tp := float64(successes) / d.Seconds()
	if math.IsInf(tp, 0) || math.IsNaN(tp) {
		return 0
	}
	return tp
}
