package metrics

import (
	"testing"
	"time"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector()
	if c == nil {
		t.Fatal("NewCollector() returned nil")
	}

	if c.Count() != 0 {
		t.Errorf("Initial Count = %d, want 0", c.Count())
	}
	if stats := c.Stats(); stats != (LatencyStats{}) {
		t.Errorf("Initial Stats = %+v, want zero value", stats)
	}
	if c.Mean() != 0 {
		t.Errorf("Initial Mean = %v, want 0", c.Mean())
	}
}

func TestCollector_Record(t *testing.T) {
	c := NewCollector()

	c.Record(10*time.Millisecond, true)
	c.Record(20*time.Millisecond, true)
	c.Record(30*time.Millisecond, false)

	if c.Count() != 3 {
		t.Errorf("Count = %d, want 3", c.Count())
	}
	if c.Successes() != 2 {
		t.Errorf("Successes = %d, want 2", c.Successes())
	}
	if c.Failures() != 1 {
		t.Errorf("Failures = %d, want 1", c.Failures())
	}
	if c.Mean() != 20*time.Millisecond {
		t.Errorf("Mean = %v, want 20ms", c.Mean())
	}
}

func TestCollector_Percentiles(t *testing.T) {
	c := NewCollector()

	// Record latencies with known distribution
	for i := 1; i <= 10; i++ {
		c.Record(time.Duration(i)*10*time.Millisecond, true)
	}

	stats := c.Stats()

	// P50 should be around 50ms (with some tolerance for HDR histogram binning)
	if stats.P50 < 40*time.Millisecond || stats.P50 > 60*time.Millisecond {
		t.Errorf("P50 = %v, want ~50ms (±10ms)", stats.P50)
	}

	// P99 should be close to 100ms
	if stats.P99 < 90*time.Millisecond || stats.P99 > 110*time.Millisecond {
		t.Errorf("P99 = %v, want ~100ms (±10ms)", stats.P99)
	}

	if stats.Min < 9*time.Millisecond || stats.Min > 11*time.Millisecond {
		t.Errorf("Min = %v, want ~10ms", stats.Min)
	}
	if stats.Max < 99*time.Millisecond || stats.Max > 101*time.Millisecond {
		t.Errorf("Max = %v, want ~100ms", stats.Max)
	}
	if stats.Count != 10 {
		t.Errorf("Count = %d, want 10", stats.Count)
	}
}

func TestCollector_ClampsOutOfRange(t *testing.T) {
	c := NewCollector()

	// Sub-microsecond and over-an-hour values must still be counted
	c.Record(100*time.Nanosecond, true)
	c.Record(2*time.Hour, true)

	stats := c.Stats()
	if stats.Count != 2 {
		t.Fatalf("Count = %d, want 2", stats.Count)
	}
	if stats.Min != time.Microsecond {
		t.Errorf("Min = %v, want 1µs", stats.Min)
	}
	if stats.Max < 59*time.Minute {
		t.Errorf("Max = %v, want ~1h", stats.Max)
	}
}

func TestCollector_RecordSkipped(t *testing.T) {
	c := NewCollector()
	c.Record(10*time.Millisecond, true)
	c.RecordSkipped()
	c.RecordSkipped()

	if c.Count() != 3 {
		t.Errorf("Count = %d, want 3", c.Count())
	}
	if c.Failures() != 2 {
		t.Errorf("Failures = %d, want 2", c.Failures())
	}
	if c.Stats().Count != 1 {
		t.Errorf("histogram Count = %d, want 1", c.Stats().Count)
	}
	if c.Stats().Min != 10*time.Millisecond {
		t.Errorf("Min = %v, want 10ms", c.Stats().Min)
	}
	if c.Mean() != 10*time.Millisecond {
		t.Errorf("Mean = %v, want 10ms", c.Mean())
	}
}
