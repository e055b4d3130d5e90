// Package profiling wraps runtime/pprof for the command line tools.
package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"go.uber.org/zap"
)

// Options selects which profiles to write. Empty paths disable a profile.
type Options struct {
	CPUProfile string
	MemProfile string
}

// Enabled reports whether any profile was requested.
func (o Options) Enabled() bool {
	return o.CPUProfile != "" || o.MemProfile != ""
}

// Start begins CPU profiling if requested. The returned function stops it
// and writes the heap profile; it must be called exactly once.
func Start(opts Options) (func() error, error) {
	var cpuFile *os.File
	if opts.CPUProfile != "" {
		f, err := os.Create(opts.CPUProfile)
		if err != nil {
			return nil, fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("could not start CPU profile: %w", err)
		}
		cpuFile = f
	}

	return func() error {
		if cpuFile != nil {
			pprof.StopCPUProfile()
			if err := cpuFile.Close(); err != nil {
				return fmt.Errorf("could not close CPU profile: %w", err)
			}
		}
		if opts.MemProfile != "" {
			return writeHeapProfile(opts.MemProfile)
		}
		return nil
	}, nil
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer f.Close()

	runtime.GC() // up-to-date statistics
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	return nil
}

// RuntimeStats is a snapshot of scheduler and heap counters.
type RuntimeStats struct {
	Goroutines int
	HeapAlloc  uint64
	Sys        uint64
	NumGC      uint32
}

// ReadRuntimeStats samples the current runtime counters.
func ReadRuntimeStats() RuntimeStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeStats{
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  m.HeapAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

// Fields renders the snapshot as log fields.
func (s RuntimeStats) Fields() []zap.Field {
	return []zap.Field{
		zap.Int("goroutines", s.Goroutines),
		zap.Uint64("heap_alloc_bytes", s.HeapAlloc),
		zap.Uint64("sys_bytes", s.Sys),
		zap.Uint32("num_gc", s.NumGC),
	}
}
