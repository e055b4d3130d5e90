package profiling

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStart_WritesProfiles(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		CPUProfile: filepath.Join(dir, "cpu.prof"),
		MemProfile: filepath.Join(dir, "mem.prof"),
	}
	if !opts.Enabled() {
		t.Fatal("Enabled() = false, want true")
	}

	stop, err := Start(opts)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := stop(); err != nil {
		t.Fatalf("stop() error = %v", err)
	}

	for _, path := range []string{opts.CPUProfile, opts.MemProfile} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("profile %s not written: %v", path, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("profile %s is empty", path)
		}
	}
}

func TestStart_Disabled(t *testing.T) {
	if (Options{}).Enabled() {
		t.Error("empty options should be disabled")
	}
	stop, err := Start(Options{})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := stop(); err != nil {
		t.Errorf("stop() error = %v", err)
	}
}

func TestStart_BadPath(t *testing.T) {
	_, err := Start(Options{CPUProfile: filepath.Join(t.TempDir(), "missing", "cpu.prof")})
	if err == nil {
		t.Error("Start() should fail for an unwritable path")
	}
}

func TestReadRuntimeStats(t *testing.T) {
	s := ReadRuntimeStats()
	if s.Goroutines < 1 {
		t.Errorf("Goroutines = %d, want at least 1", s.Goroutines)
	}
	if s.HeapAlloc == 0 || s.Sys == 0 {
		t.Errorf("heap counters should be non-zero: %+v", s)
	}
	if len(s.Fields()) != 4 {
		t.Errorf("Fields() returned %d fields, want 4", len(s.Fields()))
	}
}
