package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/wesleyorama2/hellobench/internal/config"
)

func TestNew_Level(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = config.EnvProduction
	cfg.LogMetrics = false

	logger, closeLog, err := New(cfg, Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer closeLog()
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("production logger should not enable info")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("production logger should enable warn")
	}

	verbose, closeVerbose, err := New(cfg, Options{Verbose: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer closeVerbose()
	if !verbose.Core().Enabled(zapcore.DebugLevel) {
		t.Error("verbose logger should enable debug")
	}
}

func TestNew_WritesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "performance.log")

	cfg := config.Default()
	cfg.Environment = config.EnvStaging
	cfg.LogMetrics = true

	logger, closeLog, err := New(cfg, Options{LogFile: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("batch complete")
	_ = logger.Sync()
	closeLog()

	// Writes after close must not reach the file.
	logger.Info("after close")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"msg":"batch complete"`) {
		t.Errorf("log file = %q, want JSON entry for the message", data)
	}
	if strings.Contains(string(data), "after close") {
		t.Errorf("log file = %q, entry written after close", data)
	}
}
