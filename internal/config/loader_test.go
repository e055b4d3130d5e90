package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// envMap returns a LookupFunc backed by a map.
func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoad_DefaultsWithDevelopmentPreset(t *testing.T) {
	cfg, err := Load("", envMap(nil))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Environment != EnvDevelopment {
		t.Errorf("Environment = %q, want %q", cfg.Environment, EnvDevelopment)
	}
	if cfg.MaxConcurrent != 25 {
		t.Errorf("MaxConcurrent = %d, want 25", cfg.MaxConcurrent)
	}
	if cfg.BatchSize != 50 {
		t.Errorf("BatchSize = %d, want 50", cfg.BatchSize)
	}
	if !cfg.Debug || !cfg.Verbose || !cfg.EnableProfiling {
		t.Errorf("development preset not applied: %+v", cfg)
	}
	if cfg.Message != "Hello, World!" {
		t.Errorf("Message = %q", cfg.Message)
	}
	if time.Duration(cfg.CommandTimeout) != 30*time.Second {
		t.Errorf("CommandTimeout = %v, want 30s", cfg.CommandTimeout)
	}
}

func TestLoad_Presets(t *testing.T) {
	tests := []struct {
		env           string
		maxConcurrent int
		batchSize     int
		debug         bool
		verbose       bool
		profiling     bool
	}{
		{EnvProduction, 100, 500, false, false, false},
		{EnvStaging, 75, 250, false, true, true},
		{EnvDevelopment, 25, 50, true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg, err := Load("", envMap(map[string]string{EnvVarEnvironment: tt.env}))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.MaxConcurrent != tt.maxConcurrent {
				t.Errorf("MaxConcurrent = %d, want %d", cfg.MaxConcurrent, tt.maxConcurrent)
			}
			if cfg.BatchSize != tt.batchSize {
				t.Errorf("BatchSize = %d, want %d", cfg.BatchSize, tt.batchSize)
			}
			if cfg.Debug != tt.debug || cfg.Verbose != tt.verbose || cfg.EnableProfiling != tt.profiling {
				t.Errorf("debug/verbose/profiling = %v/%v/%v, want %v/%v/%v",
					cfg.Debug, cfg.Verbose, cfg.EnableProfiling, tt.debug, tt.verbose, tt.profiling)
			}
		})
	}
}

func TestLoad_EnvironmentVariablesOverridePreset(t *testing.T) {
	cfg, err := Load("", envMap(map[string]string{
		EnvVarEnvironment:     "PRODUCTION",
		EnvVarMaxConcurrent:   "12",
		EnvVarBatchSize:       "not-a-number",
		EnvVarMemoryThreshold: "64.5",
		EnvVarTimeThreshold:   "0.25",
		EnvVarTimeout:         "5s",
		EnvVarLogFile:         "custom.log",
		EnvVarMemoryTracking:  "off",
		EnvVarDebug:           "yes",
		EnvVarMessage:         "Hi there",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Environment != EnvProduction {
		t.Errorf("Environment = %q, want production", cfg.Environment)
	}
	if cfg.MaxConcurrent != 12 {
		t.Errorf("MaxConcurrent = %d, want 12", cfg.MaxConcurrent)
	}
	// Unparseable values keep the preset
	if cfg.BatchSize != 500 {
		t.Errorf("BatchSize = %d, want 500", cfg.BatchSize)
	}
	if cfg.MemoryWarningThresholdMB != 64.5 {
		t.Errorf("MemoryWarningThresholdMB = %v, want 64.5", cfg.MemoryWarningThresholdMB)
	}
	if time.Duration(cfg.ExecutionTimeWarning) != 250*time.Millisecond {
		t.Errorf("ExecutionTimeWarning = %v, want 250ms", cfg.ExecutionTimeWarning)
	}
	if time.Duration(cfg.CommandTimeout) != 5*time.Second {
		t.Errorf("CommandTimeout = %v, want 5s", cfg.CommandTimeout)
	}
	if cfg.LogFile != "custom.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
	if cfg.EnableMemoryTracking {
		t.Error("EnableMemoryTracking = true, want false")
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if cfg.Message != "Hi there" {
		t.Errorf("Message = %q", cfg.Message)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "bench.yaml", `
environment: staging
message: "Hello from YAML"
maxConcurrent: 8
executionTimeWarning: 2s
commandTimeout: 45s
logMetrics: false
`)

	cfg, err := Load(path, envMap(nil))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Environment != EnvStaging {
		t.Errorf("Environment = %q, want staging", cfg.Environment)
	}
	// Explicit file value wins over the preset's 75
	if cfg.MaxConcurrent != 8 {
		t.Errorf("MaxConcurrent = %d, want 8", cfg.MaxConcurrent)
	}
	// Preset value kept where the file is silent
	if cfg.BatchSize != 250 {
		t.Errorf("BatchSize = %d, want 250", cfg.BatchSize)
	}
	if cfg.Message != "Hello from YAML" {
		t.Errorf("Message = %q", cfg.Message)
	}
	if time.Duration(cfg.ExecutionTimeWarning) != 2*time.Second {
		t.Errorf("ExecutionTimeWarning = %v, want 2s", cfg.ExecutionTimeWarning)
	}
	if time.Duration(cfg.CommandTimeout) != 45*time.Second {
		t.Errorf("CommandTimeout = %v, want 45s", cfg.CommandTimeout)
	}
	if cfg.LogMetrics {
		t.Error("LogMetrics = true, want false")
	}
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "bench.json", `{
		"environment": "production",
		"batchSize": 42,
		"commandTimeout": "10s"
	}`)

	cfg, err := Load(path, envMap(nil))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BatchSize != 42 {
		t.Errorf("BatchSize = %d, want 42", cfg.BatchSize)
	}
	if cfg.MaxConcurrent != 100 {
		t.Errorf("MaxConcurrent = %d, want 100", cfg.MaxConcurrent)
	}
	if time.Duration(cfg.CommandTimeout) != 10*time.Second {
		t.Errorf("CommandTimeout = %v, want 10s", cfg.CommandTimeout)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "bench.toml", `
environment = "development"
debug = false
maxConcurrent = 3
executionTimeWarning = "750ms"
`)

	cfg, err := Load(path, envMap(nil))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Debug {
		t.Error("Debug = true, want false")
	}
	if cfg.MaxConcurrent != 3 {
		t.Errorf("MaxConcurrent = %d, want 3", cfg.MaxConcurrent)
	}
	if time.Duration(cfg.ExecutionTimeWarning) != 750*time.Millisecond {
		t.Errorf("ExecutionTimeWarning = %v, want 750ms", cfg.ExecutionTimeWarning)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), envMap(nil)); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		path := writeFile(t, "bad.json", `{"environment": `)
		if _, err := Load(path, envMap(nil)); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeFile(t, "bad.yaml", "environment: qa\nmaxConcurrent: 0\n")
		_, err := Load(path, envMap(nil))
		verrs, ok := err.(*ValidationErrors)
		if !ok {
			t.Fatalf("error = %T %v, want *ValidationErrors", err, err)
		}
		if len(verrs.Errors) != 2 {
			t.Errorf("got %d validation errors, want 2: %v", len(verrs.Errors), verrs)
		}
	})
}

func TestParseConfig_UnknownExtensionFallsBackToYAML(t *testing.T) {
	cfg, err := ParseConfig([]byte("batchSize: 7\n"), "bench.conf")
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.BatchSize != 7 {
		t.Errorf("BatchSize = %d, want 7", cfg.BatchSize)
	}
}
