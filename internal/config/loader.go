package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// LookupFunc looks up an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Environment variables read by ApplyEnv.
const (
	EnvVarProfiling       = "PERF_ENABLE_PROFILING"
	EnvVarMemoryTracking  = "PERF_ENABLE_MEMORY"
	EnvVarLogMetrics      = "PERF_LOG_METRICS"
	EnvVarLogFile         = "PERF_LOG_FILE"
	EnvVarMaxConcurrent   = "PERF_MAX_CONCURRENT"
	EnvVarMemoryThreshold = "PERF_MEMORY_THRESHOLD"
	EnvVarTimeThreshold   = "PERF_TIME_THRESHOLD"
	EnvVarBatchSize       = "PERF_BATCH_SIZE"
	EnvVarTimeout         = "PERF_TIMEOUT"
	EnvVarEnvironment     = "ENVIRONMENT"
	EnvVarDebug           = "DEBUG"
	EnvVarVerbose         = "VERBOSE_LOGGING"
	EnvVarMessage         = "HELLO_MESSAGE"
)

// Load builds the effective configuration.
//
// Sources are applied in order: defaults, the environment preset, the
// config file (if path is non-empty), then environment variables. Later
// sources win, so an explicit file or variable value overrides the preset.
func Load(path string, lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// The preset depends on the environment name, which may itself come
	// from the file or the environment.
	cfg := Default()
	if data != nil {
		peek, err := ParseConfig(data, path)
		if err != nil {
			return nil, err
		}
		cfg.Environment = peek.Environment
	}
	if env, ok := lookup(EnvVarEnvironment); ok && env != "" {
		cfg.Environment = env
	}
	cfg.Environment = strings.ToLower(cfg.Environment)
	cfg.ApplyPreset()

	if data != nil {
		if err := decode(data, path, cfg); err != nil {
			return nil, err
		}
	}

	ApplyEnv(cfg, lookup)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseConfig parses configuration data on top of the defaults.
//
// The format is determined by the file extension in path:
//   - .yaml, .yml (or no extension) -> YAML
//   - .json -> JSON
//   - .toml -> TOML
func ParseConfig(data []byte, path string) (*Config, error) {
	cfg := Default()
	if err := decode(data, path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode unmarshals data into cfg according to the extension of path.
// Fields absent from data keep their current values.
func decode(data []byte, path string, cfg *Config) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		// Try YAML by default
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config (unknown format %s): %w", ext, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with any variables set in the environment.
// Values that fail to parse are ignored and the current value is kept.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg.EnableProfiling = envBool(lookup, EnvVarProfiling, cfg.EnableProfiling)
	cfg.EnableMemoryTracking = envBool(lookup, EnvVarMemoryTracking, cfg.EnableMemoryTracking)
	cfg.LogMetrics = envBool(lookup, EnvVarLogMetrics, cfg.LogMetrics)
	cfg.Debug = envBool(lookup, EnvVarDebug, cfg.Debug)
	cfg.Verbose = envBool(lookup, EnvVarVerbose, cfg.Verbose)

	cfg.MaxConcurrent = envInt(lookup, EnvVarMaxConcurrent, cfg.MaxConcurrent)
	cfg.BatchSize = envInt(lookup, EnvVarBatchSize, cfg.BatchSize)
	cfg.MemoryWarningThresholdMB = envFloat(lookup, EnvVarMemoryThreshold, cfg.MemoryWarningThresholdMB)

	if v, ok := lookup(EnvVarTimeThreshold); ok {
		if d, err := ParseDurationString(v); err == nil && v != "" {
			cfg.ExecutionTimeWarning = Duration(d)
		}
	}
	if v, ok := lookup(EnvVarTimeout); ok {
		if d, err := ParseDurationString(v); err == nil && v != "" {
			cfg.CommandTimeout = Duration(d)
		}
	}

	if v, ok := lookup(EnvVarLogFile); ok && v != "" {
		cfg.LogFile = v
	}
	if v, ok := lookup(EnvVarMessage); ok && v != "" {
		cfg.Message = v
	}
	if v, ok := lookup(EnvVarEnvironment); ok && v != "" {
		cfg.Environment = strings.ToLower(v)
	}
}

func envBool(lookup LookupFunc, key string, def bool) bool {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

func envInt(lookup LookupFunc, key string, def int) int {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func envFloat(lookup LookupFunc, key string, def float64) float64 {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}
