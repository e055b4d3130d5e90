// Package config provides configuration loading and validation for hellobench.
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// Environment names.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config controls execution, monitoring and reporting.
//
// Example YAML:
//
//	environment: staging
//	message: "Hello, World!"
//	maxConcurrent: 20
//	executionTimeWarning: 1s
//	logMetrics: true
//	logFile: performance.log
type Config struct {
	// Environment selects a preset: development, staging or production
	Environment string `json:"environment" yaml:"environment" toml:"environment"`

	// Debug enables debug-level logging in development
	Debug bool `json:"debug" yaml:"debug" toml:"debug"`

	// Verbose prints one line per task run after a batch
	Verbose bool `json:"verbose" yaml:"verbose" toml:"verbose"`

	// Message is the greeting printed by the hello task
	Message string `json:"message,omitempty" yaml:"message,omitempty" toml:"message,omitempty"`

	// EnableProfiling writes a CPU profile next to the benchmark report
	// and logs runtime stats on exit
	EnableProfiling bool `json:"enableProfiling" yaml:"enableProfiling" toml:"enableProfiling"`

	// EnableMemoryTracking samples heap usage during benchmarks
	EnableMemoryTracking bool `json:"enableMemoryTracking" yaml:"enableMemoryTracking" toml:"enableMemoryTracking"`

	// LogMetrics also writes the log to LogFile
	LogMetrics bool `json:"logMetrics" yaml:"logMetrics" toml:"logMetrics"`

	// LogFile is the performance log destination
	LogFile string `json:"logFile,omitempty" yaml:"logFile,omitempty" toml:"logFile,omitempty"`

	// MaxConcurrent is the default concurrency limit for batches
	MaxConcurrent int `json:"maxConcurrent" yaml:"maxConcurrent" toml:"maxConcurrent"`

	// BatchSize is the default message count of the batch command
	BatchSize int `json:"batchSize" yaml:"batchSize" toml:"batchSize"`

	// MemoryWarningThresholdMB logs a warning when a benchmark's heap delta exceeds it
	MemoryWarningThresholdMB float64 `json:"memoryWarningThresholdMB" yaml:"memoryWarningThresholdMB" toml:"memoryWarningThresholdMB"`

	// ExecutionTimeWarning logs a warning when a run takes longer
	ExecutionTimeWarning Duration `json:"executionTimeWarning" yaml:"executionTimeWarning" toml:"executionTimeWarning"`

	// CommandTimeout bounds external command benchmarks
	CommandTimeout Duration `json:"commandTimeout" yaml:"commandTimeout" toml:"commandTimeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Environment:              EnvDevelopment,
		Debug:                    true,
		Verbose:                  true,
		Message:                  "Hello, World!",
		EnableProfiling:          false,
		EnableMemoryTracking:     true,
		LogMetrics:               true,
		LogFile:                  "performance.log",
		MaxConcurrent:            50,
		BatchSize:                100,
		MemoryWarningThresholdMB: 100,
		ExecutionTimeWarning:     Duration(time.Second),
		CommandTimeout:           Duration(30 * time.Second),
	}
}

// Preset holds the settings an environment overrides.
type Preset struct {
	Debug           bool
	Verbose         bool
	EnableProfiling bool
	MaxConcurrent   int
	BatchSize       int
}

var presets = map[string]Preset{
	EnvProduction: {
		Debug:           false,
		Verbose:         false,
		EnableProfiling: false,
		MaxConcurrent:   100,
		BatchSize:       500,
	},
	EnvStaging: {
		Debug:           false,
		Verbose:         true,
		EnableProfiling: true,
		MaxConcurrent:   75,
		BatchSize:       250,
	},
	EnvDevelopment: {
		Debug:           true,
		Verbose:         true,
		EnableProfiling: true,
		MaxConcurrent:   25,
		BatchSize:       50,
	},
}

// presetFor returns the preset for an environment name. Unknown names
// get the development preset.
func presetFor(env string) Preset {
	if p, ok := presets[strings.ToLower(env)]; ok {
		return p
	}
	return presets[EnvDevelopment]
}

// ApplyPreset overwrites the preset-controlled fields for c.Environment.
func (c *Config) ApplyPreset() {
	p := presetFor(c.Environment)
	c.Debug = p.Debug
	c.Verbose = p.Verbose
	c.EnableProfiling = p.EnableProfiling
	c.MaxConcurrent = p.MaxConcurrent
	c.BatchSize = p.BatchSize
}

// LogLevel returns the minimum log level for the configured environment.
func (c *Config) LogLevel() zapcore.Level {
	switch strings.ToLower(c.Environment) {
	case EnvProduction:
		return zapcore.WarnLevel
	case EnvStaging:
		return zapcore.InfoLevel
	default:
		if c.Debug {
			return zapcore.DebugLevel
		}
		return zapcore.InfoLevel
	}
}

// MemoryWarningThresholdBytes converts the memory threshold to bytes.
func (c *Config) MemoryWarningThresholdBytes() int64 {
	return int64(c.MemoryWarningThresholdMB * 1024 * 1024)
}

// Duration is a time.Duration that can be unmarshaled from JSON, YAML and
// TOML strings. Bare numbers are read as seconds.
type Duration time.Duration

// GetDuration returns the duration or a default if zero.
func (d Duration) GetDuration(defaultValue time.Duration) time.Duration {
	if d == 0 {
		return defaultValue
	}
	return time.Duration(d)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	// Remove quotes if present
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "null" {
		s = ""
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. TOML decoding goes
// through here.
func (d *Duration) UnmarshalText(b []byte) error {
	dur, err := ParseDurationString(string(b))
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// String returns the duration as a string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// ParseDurationString parses a duration string with support for common formats.
//
// Supported formats:
//   - Standard Go duration: "30s", "2m", "1h30m", "500ms"
//   - Seconds as a number: "30" or "1.5"
func ParseDurationString(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	// Try standard Go duration parsing first
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	// Try parsing as seconds
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}

	return 0, fmt.Errorf("invalid duration format: %s", s)
}
