package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate validates the configuration.
//
// Returns nil if valid, or a ValidationErrors containing all validation errors.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	switch strings.ToLower(c.Environment) {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		errs.Add("environment", fmt.Sprintf("unknown environment %q (want development, staging or production)", c.Environment))
	}

	if c.MaxConcurrent < 1 {
		errs.Add("maxConcurrent", "must be >= 1")
	}
	if c.BatchSize < 1 {
		errs.Add("batchSize", "must be >= 1")
	}
	if c.MemoryWarningThresholdMB < 0 {
		errs.Add("memoryWarningThresholdMB", "must not be negative")
	}
	if c.ExecutionTimeWarning < 0 {
		errs.Add("executionTimeWarning", "must not be negative")
	}
	if c.CommandTimeout <= 0 {
		errs.Add("commandTimeout", "must be > 0")
	}
	if c.LogMetrics && strings.TrimSpace(c.LogFile) == "" {
		errs.Add("logFile", "is required when logMetrics is enabled")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
