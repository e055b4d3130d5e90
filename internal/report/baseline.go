package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/hellobench/internal/bench"
)

// ErrResultNotFound is returned when a report has no result with the
// requested name.
var ErrResultNotFound = errors.New("result not found in report")

// reportSchema is the shape every JSON report must have to be used as a
// baseline.
const reportSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["runId", "generatedAt", "results"],
  "properties": {
    "runId": {"type": "string"},
    "generatedAt": {"type": "string"},
    "baseline": {"type": "string"},
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "executionTime", "opsPerSecond", "successRate", "errorCount"],
        "properties": {
          "name": {"type": "string"},
          "executionTime": {"type": "integer", "minimum": 0},
          "memoryUsage": {"type": "integer"},
          "opsPerSecond": {"type": "number", "minimum": 0},
          "successRate": {"type": "number", "minimum": 0, "maximum": 1},
          "errorCount": {"type": "integer", "minimum": 0}
        }
      }
    }
  }
}`

// ValidationErrors represents a collection of schema validation errors
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("report.json", strings.NewReader(reportSchema)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	s, err := compiler.Compile("report.json")
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return s, nil
}

// Validate checks that data is a well-formed JSON report.
func Validate(data []byte) error {
	s, err := compileSchema()
	if err != nil {
		return err
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := s.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return extractValidationErrors(verr)
		}
		return ValidationErrors{err}
	}
	return nil
}

// extractValidationErrors flattens a jsonschema error tree
func extractValidationErrors(err *jsonschema.ValidationError) ValidationErrors {
	var out ValidationErrors

	if err.Message != "" {
		out = append(out, fmt.Errorf("validation error at %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		out = append(out, extractValidationErrors(cause)...)
	}
	return out
}

// LoadBaseline reads a JSON report from path and returns the result called
// name. An empty name selects the report's own baseline, falling back to
// the first result.
func LoadBaseline(path, name string) (bench.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return bench.Result{}, fmt.Errorf("failed to read baseline report: %w", err)
	}
	return ParseBaseline(data, name)
}

// ParseBaseline is LoadBaseline over in-memory report data.
func ParseBaseline(data []byte, name string) (bench.Result, error) {
	if err := Validate(data); err != nil {
		return bench.Result{}, fmt.Errorf("baseline report does not match schema: %w", err)
	}

	doc := gjson.ParseBytes(data)
	if name == "" {
		name = doc.Get("baseline").String()
	}

	var match gjson.Result
	if name == "" {
		match = doc.Get("results.0")
	} else {
		match = doc.Get(fmt.Sprintf(`results.#(name==%q)`, name))
	}
	if !match.Exists() {
		return bench.Result{}, fmt.Errorf("%w: %q", ErrResultNotFound, name)
	}

	var res bench.Result
	if err := json.Unmarshal([]byte(match.Raw), &res); err != nil {
		return bench.Result{}, fmt.Errorf("failed to decode baseline result: %w", err)
	}
	return res, nil
}

// LoadPreviousResults reads a JSON report from path and returns its
// results keyed by name.
func LoadPreviousResults(path string) (map[string]bench.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read previous report: %w", err)
	}
	return PreviousResults(data)
}

// PreviousResults extracts every result of a JSON report, keyed by name.
func PreviousResults(data []byte) (map[string]bench.Result, error) {
	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("previous report does not match schema: %w", err)
	}

	out := make(map[string]bench.Result)
	var decodeErr error
	gjson.GetBytes(data, "results").ForEach(func(_, value gjson.Result) bool {
		var res bench.Result
		if err := json.Unmarshal([]byte(value.Raw), &res); err != nil {
			decodeErr = fmt.Errorf("failed to decode result: %w", err)
			return false
		}
		out[res.Name] = res
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}

// Regression is a result that got slower than its previous run.
type Regression struct {
	Name     string
	Previous time.Duration
	Current  time.Duration

	// Change is the relative slowdown, 0.25 meaning 25% slower
	Change float64
}

// DetectRegressions compares current results with previous ones by name and
// reports those whose execution time grew by more than tolerance. Results
// missing from either side or without a previous time are ignored.
func DetectRegressions(current []bench.Result, previous map[string]bench.Result, tolerance float64) []Regression {
	var out []Regression
	for _, cur := range current {
		prev, ok := previous[cur.Name]
		if !ok || prev.ExecutionTime <= 0 || cur.ExecutionTime <= 0 {
			continue
		}
		change := float64(cur.ExecutionTime-prev.ExecutionTime) / float64(prev.ExecutionTime)
		if change > tolerance {
			out = append(out, Regression{
				Name:     cur.Name,
				Previous: prev.ExecutionTime,
				Current:  cur.ExecutionTime,
				Change:   change,
			})
		}
	}
	return out
}
