package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a conformance test of a model: it runs the model with fixed
// settings and asserts on the collected results.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the model directory, relative to the scenario file.
	Model string `yaml:"model"`

	// Iterations, Periods and Seed override the model's values when set.
	Iterations *int    `yaml:"iterations,omitempty"`
	Periods    *int    `yaml:"periods,omitempty"`
	Seed       *uint64 `yaml:"seed,omitempty"`

	// Token is the run token. Defaults to "scenario-<name>".
	Token string `yaml:"token,omitempty"`

	// Assertions validate the collected results.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the collected results of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Path and Field select a collected field (field_count, field_sum,
	// field_range, field_values).
	Path  string `yaml:"path,omitempty"`
	Field string `yaml:"field,omitempty"`

	// Count is the expected number of rows (row_count, field_count).
	Count *int `yaml:"count,omitempty"`

	// Sum is the expected total (field_sum), compared within Tolerance.
	Sum       *float64 `yaml:"sum,omitempty"`
	Tolerance float64  `yaml:"tolerance,omitempty"`

	// Min and Max bound every value (field_range). Either may be omitted.
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`

	// Values are the expected values in production order (field_values).
	Values []float64 `yaml:"values,omitempty"`

	// Order is the expected firing order (firing_order).
	Order []string `yaml:"order,omitempty"`
}

// Assertion type constants.
const (
	AssertRowCount    = "row_count"
	AssertFieldCount  = "field_count"
	AssertFieldSum    = "field_sum"
	AssertFieldRange  = "field_range"
	AssertFieldValues = "field_values"
	AssertFiringOrder = "firing_order"
)

// LoadScenario reads and parses a scenario YAML file. The model path is
// resolved relative to the file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Model != "" && !filepath.IsAbs(scenario.Model) {
		scenario.Model = filepath.Join(filepath.Dir(path), scenario.Model)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if info, err := os.Stat(s.Model); err != nil || !info.IsDir() {
		return fmt.Errorf("model directory not found: %s", s.Model)
	}
	if s.Iterations != nil && *s.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative")
	}
	if s.Periods != nil && *s.Periods < 0 {
		return fmt.Errorf("periods must not be negative")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	needsField := func() error {
		if a.Path == "" || a.Field == "" {
			return fmt.Errorf("assertions[%d]: path and field are required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRowCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for row_count", index)
		}
	case AssertFieldCount:
		if err := needsField(); err != nil {
			return err
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for field_count", index)
		}
	case AssertFieldSum:
		if err := needsField(); err != nil {
			return err
		}
		if a.Sum == nil {
			return fmt.Errorf("assertions[%d]: sum is required for field_sum", index)
		}
		if a.Tolerance < 0 {
			return fmt.Errorf("assertions[%d]: tolerance must not be negative", index)
		}
	case AssertFieldRange:
		if err := needsField(); err != nil {
			return err
		}
		if a.Min == nil && a.Max == nil {
			return fmt.Errorf("assertions[%d]: min or max is required for field_range", index)
		}
	case AssertFieldValues:
		if err := needsField(); err != nil {
			return err
		}
	case AssertFiringOrder:
		if len(a.Order) == 0 {
			return fmt.Errorf("assertions[%d]: order is required for firing_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
