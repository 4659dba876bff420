package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/coedit/internal/ir"
)

// Scenario defines one editing session to replay.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Schema is the path to a CUE schema file. LoadScenario resolves it
	// relative to the scenario file.
	Schema string `yaml:"schema,omitempty"`

	// SchemaSource is inline CUE source, used instead of Schema.
	SchemaSource string `yaml:"schema_source,omitempty"`

	// Steps run in order against one store.
	Steps []Step `yaml:"steps"`

	// FinalState is a subset match on top-level fields after all steps.
	FinalState map[string]any `yaml:"final_state,omitempty"`

	// Assertions check the audit history after all steps.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one action against the store. Exactly one of Patch, Set, Reset
// or ClearHistory is given.
type Step struct {
	// Source attributes a patch. Defaults to "llm".
	Source string `yaml:"source,omitempty"`

	// Patch is raw patch text, applied through ApplyFromText.
	Patch string `yaml:"patch,omitempty"`

	// Set writes fields directly, all-or-nothing, without auditing.
	Set map[string]any `yaml:"set,omitempty"`

	// Reset restores every field to its default.
	Reset bool `yaml:"reset,omitempty"`

	// ClearHistory empties the audit log.
	ClearHistory bool `yaml:"clear_history,omitempty"`

	// Expect checks the step outcome. Only patch and set steps have one.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	Success       *bool  `yaml:"success"`
	Applied       *int   `yaml:"applied,omitempty"`
	ErrorContains string `yaml:"error_contains,omitempty"`
	Code          string `yaml:"code,omitempty"`
}

// Assertion checks the audit history or the final snapshot.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected number of entries (history_count).
	Count int `yaml:"count,omitempty"`

	// Source and Success select entries (history_contains).
	Source  string `yaml:"source,omitempty"`
	Success *bool  `yaml:"success,omitempty"`
	Code    string `yaml:"code,omitempty"`

	// Sources is the expected source sequence (history_order).
	Sources []string `yaml:"sources,omitempty"`

	// Field and Value are an exact match on one field (field_equals).
	Field string `yaml:"field,omitempty"`
	Value any    `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertHistoryCount    = "history_count"
	AssertHistoryContains = "history_contains"
	AssertHistoryOrder    = "history_order"
	AssertFieldEquals     = "field_equals"
)

// Step kinds recorded in the trace.
const (
	StepPatch        = "patch"
	StepSet          = "set"
	StepReset        = "reset"
	StepClearHistory = "clear_history"
)

// Kind reports which action the step performs.
func (s Step) Kind() string {
	switch {
	case s.Patch != "":
		return StepPatch
	case s.Set != nil:
		return StepSet
	case s.Reset:
		return StepReset
	case s.ClearHistory:
		return StepClearHistory
	}
	return ""
}

// LoadScenario reads and parses a scenario YAML file. A relative schema
// path is resolved against the scenario file's directory.
//
// Unknown YAML keys are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}
	if scenario.Schema != "" {
		if _, err := os.Stat(scenario.Schema); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: schema file not found: %s", scenario.Schema)
		}
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
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

	if (s.Schema == "") == (s.SchemaSource == "") {
		return fmt.Errorf("exactly one of schema or schema_source is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(i int, step Step) error {
	actions := 0
	if step.Patch != "" {
		actions++
	}
	if step.Set != nil {
		actions++
	}
	if step.Reset {
		actions++
	}
	if step.ClearHistory {
		actions++
	}
	if actions != 1 {
		return fmt.Errorf("steps[%d]: exactly one of patch, set, reset or clear_history is required", i)
	}

	if step.Source != "" {
		if _, err := ir.ParseSource(step.Source); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	if step.Expect != nil {
		if step.Reset || step.ClearHistory {
			return fmt.Errorf("steps[%d]: expect is only allowed on patch and set steps", i)
		}
		if step.Expect.Success == nil {
			return fmt.Errorf("steps[%d].expect: success is required", i)
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertHistoryCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for history_count", index)
		}
	case AssertHistoryContains:
		if a.Source == "" && a.Success == nil && a.Code == "" {
			return fmt.Errorf("assertions[%d]: history_contains needs source, success or code", index)
		}
	case AssertHistoryOrder:
		if len(a.Sources) == 0 {
			return fmt.Errorf("assertions[%d]: sources list is required for history_order", index)
		}
	case AssertFieldEquals:
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for field_equals", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
