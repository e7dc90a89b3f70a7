package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: an initial state, a
// sequence of steps against it, and assertions on the final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// State is the initial top-level state mapping. Integer scalars
	// are normalized to float64 before the state is created.
	State map[string]any `yaml:"state"`

	// Steps is the ordered list of operations to execute.
	Steps []Step `yaml:"steps"`

	// Assertions validate expression values against the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step performs exactly one operation against the current scope.
type Step struct {
	// Eval evaluates an expression. Writes are rejected unless
	// AllowWrites is set.
	Eval        string `yaml:"eval,omitempty"`
	AllowWrites bool   `yaml:"allow_writes,omitempty"`

	// Expect, when present on an eval step, is the expected value.
	// A mismatch is recorded as a step failure, not a run error.
	Expect any `yaml:"expect,omitempty"`

	// Observe registers a watcher on an expression. Its initial value
	// and every re-run appear in the trace.
	Observe string `yaml:"observe,omitempty"`

	// As labels an observe step's trace events. Defaults to the
	// observed expression.
	As string `yaml:"as,omitempty"`

	// Write sets a path (or assignable alias) to a value through a
	// setter, firing bound effects.
	Write *WriteStep `yaml:"write,omitempty"`

	// Compose pushes a child scope with the given aliases. Subsequent
	// steps run in the child until a cleanup step pops it.
	Compose *ComposeStep `yaml:"compose,omitempty"`

	// Cleanup pops the innermost composed scope.
	Cleanup bool `yaml:"cleanup,omitempty"`

	// Trigger fires the effects bound to a path without writing.
	Trigger string `yaml:"trigger,omitempty"`
}

// WriteStep is a setter-based write.
type WriteStep struct {
	Path  string `yaml:"path"`
	Value any    `yaml:"value"`
}

// ComposeStep pushes a child scope.
type ComposeStep struct {
	// Aliases maps names to expression strings. Values that should be
	// opaque (attached verbatim rather than re-evaluated) go under
	// Values.
	Aliases map[string]string `yaml:"aliases,omitempty"`

	// Values maps names to opaque payloads attached as-is.
	Values map[string]any `yaml:"values,omitempty"`
}

// Assertion checks an expression against an expected value after all
// steps have run.
type Assertion struct {
	Expr   string `yaml:"expr"`
	Expect any    `yaml:"expect"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected to catch typos like "step:" for "steps:".
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

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and every
// step performs exactly one operation.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.State == nil {
		return fmt.Errorf("state mapping is required (use empty map for no state)")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		ops := 0
		if step.Eval != "" {
			ops++
		}
		if step.Observe != "" {
			ops++
		}
		if step.Write != nil {
			ops++
		}
		if step.Compose != nil {
			ops++
		}
		if step.Cleanup {
			ops++
		}
		if step.Trigger != "" {
			ops++
		}
		if ops != 1 {
			return fmt.Errorf("steps[%d]: exactly one of eval, observe, write, compose, cleanup, trigger is required", i)
		}
		if step.Write != nil && step.Write.Path == "" {
			return fmt.Errorf("steps[%d].write: path is required", i)
		}
		if step.As != "" && step.Observe == "" {
			return fmt.Errorf("steps[%d]: as is only valid on observe steps", i)
		}
		if step.AllowWrites && step.Eval == "" {
			return fmt.Errorf("steps[%d]: allow_writes is only valid on eval steps", i)
		}
	}

	for i, assertion := range s.Assertions {
		if assertion.Expr == "" {
			return fmt.Errorf("assertions[%d]: expr is required", i)
		}
	}

	return nil
}
