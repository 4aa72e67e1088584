package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines an analysis test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden
	// file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Session is the path of the session fixture.
	// Relative paths are resolved against the scenario file location.
	Session string `yaml:"session"`

	// Profile is the path of a CUE analysis profile. Empty means the
	// embedded default profile.
	Profile string `yaml:"profile,omitempty"`

	// Modules overrides the profile's module list when non-empty.
	Modules []string `yaml:"modules,omitempty"`

	// RunID is an optional fixed run id.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// MaxFabrications overrides the engine's fabrication quota when
	// positive.
	MaxFabrications int `yaml:"max_fabrications,omitempty"`

	// Assertions validate the trace, relations and final snapshot.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one property of a run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "snapshot_equals": Compare a snapshot value
	// - "related_count": Count relation edges
	// - "fabricated_count": Count fabricated events
	// - "dispatch_order": Check labels appear in order
	// - "error_code": Check the run failed with a code
	Type string `yaml:"type"`

	// Path is a dotted path into the snapshot (snapshot_equals).
	Path string `yaml:"path,omitempty"`

	// Expect is the expected value at Path (snapshot_equals).
	Expect any `yaml:"expect,omitempty"`

	// Relation names the edges to count (related_count).
	Relation string `yaml:"relation,omitempty"`

	// Kind, Ability and Timestamp narrow which dispatched events are
	// considered (related_count, fabricated_count). Zero values match
	// everything.
	Kind      string `yaml:"kind,omitempty"`
	Ability   int64  `yaml:"ability,omitempty"`
	Timestamp *int64 `yaml:"ts,omitempty"`

	// Count is the expected number (related_count, fabricated_count).
	Count *int `yaml:"count,omitempty"`

	// Events is the expected label order (dispatch_order).
	Events []string `yaml:"events,omitempty"`

	// Code is the expected error code (error_code).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertSnapshotEquals  = "snapshot_equals"
	AssertRelatedCount    = "related_count"
	AssertFabricatedCount = "fabricated_count"
	AssertDispatchOrder   = "dispatch_order"
	AssertErrorCode       = "error_code"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Session and profile paths are resolved relative to the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Session = resolve(base, scenario.Session)
	scenario.Profile = resolve(base, scenario.Profile)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Session == "" {
		return fmt.Errorf("session is required")
	}
	if _, err := os.Stat(s.Session); os.IsNotExist(err) {
		return fmt.Errorf("session file not found: %s", s.Session)
	}
	if s.Profile != "" {
		if _, err := os.Stat(s.Profile); os.IsNotExist(err) {
			return fmt.Errorf("profile file not found: %s", s.Profile)
		}
	}

	if s.MaxFabrications < 0 {
		return fmt.Errorf("max_fabrications must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSnapshotEquals:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for snapshot_equals", index)
		}
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for snapshot_equals", index)
		}
	case AssertRelatedCount:
		if a.Relation == "" {
			return fmt.Errorf("assertions[%d]: relation is required for related_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be set and non-negative for related_count", index)
		}
	case AssertFabricatedCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be set and non-negative for fabricated_count", index)
		}
	case AssertDispatchOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for dispatch_order", index)
		}
	case AssertErrorCode:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error_code", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// expectsFailure reports whether the scenario asserts a run error.
func (s *Scenario) expectsFailure() bool {
	for _, a := range s.Assertions {
		if a.Type == AssertErrorCode {
			return true
		}
	}
	return false
}
