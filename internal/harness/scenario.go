package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sysplan/internal/planner"
)

// Scenario defines a conformance test scenario.
// A scenario plans the systems declared in its specs, runs the plan for one
// tick over a fixture world and checks what the plan did.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Specs lists CUE files declaring the systems under test.
	// Relative paths are resolved against the scenario file's directory.
	Specs []string `yaml:"specs"`

	// Entities is the fixture world, spawned in order.
	Entities []EntityFixture `yaml:"entities,omitempty"`

	// Predicates maps a predicate id to the names of the entities it
	// accepts. Every other entity is rejected.
	Predicates map[string][]string `yaml:"predicates,omitempty"`

	// Expect holds the checks run after the tick.
	Expect Expectation `yaml:"expect"`
}

// EntityFixture is one entity of the fixture world.
type EntityFixture struct {
	Name       string   `yaml:"name"`
	Components []string `yaml:"components,omitempty"`
	Tags       []string `yaml:"tags,omitempty"`

	// Data optionally gives component payloads, keyed by component.
	// Components listed here but not in Components are added too.
	Data map[string]map[string]any `yaml:"data,omitempty"`
}

// Expectation specifies what a scenario must observe.
// Unset fields are not checked.
type Expectation struct {
	// Entries is the number of plan entries after merging.
	Entries *int `yaml:"entries,omitempty"`

	// Scans is the number of data-source evaluations in the tick.
	Scans *int `yaml:"scans,omitempty"`

	// Visits maps a routine to the entity names it must see, in any order.
	// A routine missing from the map must see nothing.
	Visits map[string][]string `yaml:"visits,omitempty"`

	// Diagnostics lists the error kinds reported while planning, in
	// descriptor order.
	Diagnostics []string `yaml:"diagnostics,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
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

	base := filepath.Dir(path)
	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) {
			scenario.Specs[i] = filepath.Join(base, specPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and that every
// entity name the scenario mentions is declared.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	names := make(map[string]bool, len(s.Entities))
	for i, e := range s.Entities {
		if e.Name == "" {
			return fmt.Errorf("entities[%d]: name is required", i)
		}
		if names[e.Name] {
			return fmt.Errorf("entities[%d]: duplicate entity %q", i, e.Name)
		}
		names[e.Name] = true
	}

	for pred, accepted := range s.Predicates {
		for _, name := range accepted {
			if !names[name] {
				return fmt.Errorf("predicates[%s]: unknown entity %q", pred, name)
			}
		}
	}

	for routine, visited := range s.Expect.Visits {
		for _, name := range visited {
			if !names[name] {
				return fmt.Errorf("expect.visits[%s]: unknown entity %q", routine, name)
			}
		}
	}

	if s.Expect.Entries != nil && *s.Expect.Entries < 0 {
		return fmt.Errorf("expect.entries must be non-negative")
	}
	if s.Expect.Scans != nil && *s.Expect.Scans < 0 {
		return fmt.Errorf("expect.scans must be non-negative")
	}

	for i, kind := range s.Expect.Diagnostics {
		switch planner.ErrorKind(kind) {
		case planner.ErrUnsupportedOperationKind, planner.ErrEmptyComponentList:
		default:
			return fmt.Errorf("expect.diagnostics[%d]: unknown descriptor error kind %q", i, kind)
		}
	}

	return nil
}
